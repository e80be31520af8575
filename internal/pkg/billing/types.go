package billing

import "encoding/json"

// ProviderSubscription is the provider-shaped view of a subscription event
// payload. Every field except ID may be absent; the normalizer derives the
// canonical record without assuming presence of anything else. Raw preserves
// the untouched payload for the stored object.
type ProviderSubscription struct {
	ID               string               `json:"id"`
	Customer         CustomerRef          `json:"customer"`
	Status           string               `json:"status"`
	Metadata         SubscriptionMetadata `json:"metadata"`
	Plan             *SubscriptionPlan    `json:"plan"`
	StartDate        int64                `json:"start_date"`
	Created          int64                `json:"created"`
	CurrentPeriodEnd int64                `json:"current_period_end"`

	Raw json.RawMessage `json:"-"`
}

type SubscriptionMetadata struct {
	Email         string `json:"email"`
	CustomerEmail string `json:"customer_email"`
}

type SubscriptionPlan struct {
	Nickname string `json:"nickname"`
}

// CustomerRef accepts both the compact string form and an expanded customer
// object. Anything else decodes to empty rather than failing the event.
type CustomerRef string

func (c *CustomerRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = CustomerRef(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		*c = CustomerRef(obj.ID)
		return nil
	}
	*c = ""
	return nil
}

// ParseProviderSubscription decodes a subscription object from an event's
// data payload, keeping the raw bytes alongside the parsed view.
func ParseProviderSubscription(raw []byte) (ProviderSubscription, error) {
	var sub ProviderSubscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return ProviderSubscription{}, &MalformedPayloadError{Reason: err.Error()}
	}
	sub.Raw = append(json.RawMessage(nil), raw...)
	return sub, nil
}

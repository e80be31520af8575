package billing

import "errors"

var (
	// ErrNoWebhookSecrets means the service was deployed without any signing
	// secret. A deployment defect, not a per-request condition.
	ErrNoWebhookSecrets = errors.New("no webhook signing secrets configured")

	// ErrInvalidSignature means the payload verified against none of the
	// configured secrets.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// MalformedPayloadError marks a payload that cannot be used regardless of
// which secret signed it: unparseable bytes or a subscription missing its
// primary key.
type MalformedPayloadError struct {
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return "malformed webhook payload: " + e.Reason
}

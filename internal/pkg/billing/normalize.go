package billing

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/webhookd/subsync/internal/pkg/kvstore"
)

const (
	// fallbackPeriodSeconds pads a missing billing period to 30 days.
	fallbackPeriodSeconds = 30 * 24 * 60 * 60

	defaultSubscriptionName = "Stripe Subscription"
	fallbackOwnerEmail      = "unknown@example.com"
)

// CustomerEmailResolver looks up the email for a provider customer id.
// Failures are tolerated by the normalizer: the lookup is one link in the
// owner derivation chain, not a hard dependency.
type CustomerEmailResolver interface {
	CustomerEmail(ctx context.Context, customerID string) (string, error)
}

// Normalizer maps provider subscriptions into the store's canonical record
// shape. Pure apart from the injected resolver and clock.
type Normalizer struct {
	DefaultOwnerEmail string
	Resolver          CustomerEmailResolver
	Now               func() time.Time
}

// Normalize derives an OwnerRecord from a provider subscription. The only
// required input field is the subscription id; everything else falls back
// deterministically.
func (n *Normalizer) Normalize(ctx context.Context, sub ProviderSubscription) (kvstore.OwnerRecord, error) {
	if strings.TrimSpace(sub.ID) == "" {
		return kvstore.OwnerRecord{}, &MalformedPayloadError{Reason: "subscription has no id"}
	}

	owner := n.ownerEmail(ctx, sub)

	start := sub.StartDate
	if start == 0 {
		start = sub.Created
	}
	if start == 0 {
		start = n.now().Unix()
	}

	end := sub.CurrentPeriodEnd
	if end == 0 {
		end = start + fallbackPeriodSeconds
		log.Warnf("[Billing] missing current_period_end for %s, falling back to %d", sub.ID, end)
	}

	name := defaultSubscriptionName
	if sub.Plan != nil && sub.Plan.Nickname != "" {
		name = sub.Plan.Nickname
	}

	return kvstore.OwnerRecord{
		ID:              sub.ID,
		Owner:           owner,
		AuthorizedUsers: []string{owner},
		Type:            kvstore.RecordTypeSubscription,
		Name:            name,
		StartDate:       start,
		EndDate:         end,
		Object:          sub.Raw,
	}, nil
}

// ownerEmail walks the derivation chain: metadata.email, then the customer
// lookup, then metadata.customer_email, then the configured default. It
// never fails.
func (n *Normalizer) ownerEmail(ctx context.Context, sub ProviderSubscription) string {
	if sub.Metadata.Email != "" {
		return sub.Metadata.Email
	}

	if customerID := string(sub.Customer); customerID != "" && n.Resolver != nil {
		email, err := n.Resolver.CustomerEmail(ctx, customerID)
		if err != nil {
			log.Warnf("[Billing] could not retrieve customer email for %s: %v", customerID, err)
		} else if email != "" {
			log.Infof("[Billing] retrieved email %q for customer %s", email, customerID)
			return email
		}
	}

	if sub.Metadata.CustomerEmail != "" {
		return sub.Metadata.CustomerEmail
	}
	if n.DefaultOwnerEmail != "" {
		return n.DefaultOwnerEmail
	}
	return fallbackOwnerEmail
}

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

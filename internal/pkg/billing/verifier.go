package billing

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// WebhookVerifier authenticates raw webhook payloads against an ordered list
// of signing secrets, so live and test-mode credentials are accepted on the
// same endpoint. The first secret that verifies wins; most traffic matches
// the first (live) one.
type WebhookVerifier struct {
	secrets []string
}

func NewWebhookVerifier(secrets ...string) *WebhookVerifier {
	kept := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, s)
		}
	}
	return &WebhookVerifier{secrets: kept}
}

func (v *WebhookVerifier) HasSecrets() bool {
	return len(v.secrets) > 0
}

// Verify checks the payload against each configured secret in order and
// returns the typed event on the first match. Malformed bodies are detected
// once, before any secret is tried, so they never masquerade as signature
// failures.
func (v *WebhookVerifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	if len(v.secrets) == 0 {
		return stripe.Event{}, ErrNoWebhookSecrets
	}
	if !json.Valid(payload) {
		return stripe.Event{}, &MalformedPayloadError{Reason: "body is not valid JSON"}
	}

	var lastErr error
	for _, secret := range v.secrets {
		// Version drift on the provider side is tolerated: the event object
		// is forwarded verbatim, not interpreted field by field.
		event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err == nil {
			return event, nil
		}
		lastErr = err
		if isSignatureError(err) {
			continue
		}
		return stripe.Event{}, &MalformedPayloadError{Reason: err.Error()}
	}

	log.Warnf("[Webhook] signature verification failed for all %d secrets: %v", len(v.secrets), lastErr)
	return stripe.Event{}, ErrInvalidSignature
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrTooOld) ||
		errors.Is(err, webhook.ErrNoValidSignature)
}

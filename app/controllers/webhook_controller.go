package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"

	"github.com/webhookd/subsync/internal/pkg/billing"
	"github.com/webhookd/subsync/internal/pkg/config"
	"github.com/webhookd/subsync/internal/pkg/kvstore"
	"github.com/webhookd/subsync/internal/pkg/metrics/counter"
	"github.com/webhookd/subsync/internal/pkg/security"
)

// dedupeTTL outlives Stripe's redelivery window (up to 3 days).
const dedupeTTL = 96 * time.Hour

// EventDeduper remembers fully processed webhook deliveries. Checking and
// marking are separate so an event is only marked once its outcome is final;
// a delivery that failed to persist stays unmarked and the provider's retry
// reaches the store again. Implementations may be best-effort: an error is
// logged and the event treated as unseen.
type EventDeduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkSeen(ctx context.Context, eventID string, ttl time.Duration) error
}

// WebhookController receives provider webhook notifications, authenticates
// them, and forwards normalized subscription records to the object store.
type WebhookController struct {
	Verifier   *billing.WebhookVerifier
	Normalizer *billing.Normalizer
	Issuer     security.TokenIssuer
	Store      *kvstore.Client
	Events     EventDeduper // optional
}

// NewWebhookController wires the webhook pipeline from validated config. The
// http.Client is the process-wide outbound client; its Timeout bounds each
// store attempt.
func NewWebhookController(cfg *config.Config, httpClient *http.Client, events EventDeduper) *WebhookController {
	return &WebhookController{
		Verifier: billing.NewWebhookVerifier(cfg.WebhookSecrets...),
		Normalizer: &billing.Normalizer{
			DefaultOwnerEmail: cfg.DefaultOwnerEmail,
			Resolver:          billing.NewStripeCustomerResolver(cfg.StripeSecretKey),
		},
		Issuer: security.TokenIssuer{Secret: cfg.JWTSecret, TTL: cfg.TokenTTL},
		Store:  kvstore.NewClient(cfg.AdminKVAPIURL, httpClient, cfg.HTTPRetries),
		Events: events,
	}
}

func (wc *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.BodyRaw()...)
	sigHeader := strings.TrimSpace(c.Get("Stripe-Signature"))

	event, err := wc.Verifier.Verify(payload, sigHeader)
	if err != nil {
		var malformed *billing.MalformedPayloadError
		switch {
		case errors.Is(err, billing.ErrNoWebhookSecrets):
			log.Error("[Webhook] no signing secrets configured")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_configuration"})
		case errors.As(err, &malformed):
			log.Warnf("[Webhook] invalid payload: %v", err)
			_ = counter.AddOutcome("rejected")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		default:
			_ = counter.AddOutcome("rejected")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
		}
	}

	log.Infof("[Webhook] received Stripe event %s (%s)", event.ID, event.Type)
	_ = counter.AddEventReceived(string(event.Type))

	if wc.Events != nil && event.ID != "" {
		seen, err := wc.Events.Seen(c.Context(), event.ID)
		if err != nil {
			log.Warnf("[Webhook] event dedupe unavailable, processing anyway: %v", err)
		} else if seen {
			log.Infof("[Webhook] duplicate delivery of event %s", event.ID)
			_ = counter.AddOutcome("duplicate")
			return c.JSON(fiber.Map{"status": "duplicate"})
		}
	}

	switch string(event.Type) {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.paused",
		"customer.subscription.resumed":
		return wc.handleSubscriptionChange(c, event)

	case "customer.subscription.deleted":
		// Acknowledged without a store mutation; see DESIGN.md.
		log.Infof("[Webhook] subscription deleted: %s", subscriptionID(event))
		return c.JSON(fiber.Map{"status": "ignored_deleted"})

	default:
		log.Infof("[Webhook] unhandled event type %s", event.Type)
		return c.JSON(fiber.Map{"status": "ignored_type"})
	}
}

func (wc *WebhookController) handleSubscriptionChange(c *fiber.Ctx, event stripe.Event) error {
	if event.Data == nil {
		log.Warnf("[Webhook] event %s carries no data object", event.ID)
		_ = counter.AddOutcome("rejected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	sub, err := billing.ParseProviderSubscription(event.Data.Raw)
	if err != nil {
		log.Warnf("[Webhook] unusable subscription payload in %s: %v", event.ID, err)
		_ = counter.AddOutcome("rejected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	// The provider retries failed deliveries; the inbound request carries no
	// deadline of its own beyond the store's per-attempt timeout.
	ctx := context.Background()

	record, err := wc.Normalizer.Normalize(ctx, sub)
	if err != nil {
		log.Warnf("[Webhook] cannot normalize subscription in %s: %v", event.ID, err)
		_ = counter.AddOutcome("rejected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	token, err := wc.Issuer.Issue(record.Owner)
	if err != nil {
		log.Errorf("[Webhook] token issuance failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_configuration"})
	}

	log.Infof("[Webhook] persisting subscription %s for %s", record.ID, record.Owner)
	result, err := wc.Store.Upsert(ctx, token, record)
	if err != nil {
		log.Errorf("[Webhook] persistence failed for %s: %v", record.Owner, err)
		_ = counter.AddOutcome("persistence_failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":  "persistence_failed",
			"detail": err.Error(),
		})
	}

	wc.markProcessed(c.Context(), event.ID)

	_ = counter.AddOutcome("success")
	return c.JSON(fiber.Map{
		"status": "success",
		"persistence": fiber.Map{
			"status": "success",
			"result": result,
		},
	})
}

// markProcessed records a finished delivery so redeliveries short-circuit.
// Only called once the upsert succeeded: earlier failures leave the event
// unmarked on purpose.
func (wc *WebhookController) markProcessed(ctx context.Context, eventID string) {
	if wc.Events == nil || eventID == "" {
		return
	}
	if err := wc.Events.MarkSeen(ctx, eventID, dedupeTTL); err != nil {
		log.Warnf("[Webhook] could not record event %s as processed: %v", eventID, err)
	}
}

func subscriptionID(event stripe.Event) string {
	var obj struct {
		ID string `json:"id"`
	}
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &obj) != nil {
		return "unknown"
	}
	return obj.ID
}

package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/webhookd/subsync/internal/pkg/metrics/counter"
)

const serviceVersion = "3.1.0"

func HandleHealthCheck(c *fiber.Ctx) error {
	log.Debug("[Health] check OK")
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleRoot returns the service descriptor. Delivery counters are included
// when the cache is reachable.
func HandleRoot(c *fiber.Ctx) error {
	resp := fiber.Map{
		"message": "Stripe Subscription Webhook Service is running.",
		"endpoints": fiber.Map{
			"health":  "/healthz",
			"webhook": "/webhook/stripe (POST only)",
		},
		"version": serviceVersion,
	}
	if events, outcomes, err := counter.Snapshot(); err == nil && (len(events) > 0 || len(outcomes) > 0) {
		resp["counters"] = fiber.Map{"events": events, "outcomes": outcomes}
	}
	return c.JSON(resp)
}

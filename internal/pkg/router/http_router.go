package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/webhookd/subsync/app/controllers"
)

type HttpRouter struct {
	webhook *controllers.WebhookController
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/", controllers.HandleRoot)
	app.Get("/healthz", controllers.HandleHealthCheck)

	// Stripe retries aggressively on failures; the limiter only guards
	// against unrelated clients hammering the endpoint.
	hook := app.Group("/webhook", limiter.New())
	hook.Post("/stripe", h.webhook.HandleStripeWebhook)
}

func NewHttpRouter(webhook *controllers.WebhookController) *HttpRouter {
	return &HttpRouter{webhook: webhook}
}

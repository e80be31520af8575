package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/webhookd/subsync/app/controllers"
	"github.com/webhookd/subsync/internal/pkg/cache"
	"github.com/webhookd/subsync/internal/pkg/config"
	"github.com/webhookd/subsync/internal/pkg/env"
	"github.com/webhookd/subsync/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	cache.SetupCache()

	// init fiber app
	app := fiber.New(fiber.Config{
		// Stripe event payloads stay well under this.
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// One outbound client for the whole process. Its timeout bounds each
	// store attempt, not the whole retry loop.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	webhook := controllers.NewWebhookController(cfg, httpClient, cache.WebhookEvents{})

	// ROUTER
	router.InstallRouter(app, webhook)

	return app
}

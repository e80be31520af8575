package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"

	"github.com/webhookd/subsync/internal/pkg/env"
)

const (
	DefaultHTTPTimeoutSeconds = 7
	DefaultHTTPRetries        = 2
	DefaultTokenTTLHours      = 96
	DefaultOwnerEmail         = "unknown@example.com"
)

// Config holds everything the service needs to run. It is built once at
// startup and treated as read-only afterwards.
type Config struct {
	StripeSecretKey string `validate:"required"`
	// WebhookSecrets is ordered: the live secret first, then the test-mode
	// secret when configured. Verification tries them in this order.
	WebhookSecrets []string `validate:"min=1,dive,required"`

	AdminKVAPIURL string `validate:"required,url,startswith=https://"`

	JWTSecret string `validate:"required,min=32"`
	TokenTTL  time.Duration

	HTTPTimeout time.Duration `validate:"min=1s"`
	HTTPRetries int           `validate:"min=0"`

	DefaultOwnerEmail string `validate:"required,email"`
}

// Load reads configuration from the environment and validates it. An error
// here is a deployment defect: callers are expected to abort startup.
func Load() (*Config, error) {
	cfg := &Config{
		StripeSecretKey:   env.GetEnv("STRIPE_SECRET_KEY", ""),
		AdminKVAPIURL:     env.GetEnv("ADMIN_KV_API_URL", ""),
		JWTSecret:         env.GetEnv("JWT_SECRET", ""),
		TokenTTL:          time.Duration(intEnv("JWT_TTL_HOURS", DefaultTokenTTLHours)) * time.Hour,
		HTTPTimeout:       time.Duration(intEnv("HTTP_TIMEOUT_S", DefaultHTTPTimeoutSeconds)) * time.Second,
		HTTPRetries:       intEnv("HTTP_RETRIES", DefaultHTTPRetries),
		DefaultOwnerEmail: env.GetEnv("DEFAULT_OWNER_EMAIL", DefaultOwnerEmail),
	}

	for _, key := range []string{"STRIPE_WEBHOOK_SECRET", "STRIPE_TEST_WEBHOOK_SECRET"} {
		if s := env.GetEnv(key, ""); s != "" {
			cfg.WebhookSecrets = append(cfg.WebhookSecrets, s)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func intEnv(key string, def int) int {
	raw := env.GetEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Warnf("[Config] %s=%q is not a number, using default %d", key, raw, def)
		return def
	}
	return val
}

package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/webhookd/subsync/internal/pkg/env"
)

var client *redis.Client

// SetupCache initializes the connection to the Redis cache server. The cache
// is best-effort: the service keeps running without it.
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	// Test the connection
	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to cache: %v", err)
	} else {
		log.Printf("Successfully connected to cache: %s", pong)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// WebhookEvents deduplicates provider webhook deliveries by event id.
type WebhookEvents struct{}

const eventKeyPrefix = "webhook:event:"

// Seen reports whether an event id was already processed to completion. It
// never marks anything: a delivery that later fails must stay eligible for
// the provider's redelivery.
func (WebhookEvents) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := GetClient().Exists(ctx, eventKeyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkSeen records an event id after its outcome is final. The TTL only
// needs to outlive the provider's redelivery window.
func (WebhookEvents) MarkSeen(ctx context.Context, eventID string, ttl time.Duration) error {
	return GetClient().SetNX(ctx, eventKeyPrefix+eventID, 1, ttl).Err()
}

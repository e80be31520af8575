package counter

import (
	"context"

	"github.com/webhookd/subsync/internal/pkg/cache"
)

const (
	eventsKey   = "webhook:counters:events"
	outcomesKey = "webhook:counters:outcomes"
)

// AddEventReceived increments the delivery counter for an event type in Redis
func AddEventReceived(eventType string) error {
	return cache.GetClient().HIncrBy(context.Background(), eventsKey, eventType, 1).Err()
}

// AddOutcome increments the counter for a processing outcome (success,
// duplicate, rejected, persistence_failed) in Redis
func AddOutcome(outcome string) error {
	return cache.GetClient().HIncrBy(context.Background(), outcomesKey, outcome, 1).Err()
}

// Snapshot returns the current per-type and per-outcome counters.
func Snapshot() (events, outcomes map[string]string, err error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	events, err = rdb.HGetAll(ctx, eventsKey).Result()
	if err != nil {
		return nil, nil, err
	}
	outcomes, err = rdb.HGetAll(ctx, outcomesKey).Result()
	if err != nil {
		return nil, nil, err
	}
	return events, outcomes, nil
}

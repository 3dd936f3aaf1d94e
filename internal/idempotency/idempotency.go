// Package idempotency guards SubmissionProcessor against double-processing
// the same submission id delivered twice off the intake queue (a redelivery
// after an ack timeout, a duplicate publish), using a Redis SETNX lock as
// a distributed claim that expires on its own if the claimant never
// releases it.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard claims a submission id for processing, exactly once per TTL.
type Guard struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// Connect parses rawURL (a redis:// connection string, per redis.ParseURL)
// and pings the server once to fail fast on misconfiguration.
func Connect(ctx context.Context, rawURL string, ttl time.Duration) (*Guard, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("idempotency: parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("idempotency: connecting to redis: %w", err)
	}

	return &Guard{client: client, ttl: ttl, prefix: "deposit-orchestrator:submission:"}, nil
}

// Claim reports whether submissionID has not been claimed within the
// guard's TTL, and if so, claims it. A false result means a duplicate
// delivery: the caller should ack and drop the message without
// reprocessing.
func (g *Guard) Claim(ctx context.Context, submissionID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+submissionID, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency: claiming submission %s: %w", submissionID, err)
	}

	return ok, nil
}

// Release removes submissionID's claim, so the id can be claimed again
// before its TTL expires. The intake handler in cmd/depositd does not call
// it: a claimed id stays claimed for the full TTL even when processing fails.
func (g *Guard) Release(ctx context.Context, submissionID string) error {
	if err := g.client.Del(ctx, g.prefix+submissionID).Err(); err != nil {
		return fmt.Errorf("idempotency: releasing submission %s: %w", submissionID, err)
	}

	return nil
}

// Close releases the underlying connection.
func (g *Guard) Close() error {
	return g.client.Close()
}

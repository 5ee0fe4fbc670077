// Package queue acknowledges inbound encode-job messages.
//
// The dispatcher moves each message onto {queue}:processing before
// handing it to a worker and passes the raw payload along as the receipt
// handle. Acknowledging removes it from the processing list; a message
// that is never acknowledged is re-driven by the dispatcher's reaper.
package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Client struct {
	redis  *redis.Client
	queue  string
	logger zerolog.Logger
}

func NewClient(r *redis.Client, queue string, logger zerolog.Logger) *Client {
	return &Client{
		redis:  r,
		queue:  queue,
		logger: logger.With().Str("component", "queue").Logger(),
	}
}

func (c *Client) processingList() string {
	return c.queue + ":processing"
}

// Ack deletes the message identified by receiptHandle. Called only after
// the whole pipeline has succeeded — never before, and never on failure.
func (c *Client) Ack(ctx context.Context, receiptHandle string) error {
	removed, err := c.redis.LRem(ctx, c.processingList(), 1, receiptHandle).Result()
	if err != nil {
		return fmt.Errorf("queue ack: %w", err)
	}
	if removed == 0 {
		// Visibility already reclaimed by the reaper; the job will be
		// re-driven even though this run succeeded.
		c.logger.Warn().Msg("receipt handle not found in processing list")
	}
	c.logger.Info().Int64("removed", removed).Msg("job message acknowledged")
	return nil
}

package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/romariotrain/transcode-worker/internal/storage/postgres"
)

// Outbox is the pending-event store drained before the worker exits.
type Outbox interface {
	GetPending(ctx context.Context, limit int) ([]postgres.OutboxRecord, error)
	MarkProcessed(ctx context.Context, id int64) error
}

// Publisher sends one event payload to the broker.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Drainer publishes pending outbox rows to Kafka. The worker is a
// short-lived process, so instead of a resident polling publisher it
// drains once on the way out; anything left behind is picked up by the
// platform's own publisher, which keeps delivery at-least-once.
type Drainer struct {
	outbox   Outbox
	producer Publisher
	logger   zerolog.Logger
}

func NewDrainer(outbox Outbox, producer Publisher, logger zerolog.Logger) *Drainer {
	return &Drainer{
		outbox:   outbox,
		producer: producer,
		logger:   logger.With().Str("component", "outbox_drain").Logger(),
	}
}

// Drain publishes up to limit pending events and marks the published
// ones processed. Individual publish failures are logged and skipped.
func (d *Drainer) Drain(ctx context.Context, limit int) error {
	records, err := d.outbox.GetPending(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending events: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	var published int
	for _, rec := range records {
		if err := d.producer.Publish(ctx, rec.EventID, rec.Payload); err != nil {
			d.logger.Warn().
				Err(err).
				Str("event_id", rec.EventID).
				Str("event_type", rec.EventType).
				Msg("failed to publish event, leaving for platform publisher")
			continue
		}
		published++

		if err := d.outbox.MarkProcessed(ctx, rec.ID); err != nil {
			// Published but not marked: it will go out again. Consumers
			// are idempotent on event_id.
			d.logger.Warn().
				Err(err).
				Str("event_id", rec.EventID).
				Msg("failed to mark event processed")
		}
	}

	d.logger.Info().
		Int("total", len(records)).
		Int("published", published).
		Msg("outbox drained")
	return nil
}

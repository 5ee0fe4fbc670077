// Package metadata keeps the platform's content records in sync with
// the worker's progress.
package metadata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/romariotrain/transcode-worker/internal/content"
	"github.com/romariotrain/transcode-worker/internal/events"
	"github.com/romariotrain/transcode-worker/internal/storage/postgres"
)

// Syncer applies video-status updates to the content record and records
// a status-changed event in the outbox within the same transaction.
type Syncer struct {
	contents *postgres.ContentRepo
	outbox   *postgres.OutboxRepo
	logger   zerolog.Logger
}

func NewSyncer(contents *postgres.ContentRepo, outbox *postgres.OutboxRepo, logger zerolog.Logger) *Syncer {
	return &Syncer{
		contents: contents,
		outbox:   outbox,
		logger:   logger.With().Str("component", "metadata").Logger(),
	}
}

// GetByID loads the content record. content.ErrContentNotFound means the
// record was deleted or the id is wrong; callers treat that as fatal.
func (s *Syncer) GetByID(ctx context.Context, id string) (*content.Content, error) {
	return s.contents.GetByID(ctx, id)
}

// SetVideoStatus mutates exactly the fields set in upd. When upd moves
// the status, the transition is validated (forward-only) and a
// ContentVideoStatusChanged event lands in the outbox atomically with
// the update.
func (s *Syncer) SetVideoStatus(ctx context.Context, id string, upd content.VideoUpdate) error {
	if upd.IsEmpty() {
		return content.ErrInvalidArgument
	}

	cur, err := s.contents.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if upd.Status == nil || *upd.Status == cur.VideoStatus {
		return s.contents.UpdateVideo(ctx, id, upd)
	}

	if err := content.ValidateTransition(cur.VideoStatus, *upd.Status); err != nil {
		return err
	}

	tx, err := s.contents.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.contents.UpdateVideoTx(ctx, tx, id, upd); err != nil {
		return err
	}

	var hlsKey string
	if upd.HLSKey != nil {
		hlsKey = *upd.HLSKey
	}
	event := events.NewContentVideoStatusChanged(id, cur.VideoStatus, *upd.Status, hlsKey)

	if err := s.outbox.Add(ctx, tx, event); err != nil {
		return fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info().
		Str("content_id", id).
		Str("from", string(cur.VideoStatus)).
		Str("to", string(*upd.Status)).
		Msg("video status updated")
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/romariotrain/transcode-worker/internal/content"
)

type ContentRepo struct {
	db *sqlx.DB
}

func NewContentRepo(db *sqlx.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

func (r *ContentRepo) GetByID(ctx context.Context, id string) (*content.Content, error) {
	const q = `
		SELECT id, video_status, video_hls_key, video_duration, updated_at
		FROM lesson_contents
		WHERE id = $1
	`

	var c content.Content
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, content.ErrContentNotFound
		}
		return nil, fmt.Errorf("content get by id: %w", err)
	}

	return &c, nil
}

// UpdateVideo applies upd to the record. Only set fields are written; a
// set-but-zero value (duration 0) is still written. Zero matched rows is
// content.ErrContentNotFound — the record is owned by the platform and
// must already exist.
func (r *ContentRepo) UpdateVideo(ctx context.Context, id string, upd content.VideoUpdate) error {
	return r.updateVideo(ctx, r.db, id, upd)
}

// UpdateVideoTx is UpdateVideo inside an existing transaction.
func (r *ContentRepo) UpdateVideoTx(ctx context.Context, tx *sqlx.Tx, id string, upd content.VideoUpdate) error {
	return r.updateVideo(ctx, tx, id, upd)
}

func (r *ContentRepo) updateVideo(ctx context.Context, ex sqlx.ExtContext, id string, upd content.VideoUpdate) error {
	if upd.IsEmpty() {
		return content.ErrInvalidArgument
	}

	set, args := buildVideoSet(upd)
	args = append([]interface{}{id}, args...)

	q := fmt.Sprintf(`UPDATE lesson_contents SET %s, updated_at = NOW() WHERE id = $1`, set)

	res, err := ex.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("content update video: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("content update video: rows affected: %w", err)
	}
	if n == 0 {
		return content.ErrContentNotFound
	}

	return nil
}

// buildVideoSet renders the SET clause for the fields present in upd.
// Placeholders start at $2; $1 is the record id.
func buildVideoSet(upd content.VideoUpdate) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)

	next := 2
	add := func(column string, value interface{}) {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, next))
		args = append(args, value)
		next++
	}

	if upd.Status != nil {
		add("video_status", *upd.Status)
	}
	if upd.HLSKey != nil {
		add("video_hls_key", *upd.HLSKey)
	}
	if upd.Duration != nil {
		add("video_duration", *upd.Duration)
	}

	return strings.Join(clauses, ", "), args
}

func (r *ContentRepo) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

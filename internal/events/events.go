package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/transcode-worker/internal/content"
)

// DomainEvent is what the outbox persists and the platform consumes.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// ContentVideoStatusChanged is emitted when the worker moves a content
// record's video status, so the platform can invalidate caches and
// notify course authors without polling.
type ContentVideoStatusChanged struct {
	eventID    uuid.UUID
	contentID  string
	from       content.VideoStatus
	to         content.VideoStatus
	hlsKey     string
	occurredAt time.Time
}

func NewContentVideoStatusChanged(contentID string, from, to content.VideoStatus, hlsKey string) *ContentVideoStatusChanged {
	return &ContentVideoStatusChanged{
		eventID:    uuid.New(),
		contentID:  contentID,
		from:       from,
		to:         to,
		hlsKey:     hlsKey,
		occurredAt: time.Now(),
	}
}

func (e *ContentVideoStatusChanged) EventID() uuid.UUID   { return e.eventID }
func (e *ContentVideoStatusChanged) EventType() string    { return "ContentVideoStatusChanged" }
func (e *ContentVideoStatusChanged) AggregateID() string  { return e.contentID }
func (e *ContentVideoStatusChanged) OccurredAt() time.Time { return e.occurredAt }

func (e *ContentVideoStatusChanged) From() content.VideoStatus { return e.from }
func (e *ContentVideoStatusChanged) To() content.VideoStatus   { return e.to }

func (e *ContentVideoStatusChanged) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID           `json:"event_id"`
		ContentID  string              `json:"content_id"`
		From       content.VideoStatus `json:"from"`
		To         content.VideoStatus `json:"to"`
		HLSKey     string              `json:"hls_key,omitempty"`
		OccurredAt time.Time           `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		ContentID:  e.contentID,
		From:       e.from,
		To:         e.to,
		HLSKey:     e.hlsKey,
		OccurredAt: e.occurredAt,
	})
}

package content

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrContentNotFound = errors.New("content not found")
	ErrInvalidArgument = errors.New("invalid arguments")
)

type VideoStatus string

const (
	VideoUploaded   VideoStatus = "UPLOADED"
	VideoProcessing VideoStatus = "PROCESSING"
	VideoReady      VideoStatus = "READY"
	VideoFailed     VideoStatus = "FAILED"
)

// Content is the lesson-content record owned by the platform. The worker
// only ever mutates the video fields of an existing record; a missing
// record is a data-integrity failure, never something to create here.
type Content struct {
	ID            string      `db:"id"`
	VideoStatus   VideoStatus `db:"video_status"`
	VideoHLSKey   *string     `db:"video_hls_key"`
	VideoDuration *int        `db:"video_duration"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

// CanTransition reports whether a video status move is allowed. Statuses
// only travel forward: UPLOADED -> PROCESSING -> READY|FAILED.
func CanTransition(from, to VideoStatus) bool {
	switch from {
	case VideoUploaded:
		return to == VideoProcessing || to == VideoFailed
	case VideoProcessing:
		return to == VideoReady || to == VideoFailed
	case VideoReady:
		return false
	case VideoFailed:
		return false
	default:
		return false
	}
}

func ValidateTransition(from, to VideoStatus) error {
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid video status transition: %s -> %s", from, to)
	}
	return nil
}

// VideoUpdate mutates only the fields that are set. A nil pointer means
// "leave untouched"; a non-nil pointer to a zero value is still written.
// This replaces the original's runtime presence checks with a type-level
// distinction.
type VideoUpdate struct {
	Status   *VideoStatus
	HLSKey   *string
	Duration *int
}

// IsEmpty reports whether the update would touch nothing.
func (u VideoUpdate) IsEmpty() bool {
	return u.Status == nil && u.HLSKey == nil && u.Duration == nil
}

func StatusUpdate(s VideoStatus) VideoUpdate {
	return VideoUpdate{Status: &s}
}

func ReadyUpdate(hlsKey string, duration int) VideoUpdate {
	s := VideoReady
	return VideoUpdate{Status: &s, HLSKey: &hlsKey, Duration: &duration}
}

package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/romariotrain/transcode-worker/internal/content"
	"github.com/romariotrain/transcode-worker/internal/job"
	"github.com/romariotrain/transcode-worker/internal/lease"
	"github.com/romariotrain/transcode-worker/internal/transcode"
)

// ContentStore syncs the platform's content record.
type ContentStore interface {
	GetByID(ctx context.Context, id string) (*content.Content, error)
	SetVideoStatus(ctx context.Context, id string, upd content.VideoUpdate) error
}

// LeaseManager owns the distributed lock for the job.
type LeaseManager interface {
	Acquire(ctx context.Context, id string) error
	StartHeartbeat(ctx context.Context, id string) (stop func())
	MarkTerminal(ctx context.Context, id string, status lease.Status) error
}

// Transfer moves media between object storage and local scratch space.
type Transfer interface {
	Download(ctx context.Context, bucket, key, localPath string) error
	UploadDirectory(ctx context.Context, localDir, bucket, keyPrefix string) error
	DeleteObject(ctx context.Context, bucket, key string) error
}

// Encoder produces the HLS package for a downloaded source.
type Encoder interface {
	Run(ctx context.Context, input, outDir string) (transcode.Result, error)
}

// Queue acknowledges the inbound job message.
type Queue interface {
	Ack(ctx context.Context, receiptHandle string) error
}

// EventDrainer flushes pending domain events; optional.
type EventDrainer interface {
	Drain(ctx context.Context, limit int) error
}

// Params wires a Worker. Every dependency is constructed once at process
// start and passed in; the worker holds no global state.
type Params struct {
	Job           job.Descriptor
	Environment   string
	ReceiptHandle string
	ScratchDir    string

	Contents ContentStore
	Leases   LeaseManager
	Transfer Transfer
	Encoder  Encoder
	Queue    Queue
	Drainer  EventDrainer // may be nil
	Logger   zerolog.Logger
}

// Worker runs exactly one encode job from claim to acknowledgment.
type Worker struct {
	p      Params
	logger zerolog.Logger
}

func New(p Params) *Worker {
	return &Worker{
		p:      p,
		logger: p.Logger.With().Str("component", "worker").Str("content_id", p.Job.ContentID).Logger(),
	}
}

// Run executes the pipeline. The control flow is strictly linear; the
// heartbeat is the only concurrent piece and it is stopped on every exit
// path. Any step failure funnels through fail, which leaves the job
// marked FAILED and the queue message unacknowledged so the dispatcher
// can redrive it.
func (w *Worker) Run(ctx context.Context) error {
	d := w.p.Job

	if _, err := w.p.Contents.GetByID(ctx, d.ContentID); err != nil {
		// Record missing means data corruption, not a transient fault.
		return w.fail(ctx, nil, fmt.Errorf("load content record: %w", err))
	}

	if err := w.p.Contents.SetVideoStatus(ctx, d.ContentID, content.StatusUpdate(content.VideoProcessing)); err != nil {
		return w.fail(ctx, nil, fmt.Errorf("mark processing: %w", err))
	}

	if err := w.p.Leases.Acquire(ctx, d.ContentID); err != nil {
		return w.fail(ctx, nil, fmt.Errorf("acquire lease: %w", err))
	}
	stopHeartbeat := w.p.Leases.StartHeartbeat(ctx, d.ContentID)

	scratch := filepath.Join(w.p.ScratchDir, d.ContentID)
	sourcePath := filepath.Join(scratch, "source"+filepath.Ext(d.SourceKey))
	outDir := filepath.Join(scratch, "hls")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return w.fail(ctx, stopHeartbeat, fmt.Errorf("create scratch dir: %w", err))
	}

	if err := w.p.Transfer.Download(ctx, d.SourceBucket, d.SourceKey, sourcePath); err != nil {
		return w.fail(ctx, stopHeartbeat, fmt.Errorf("download source: %w", err))
	}

	res, err := w.p.Encoder.Run(ctx, sourcePath, outDir)
	if err != nil {
		return w.fail(ctx, stopHeartbeat, fmt.Errorf("encode: %w", err))
	}

	prefix := d.OutputPrefix(w.p.Environment)
	if err := w.p.Transfer.UploadDirectory(ctx, outDir, d.DestinationBucket, prefix); err != nil {
		return w.fail(ctx, stopHeartbeat, fmt.Errorf("upload output: %w", err))
	}

	masterKey := d.MasterKey(w.p.Environment)
	if err := w.p.Contents.SetVideoStatus(ctx, d.ContentID, content.ReadyUpdate(masterKey, res.Duration)); err != nil {
		return w.fail(ctx, stopHeartbeat, fmt.Errorf("mark ready: %w", err))
	}

	// Source cleanup is an optimization, never a reason to fail the job.
	if err := w.p.Transfer.DeleteObject(ctx, d.SourceBucket, d.SourceKey); err != nil {
		w.logger.Warn().Err(err).Msg("failed to delete source object")
	}

	if err := w.p.Leases.MarkTerminal(ctx, d.ContentID, lease.StatusDone); err != nil {
		return w.fail(ctx, stopHeartbeat, fmt.Errorf("mark lease done: %w", err))
	}

	w.drainEvents(ctx)

	if err := w.p.Queue.Ack(ctx, w.p.ReceiptHandle); err != nil {
		return w.fail(ctx, stopHeartbeat, fmt.Errorf("ack message: %w", err))
	}

	stopHeartbeat()

	w.logger.Info().
		Str("hls_key", masterKey).
		Int("duration_s", res.Duration).
		Msg("job complete")
	return nil
}

// fail is the single failure handler: stop the heartbeat, then
// best-effort mark the job FAILED in the metadata store and the lease
// table. Each cleanup step is guarded on its own so one failure cannot
// shadow the next.
func (w *Worker) fail(ctx context.Context, stopHeartbeat func(), cause error) error {
	w.logger.Error().Err(cause).Msg("job failed")

	if stopHeartbeat != nil {
		stopHeartbeat()
	}

	// The inbound ctx may already be canceled; cleanup still has to run.
	cleanupCtx := context.WithoutCancel(ctx)

	if err := w.p.Contents.SetVideoStatus(cleanupCtx, w.p.Job.ContentID, content.StatusUpdate(content.VideoFailed)); err != nil {
		w.logger.Warn().Err(err).Msg("failed to mark content failed")
	}

	if err := w.p.Leases.MarkTerminal(cleanupCtx, w.p.Job.ContentID, lease.StatusFailed); err != nil {
		w.logger.Warn().Err(err).Msg("failed to mark lease failed")
	}

	w.drainEvents(cleanupCtx)

	// The message stays on the queue; redrive policy belongs to the
	// dispatcher, not this worker.
	return cause
}

func (w *Worker) drainEvents(ctx context.Context) {
	if w.p.Drainer == nil {
		return
	}
	if err := w.p.Drainer.Drain(ctx, 100); err != nil {
		w.logger.Warn().Err(err).Msg("failed to drain outbox")
	}
}

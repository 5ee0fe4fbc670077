package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/transcode-worker/internal/content"
	"github.com/romariotrain/transcode-worker/internal/job"
	"github.com/romariotrain/transcode-worker/internal/lease"
	"github.com/romariotrain/transcode-worker/internal/transcode"
)

type fixture struct {
	contents *ContentStoreMock
	leases   *LeaseManagerMock
	transfer *TransferMock
	encoder  *EncoderMock
	queue    *QueueMock
	worker   *Worker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	d, err := job.Parse("uploads/courses/c1/lessons/l1/lesson-contents/abc123/source-v2.mp4")
	require.NoError(t, err)
	d.SourceBucket = "uploads"
	d.DestinationBucket = "streams"

	f := &fixture{
		contents: new(ContentStoreMock),
		leases:   new(LeaseManagerMock),
		transfer: new(TransferMock),
		encoder:  new(EncoderMock),
		queue:    new(QueueMock),
	}
	f.worker = New(Params{
		Job:           d,
		Environment:   "production",
		ReceiptHandle: "receipt-1",
		ScratchDir:    t.TempDir(),
		Contents:      f.contents,
		Leases:        f.leases,
		Transfer:      f.transfer,
		Encoder:       f.encoder,
		Queue:         f.queue,
		Logger:        zerolog.Nop(),
	})
	return f
}

func statusUpdate(s content.VideoStatus) interface{} {
	return mock.MatchedBy(func(u content.VideoUpdate) bool {
		return u.Status != nil && *u.Status == s && u.HLSKey == nil && u.Duration == nil
	})
}

func TestRun_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const masterKey = "production/public/courses/c1/lessons/l1/lesson-contents/abc123/hls/v2/master.m3u8"

	f.contents.On("GetByID", mock.Anything, "abc123").
		Return(&content.Content{ID: "abc123", VideoStatus: content.VideoUploaded}, nil).Once()
	f.contents.On("SetVideoStatus", mock.Anything, "abc123", statusUpdate(content.VideoProcessing)).
		Return(nil).Once()
	f.leases.On("Acquire", mock.Anything, "abc123").Return(nil).Once()
	f.leases.On("StartHeartbeat", mock.Anything, "abc123").Once()
	f.transfer.On("Download", mock.Anything, "uploads",
		"uploads/courses/c1/lessons/l1/lesson-contents/abc123/source-v2.mp4", mock.Anything).
		Return(nil).Once()
	f.encoder.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(transcode.Result{HasAudio: true, Duration: 10}, nil).Once()
	f.transfer.On("UploadDirectory", mock.Anything, mock.Anything, "streams",
		"production/public/courses/c1/lessons/l1/lesson-contents/abc123/hls/v2").
		Return(nil).Once()
	f.contents.On("SetVideoStatus", mock.Anything, "abc123", mock.MatchedBy(func(u content.VideoUpdate) bool {
		return u.Status != nil && *u.Status == content.VideoReady &&
			u.HLSKey != nil && *u.HLSKey == masterKey &&
			u.Duration != nil && *u.Duration == 10
	})).Return(nil).Once()
	f.transfer.On("DeleteObject", mock.Anything, "uploads", mock.Anything).Return(nil).Once()
	f.leases.On("MarkTerminal", mock.Anything, "abc123", lease.StatusDone).Return(nil).Once()
	f.queue.On("Ack", mock.Anything, "receipt-1").Return(nil).Once()

	err := f.worker.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, f.leases.stopCalls, "heartbeat stopped exactly once")
	f.contents.AssertExpectations(t)
	f.leases.AssertExpectations(t)
	f.transfer.AssertExpectations(t)
	f.encoder.AssertExpectations(t)
	f.queue.AssertExpectations(t)
}

func TestRun_EncoderFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.contents.On("GetByID", mock.Anything, "abc123").
		Return(&content.Content{ID: "abc123", VideoStatus: content.VideoUploaded}, nil).Once()
	f.contents.On("SetVideoStatus", mock.Anything, "abc123", statusUpdate(content.VideoProcessing)).
		Return(nil).Once()
	f.leases.On("Acquire", mock.Anything, "abc123").Return(nil).Once()
	f.leases.On("StartHeartbeat", mock.Anything, "abc123").Once()
	f.transfer.On("Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()
	f.encoder.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(transcode.Result{}, transcode.ErrEncodeFailed).Once()

	// Failure handler: both systems marked FAILED, message left in queue.
	f.contents.On("SetVideoStatus", mock.Anything, "abc123", statusUpdate(content.VideoFailed)).
		Return(nil).Once()
	f.leases.On("MarkTerminal", mock.Anything, "abc123", lease.StatusFailed).Return(nil).Once()

	err := f.worker.Run(ctx)
	require.ErrorIs(t, err, transcode.ErrEncodeFailed)

	assert.Equal(t, 1, f.leases.stopCalls, "heartbeat stopped on the failure path")
	f.queue.AssertNotCalled(t, "Ack", mock.Anything, mock.Anything)
	f.transfer.AssertNotCalled(t, "UploadDirectory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.contents.AssertExpectations(t)
	f.leases.AssertExpectations(t)
}

func TestRun_MissingContentRecordIsFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.contents.On("GetByID", mock.Anything, "abc123").
		Return(nil, content.ErrContentNotFound).Once()

	// Best-effort cleanup still runs.
	f.contents.On("SetVideoStatus", mock.Anything, "abc123", statusUpdate(content.VideoFailed)).
		Return(content.ErrContentNotFound).Once()
	f.leases.On("MarkTerminal", mock.Anything, "abc123", lease.StatusFailed).Return(nil).Once()

	err := f.worker.Run(ctx)
	require.ErrorIs(t, err, content.ErrContentNotFound)

	f.transfer.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.leases.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything)
}

func TestRun_SourceDeleteFailureDoesNotFailJob(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.contents.On("GetByID", mock.Anything, "abc123").
		Return(&content.Content{ID: "abc123", VideoStatus: content.VideoUploaded}, nil).Once()
	f.contents.On("SetVideoStatus", mock.Anything, "abc123", mock.Anything).Return(nil).Twice()
	f.leases.On("Acquire", mock.Anything, "abc123").Return(nil).Once()
	f.leases.On("StartHeartbeat", mock.Anything, "abc123").Once()
	f.transfer.On("Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.encoder.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(transcode.Result{Duration: 10}, nil).Once()
	f.transfer.On("UploadDirectory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.transfer.On("DeleteObject", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("permission denied")).Once()
	f.leases.On("MarkTerminal", mock.Anything, "abc123", lease.StatusDone).Return(nil).Once()
	f.queue.On("Ack", mock.Anything, "receipt-1").Return(nil).Once()

	err := f.worker.Run(ctx)
	require.NoError(t, err)
}

func TestRun_AckFailureFunnelsToFailureHandler(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ackErr := errors.New("queue unreachable")

	f.contents.On("GetByID", mock.Anything, "abc123").
		Return(&content.Content{ID: "abc123", VideoStatus: content.VideoUploaded}, nil).Once()
	f.contents.On("SetVideoStatus", mock.Anything, "abc123", statusUpdate(content.VideoProcessing)).Return(nil).Once()
	f.leases.On("Acquire", mock.Anything, "abc123").Return(nil).Once()
	f.leases.On("StartHeartbeat", mock.Anything, "abc123").Once()
	f.transfer.On("Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.encoder.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(transcode.Result{Duration: 10}, nil).Once()
	f.transfer.On("UploadDirectory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.contents.On("SetVideoStatus", mock.Anything, "abc123", mock.Anything).Return(nil)
	f.transfer.On("DeleteObject", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.leases.On("MarkTerminal", mock.Anything, "abc123", lease.StatusDone).Return(nil).Once()
	f.queue.On("Ack", mock.Anything, "receipt-1").Return(ackErr).Once()
	f.leases.On("MarkTerminal", mock.Anything, "abc123", lease.StatusFailed).Return(nil).Once()

	err := f.worker.Run(ctx)
	require.ErrorIs(t, err, ackErr)
	assert.Equal(t, 1, f.leases.stopCalls)
}

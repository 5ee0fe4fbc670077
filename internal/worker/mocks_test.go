package worker

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/transcode-worker/internal/content"
	"github.com/romariotrain/transcode-worker/internal/lease"
	"github.com/romariotrain/transcode-worker/internal/transcode"
)

type ContentStoreMock struct {
	mock.Mock
}

func (m *ContentStoreMock) GetByID(ctx context.Context, id string) (*content.Content, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*content.Content), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContentStoreMock) SetVideoStatus(ctx context.Context, id string, upd content.VideoUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

type LeaseManagerMock struct {
	mock.Mock

	stopCalls int
}

func (m *LeaseManagerMock) Acquire(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *LeaseManagerMock) StartHeartbeat(ctx context.Context, id string) func() {
	m.Called(ctx, id)
	return func() { m.stopCalls++ }
}

func (m *LeaseManagerMock) MarkTerminal(ctx context.Context, id string, status lease.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type TransferMock struct {
	mock.Mock
}

func (m *TransferMock) Download(ctx context.Context, bucket, key, localPath string) error {
	args := m.Called(ctx, bucket, key, localPath)
	return args.Error(0)
}

func (m *TransferMock) UploadDirectory(ctx context.Context, localDir, bucket, keyPrefix string) error {
	args := m.Called(ctx, localDir, bucket, keyPrefix)
	return args.Error(0)
}

func (m *TransferMock) DeleteObject(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

type EncoderMock struct {
	mock.Mock
}

func (m *EncoderMock) Run(ctx context.Context, input, outDir string) (transcode.Result, error) {
	args := m.Called(ctx, input, outDir)
	return args.Get(0).(transcode.Result), args.Error(1)
}

type QueueMock struct {
	mock.Mock
}

func (m *QueueMock) Ack(ctx context.Context, receiptHandle string) error {
	args := m.Called(ctx, receiptHandle)
	return args.Error(0)
}

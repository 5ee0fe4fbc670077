package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/romariotrain/transcode-worker/internal/content"
)

func TestBuildVideoSet_AllFields(t *testing.T) {
	set, args := buildVideoSet(content.ReadyUpdate("prefix/master.m3u8", 10))

	assert.Equal(t, "video_status = $2, video_hls_key = $3, video_duration = $4", set)
	assert.Equal(t, []interface{}{content.VideoReady, "prefix/master.m3u8", 10}, args)
}

func TestBuildVideoSet_StatusOnly(t *testing.T) {
	set, args := buildVideoSet(content.StatusUpdate(content.VideoProcessing))

	assert.Equal(t, "video_status = $2", set)
	assert.Equal(t, []interface{}{content.VideoProcessing}, args)
}

func TestBuildVideoSet_ZeroDurationIsWritten(t *testing.T) {
	// Present-but-zero must be written, not skipped.
	set, args := buildVideoSet(content.ReadyUpdate("k", 0))

	assert.Contains(t, set, "video_duration = $4")
	assert.Equal(t, 0, args[2])
}

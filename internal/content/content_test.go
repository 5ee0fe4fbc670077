package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		from, to VideoStatus
		ok       bool
	}{
		{VideoUploaded, VideoProcessing, true},
		{VideoUploaded, VideoFailed, true},
		{VideoProcessing, VideoReady, true},
		{VideoProcessing, VideoFailed, true},
		{VideoReady, VideoProcessing, false},
		{VideoFailed, VideoProcessing, false},
		{VideoUploaded, VideoReady, false},
		{VideoProcessing, VideoProcessing, true}, // self-transition is a no-op
	}

	for _, tc := range cases {
		err := ValidateTransition(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.Error(t, err, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestVideoUpdate_ZeroDurationIsStillSet(t *testing.T) {
	u := ReadyUpdate("prefix/master.m3u8", 0)

	require.NotNil(t, u.Duration)
	assert.Equal(t, 0, *u.Duration)
	assert.False(t, u.IsEmpty())
}

func TestVideoUpdate_Empty(t *testing.T) {
	assert.True(t, VideoUpdate{}.IsEmpty())
	assert.False(t, StatusUpdate(VideoProcessing).IsEmpty())
}

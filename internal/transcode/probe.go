package transcode

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeResult is the parsed ffprobe output for a source file.
type ProbeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// HasAudio reports whether the source carries at least one audio stream.
// This single boolean gates the whole stream-map construction.
func (r ProbeResult) HasAudio() bool {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			return true
		}
	}
	return false
}

// DurationSeconds returns the container duration rounded down to whole
// seconds, or 0 when ffprobe did not report one.
func (r ProbeResult) DurationSeconds() int {
	f, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

// Probe runs ffprobe against path and decodes its JSON report.
func Probe(ctx context.Context, binary, path string) (ProbeResult, error) {
	if binary == "" {
		binary = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseProbe(out)
}

func parseProbe(data []byte) (ProbeResult, error) {
	var r ProbeResult
	if err := json.Unmarshal(data, &r); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return r, nil
}

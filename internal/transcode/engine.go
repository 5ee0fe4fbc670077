package transcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/romariotrain/transcode-worker/internal/hls"
)

var ErrEncodeFailed = errors.New("encode failed")

// Engine probes a source file and supervises the ffmpeg subprocess that
// produces the HLS package.
type Engine struct {
	ffmpegPath  string
	ffprobePath string
	ladder      []hls.Profile
	opts        hls.Options
	logger      zerolog.Logger
}

// Result describes a finished encode.
type Result struct {
	HasAudio bool
	Duration int // whole seconds
}

func NewEngine(ffmpegPath, ffprobePath string, ladder []hls.Profile, opts hls.Options, logger zerolog.Logger) *Engine {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Engine{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		ladder:      ladder,
		opts:        opts,
		logger:      logger.With().Str("component", "transcode_engine").Logger(),
	}
}

// Run probes input, then encodes the full ladder into outDir: one
// subdirectory with playlist and segments per rendition, plus the master
// manifest at the root. Encoder diagnostics are streamed to the log, not
// buffered. A non-zero encoder exit maps to ErrEncodeFailed with the
// exit code attached.
func (e *Engine) Run(ctx context.Context, input, outDir string) (Result, error) {
	probe, err := Probe(ctx, e.ffprobePath, input)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		HasAudio: probe.HasAudio(),
		Duration: probe.DurationSeconds(),
	}

	for _, p := range e.ladder {
		if err := os.MkdirAll(filepath.Join(outDir, p.Name), 0o755); err != nil {
			return Result{}, fmt.Errorf("create rendition dir: %w", err)
		}
	}

	args := hls.BuildArgs(input, outDir, e.ladder, res.HasAudio, e.opts)

	e.logger.Info().
		Bool("has_audio", res.HasAudio).
		Int("duration_s", res.Duration).
		Int("renditions", len(e.ladder)).
		Msg("starting encode")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("ffmpeg start: %w", err)
	}

	e.streamDiagnostics(stderr)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("%w: exit code %d", ErrEncodeFailed, exitErr.ExitCode())
		}
		return Result{}, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}

	e.logger.Info().Msg("encode complete")
	return res, nil
}

// streamDiagnostics forwards encoder output line by line. ffmpeg rewrites
// its progress line constantly; those are dropped to keep the log usable.
func (e *Engine) streamDiagnostics(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "frame=") {
			continue
		}
		e.logger.Debug().Str("ffmpeg", line).Msg("encoder output")
	}
}

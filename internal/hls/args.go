package hls

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SegmentSeconds is the HLS segment duration. The GOP flags below force a
// closed keyframe on every segment boundary; bitrate switching breaks if
// segments do not start on a keyframe.
const SegmentSeconds = 4

// Options tunes the per-rendition video filter chain.
type Options struct {
	Denoise bool
	Sharpen bool
}

// BuildArgs constructs the complete ffmpeg argument list for a
// multi-rendition HLS encode of input into outDir.
//
// Each ladder profile becomes a scaled output stream v{i} with indexed
// rate-control flags. Audio, when present, is encoded once and paired
// only with the first rendition in the -var_stream_map; with no audio
// track the map carries no audio entries at all instead of producing a
// silent or failing encode.
func BuildArgs(input, outDir string, ladder []Profile, hasAudio bool, opts Options) []string {
	args := []string{
		"-hide_banner", "-y",
		"-i", input,
		"-filter_complex", filterGraph(ladder, opts),
		"-preset", "veryfast",
	}

	for i, p := range ladder {
		args = append(args,
			"-map", fmt.Sprintf("[v%d]", i),
			fmt.Sprintf("-c:v:%d", i), "libx264",
			fmt.Sprintf("-b:v:%d", i), p.Bitrate,
			fmt.Sprintf("-maxrate:v:%d", i), p.Maxrate,
			fmt.Sprintf("-bufsize:v:%d", i), p.Bufsize,
			fmt.Sprintf("-level:v:%d", i), p.Level,
		)
	}

	if hasAudio {
		args = append(args,
			"-map", "a:0",
			"-c:a", "aac",
			"-b:a", "128k",
			"-ac", "2",
		)
	}

	args = append(args,
		"-g", "48",
		"-keyint_min", "48",
		"-sc_threshold", "0",
		"-flags", "+cgop",
		"-force_key_frames", fmt.Sprintf("expr:gte(t,n_forced*%d)", SegmentSeconds),
		"-f", "hls",
		"-hls_time", fmt.Sprintf("%d", SegmentSeconds),
		"-hls_playlist_type", "vod",
		"-master_pl_name", "master.m3u8",
		"-var_stream_map", StreamMap(ladder, hasAudio),
		"-hls_segment_filename", filepath.Join(outDir, "%v", "segment_%03d.ts"),
		filepath.Join(outDir, "%v", "index.m3u8"),
	)

	return args
}

// StreamMap builds the -var_stream_map value. The %v placeholder in the
// output paths expands to each entry's name.
func StreamMap(ladder []Profile, hasAudio bool) string {
	entries := make([]string, 0, len(ladder))
	for i, p := range ladder {
		parts := []string{fmt.Sprintf("v:%d", i)}
		if hasAudio && i == 0 {
			parts = append(parts, "a:0")
		}
		parts = append(parts, "name:"+p.Name)
		entries = append(entries, strings.Join(parts, ","))
	}
	return strings.Join(entries, " ")
}

func filterGraph(ladder []Profile, opts Options) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[0:v]split=%d", len(ladder)))
	for i := range ladder {
		b.WriteString(fmt.Sprintf("[s%d]", i))
	}

	for i, p := range ladder {
		// h=-2 keeps the aspect ratio and an even height, which libx264 requires.
		b.WriteString(fmt.Sprintf(";[s%d]scale=w=%d:h=-2", i, p.Width))
		if opts.Denoise {
			b.WriteString(",hqdn3d=1.5:1.5:6:6")
		}
		if opts.Sharpen {
			b.WriteString(",unsharp=5:5:0.8:3:3:0.4")
		}
		b.WriteString(fmt.Sprintf("[v%d]", i))
	}

	return b.String()
}

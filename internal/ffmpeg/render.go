package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/kikiluvv/vibecut/pkg/util"
)

// RenderEdit encodes the segments of opts into a single output file. It
// returns the segments that were actually rendered.
func (e *Executor) RenderEdit(ctx context.Context, opts EditOptions) (Graph, error) {
	args, graph, err := EditArgs(opts, e.preset)
	if err != nil {
		return Graph{}, fmt.Errorf("invalid edit: %w", err)
	}

	if err := util.EnsureDir(filepath.Dir(opts.Output)); err != nil {
		return Graph{}, fmt.Errorf("create output dir: %w", err)
	}

	e.logger.Info().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Int("segments", len(graph.Segments)).
		Bool("vertical", opts.Vertical).
		Msg("starting edit render")

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("render output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		util.CleanupFiles(opts.Output)
		return Graph{}, fmt.Errorf("render failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("edit render completed")
	return graph, nil
}

// EditArgs builds the ffmpeg arguments for an edit without running it.
func EditArgs(opts EditOptions, preset string) ([]string, Graph, error) {
	if err := validateEditOptions(opts); err != nil {
		return nil, Graph{}, err
	}

	graph, err := SegmentGraph(opts)
	if err != nil {
		return nil, Graph{}, err
	}

	if preset == "" {
		preset = DefaultPreset
	}
	bitrate := LandscapeBitrate
	if opts.Vertical {
		bitrate = VerticalBitrate
	}

	args := []string{
		"-i", opts.Input,
		"-filter_complex", graph.Filter,
		"-map", graph.VideoOut,
	}
	if graph.AudioOut != "" {
		args = append(args, "-map", graph.AudioOut)
	}

	args = append(args,
		"-c:v", DefaultVideoCodec,
		"-preset", preset,
		"-b:v", bitrate,
		"-r", strconv.Itoa(DefaultFPS),
		"-pix_fmt", "yuv420p",
	)
	if graph.AudioOut != "" {
		args = append(args, "-c:a", DefaultAudioCodec, "-b:a", DefaultAudioBitrate)
	}
	args = append(args, "-movflags", "+faststart", opts.Output)

	return args, graph, nil
}

// validateEditOptions validates the edit options
func validateEditOptions(opts EditOptions) error {
	if opts.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.Input == opts.Output {
		return fmt.Errorf("output would overwrite the input")
	}
	if opts.SourceDuration < 0 {
		return fmt.Errorf("source duration cannot be negative")
	}
	if opts.Subtitles != "" {
		if _, err := os.Stat(opts.Subtitles); err != nil {
			return fmt.Errorf("subtitles: %w", err)
		}
	}
	return nil
}

// escapeSubtitlePath escapes the subtitle file path for ffmpeg filters
func escapeSubtitlePath(path string) string {
	// Convert to absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	// Windows: Convert backslashes to forward slashes
	if runtime.GOOS == "windows" {
		absPath = strings.ReplaceAll(absPath, "\\", "/")
	}

	// Escape special characters for ffmpeg filter
	escaped := strings.ReplaceAll(absPath, ":", "\\:")
	escaped = strings.ReplaceAll(escaped, "'", "\\'")

	return escaped
}

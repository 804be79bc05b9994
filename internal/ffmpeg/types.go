package ffmpeg

import (
	"errors"
	"time"

	"github.com/kikiluvv/vibecut/internal/pacing"
)

// ErrNoSegments is returned when an edit has nothing left to render.
var ErrNoSegments = errors.New("edit has no renderable segments")

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath     string
	Duration     time.Duration
	Width        int
	Height       int
	FPS          float64
	Bitrate      int64
	VideoCodec   string
	HasAudio     bool
	AudioCodec   string
	AudioBitrate int64
}

// Seconds returns the duration in seconds.
func (v *VideoInfo) Seconds() float64 {
	return v.Duration.Seconds()
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame      int
	FPS        float64
	Bitrate    string
	Time       string
	Speed      string
	Percentage float64
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// Default encoding settings
const (
	DefaultPreset       = "medium"
	DefaultVideoCodec   = "libx264"
	DefaultAudioCodec   = "aac"
	DefaultFPS          = 30
	DefaultAudioBitrate = "128k"
	VerticalBitrate     = "8M"
	LandscapeBitrate    = "10M"
	VerticalWidth       = 1080
	VerticalHeight      = 1920
	// LandscapeWidth and LandscapeHeight are the output size when the source
	// size is unknown.
	LandscapeWidth  = 1920
	LandscapeHeight = 1080
	// FallbackSeconds is how much of the source plays when an edit keeps
	// nothing.
	FallbackSeconds = 20
)

// EditOptions describes one rendered edit: the source, the segments in
// play order (hook first) and the output format.
type EditOptions struct {
	Input    string
	Output   string
	Segments []pacing.Segment
	// SourceDuration bounds the segments and enables the fallback clip.
	SourceDuration float64
	HasAudio       bool
	Vertical       bool
	// Width and Height are the source frame size; a landscape edit keeps it.
	Width  int
	Height int
	// Subtitles is an optional .srt/.ass file burned over the edit.
	Subtitles    string
	ProgressFunc ProgressFunc
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
type ProgressFunc func(*Progress)

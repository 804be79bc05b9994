package ffmpeg

import (
	"fmt"
	"math"
	"strings"

	"github.com/kikiluvv/vibecut/internal/pacing"
	"github.com/kikiluvv/vibecut/pkg/util"
)

// FilterBuilder helps construct one linear ffmpeg filter chain
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// Trim cuts [start, end) of the source and resets timestamps.
func (fb *FilterBuilder) Trim(start, end float64) *FilterBuilder {
	fb.filters = append(fb.filters, fmt.Sprintf("trim=start=%s:end=%s", util.FormatDecimal(start), util.FormatDecimal(end)))
	return fb
}

// Speed retimes video. Speeds at or below 1 leave timestamps alone.
func (fb *FilterBuilder) Speed(speed float64) *FilterBuilder {
	if speed <= 1 {
		fb.filters = append(fb.filters, "setpts=PTS-STARTPTS")
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("setpts=(PTS-STARTPTS)/%s", util.FormatDecimal(speed)))
	return fb
}

// ATrim is Trim for audio.
func (fb *FilterBuilder) ATrim(start, end float64) *FilterBuilder {
	fb.filters = append(fb.filters,
		fmt.Sprintf("atrim=start=%s:end=%s", util.FormatDecimal(start), util.FormatDecimal(end)),
		"asetpts=PTS-STARTPTS")
	return fb
}

// ATempo retimes audio without changing pitch.
func (fb *FilterBuilder) ATempo(speed float64) *FilterBuilder {
	if speed <= 1 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("atempo=%s", util.FormatDecimal(speed)))
	return fb
}

// Zoom punches in by factor around the centre and scales back to exactly
// width x height, so zoomed and plain segments concatenate.
func (fb *FilterBuilder) Zoom(factor float64, width, height int) *FilterBuilder {
	if factor <= 1 || width <= 0 || height <= 0 {
		return fb
	}
	f := util.FormatDecimal(factor)
	fb.filters = append(fb.filters,
		fmt.Sprintf("crop=iw/%s:ih/%s", f, f),
		fmt.Sprintf("scale=%d:%d", width, height),
		"setsar=1")
	return fb
}

// Fit scales to exactly width x height with square pixels.
func (fb *FilterBuilder) Fit(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:%d", width, height), "setsar=1")
	return fb
}

// Emphasize lifts saturation and contrast for a pattern interrupt.
func (fb *FilterBuilder) Emphasize() *FilterBuilder {
	fb.filters = append(fb.filters, "eq=saturation=1.15:contrast=1.05")
	return fb
}

// Vertical fills a width x height portrait frame, cropping the overflow.
func (fb *FilterBuilder) Vertical(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters,
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", width, height),
		fmt.Sprintf("crop=%d:%d", width, height),
		"setsar=1")
	return fb
}

// Custom adds a custom filter string
func (fb *FilterBuilder) Custom(filter string) *FilterBuilder {
	fb.filters = append(fb.filters, filter)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}

// Graph is a complete filter_complex with its output labels.
type Graph struct {
	Filter   string
	VideoOut string
	AudioOut string
	Segments []pacing.Segment
}

// RenderableSegments clamps segments to the source, limits speed to the
// encoder range and drops fragments too short to read on screen. When
// nothing survives and the source length is known, the opening seconds
// of the source are used instead.
func RenderableSegments(segments []pacing.Segment, sourceDuration float64) []pacing.Segment {
	out := make([]pacing.Segment, 0, len(segments))
	for _, s := range segments {
		if math.IsNaN(s.Start) || math.IsNaN(s.End) {
			continue
		}
		start := math.Max(0, s.Start)
		end := s.End
		if sourceDuration > 0 {
			end = math.Min(end, sourceDuration)
		}
		if end-start < pacing.MinSegmentSec {
			continue
		}
		s.Start, s.End = start, end
		s.Speed = clampSpeed(s.Speed)
		out = append(out, s)
	}

	if len(out) == 0 && sourceDuration > 0 {
		out = append(out, pacing.Segment{Start: 0, End: math.Min(sourceDuration, FallbackSeconds), Speed: 1})
	}
	return out
}

func clampSpeed(v float64) float64 {
	if math.IsNaN(v) || v < pacing.MinSpeed {
		return pacing.MinSpeed
	}
	return math.Min(v, pacing.MaxSpeed)
}

// SegmentGraph builds one filter_complex that cuts every segment out of
// input 0, retimes and styles it, and concatenates the results in order.
func SegmentGraph(opts EditOptions) (Graph, error) {
	segments := RenderableSegments(opts.Segments, opts.SourceDuration)
	if len(segments) == 0 {
		return Graph{}, ErrNoSegments
	}

	// concat needs every input at the same size and aspect ratio.
	width, height := frameSize(opts)

	var chains []string
	var inputs strings.Builder
	for i, s := range segments {
		v := NewFilterBuilder().Trim(s.Start, s.End).Speed(s.Speed)
		if opts.Vertical {
			v.Vertical(width, height)
		} else {
			v.Fit(width, height)
		}
		v.Zoom(s.Zoom, width, height)
		if s.Emphasize {
			v.Emphasize()
		}
		chains = append(chains, fmt.Sprintf("[0:v]%s[v%d]", v.Build(), i))
		fmt.Fprintf(&inputs, "[v%d]", i)

		if opts.HasAudio {
			a := NewFilterBuilder().ATrim(s.Start, s.End).ATempo(s.Speed)
			chains = append(chains, fmt.Sprintf("[0:a]%s[a%d]", a.Build(), i))
			fmt.Fprintf(&inputs, "[a%d]", i)
		}
	}

	g := Graph{VideoOut: "[outv]", Segments: segments}
	if opts.HasAudio {
		g.AudioOut = "[outa]"
		chains = append(chains, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[outv][outa]", inputs.String(), len(segments)))
	} else {
		chains = append(chains, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[outv]", inputs.String(), len(segments)))
	}

	if opts.Subtitles != "" {
		chains = append(chains, fmt.Sprintf("[outv]subtitles=%s[subv]", escapeSubtitlePath(opts.Subtitles)))
		g.VideoOut = "[subv]"
	}

	g.Filter = strings.Join(chains, ";")
	return g, nil
}

// frameSize is the output frame of an edit: the portrait frame when
// vertical, otherwise the source size rounded down to even for yuv420p.
func frameSize(opts EditOptions) (int, int) {
	if opts.Vertical {
		return VerticalWidth, VerticalHeight
	}
	if opts.Width >= 2 && opts.Height >= 2 {
		return opts.Width &^ 1, opts.Height &^ 1
	}
	return LandscapeWidth, LandscapeHeight
}

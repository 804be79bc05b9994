package pacing

import (
	"math"
	"sort"
)

const (
	// MinSegmentSec is the shortest segment worth rendering.
	MinSegmentSec = 0.35

	MinSpeed = 1.0
	MaxSpeed = 1.8

	boundaryEpsilon = 1e-6
)

// Segment is one kept span of source footage in the edit.
type Segment struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Speed     float64 `json:"speed"`
	Zoom      float64 `json:"zoom,omitempty"`
	Emphasize bool    `json:"emphasize,omitempty"`
}

// Duration returns the source length of the segment.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Effective returns the segment's playback length after speed-up.
func (s Segment) Effective() float64 {
	speed := s.Speed
	if speed <= 0 {
		speed = 1
	}
	return s.Duration() / speed
}

// Interrupt reports whether the segment carries a pattern interrupt.
func (s Segment) Interrupt() bool {
	return s.Zoom > 0 || s.Emphasize
}

// Range is a half-open span of source time.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start.
func (r Range) Duration() float64 {
	return r.End - r.Start
}

// NormalizeSegments clamps segments into [0, duration], bounds speed to
// [MinSpeed, MaxSpeed], drops fragments shorter than MinSegmentSec and sorts
// by start. A non-positive duration leaves ends unclamped.
func NormalizeSegments(segments []Segment, duration float64) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
			continue
		}
		s.Start = math.Max(0, s.Start)
		if duration > 0 {
			s.Start = math.Min(s.Start, duration)
			s.End = math.Min(s.End, duration)
		}
		if s.End-s.Start < MinSegmentSec {
			continue
		}
		if s.Speed == 0 || math.IsNaN(s.Speed) {
			s.Speed = 1
		}
		s.Speed = math.Max(MinSpeed, math.Min(MaxSpeed, s.Speed))
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// TotalEffective sums the playback length of segments.
func TotalEffective(segments []Segment) float64 {
	var total float64
	for _, s := range segments {
		total += s.Effective()
	}
	return total
}

// Contiguous reports whether each segment starts where the previous ended.
func Contiguous(segments []Segment) bool {
	for i := 1; i < len(segments); i++ {
		if math.Abs(segments[i].Start-segments[i-1].End) > boundaryEpsilon {
			return false
		}
	}
	return true
}

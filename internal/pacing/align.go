package pacing

import (
	"math"
	"sort"

	"github.com/kikiluvv/vibecut/internal/style"
	"github.com/kikiluvv/vibecut/internal/tuning"
)

// AlignInput is what the rhythm aligner works on.
type AlignInput struct {
	Segments        []Segment
	DurationSeconds float64
	Anchors         []float64
	Style           style.Profile
}

// AlignToRhythm snaps interior segment boundaries onto nearby rhythm anchors.
// The first start and last end never move. Contiguous neighbours share the
// snapped boundary; no segment is shortened below MinSegmentSec. The input is
// not modified.
func AlignToRhythm(in AlignInput, t tuning.Tuning) []Segment {
	out := make([]Segment, len(in.Segments))
	copy(out, in.Segments)

	anchors := cleanAnchors(in.Anchors, in.DurationSeconds)
	if len(out) < 2 || len(anchors) == 0 {
		return clampEnd(out, in.DurationSeconds)
	}

	tol := t.SnapToleranceSec * (1 + 0.5*math.Max(0, in.Style.TempoBias))

	for i := 0; i < len(out)-1; i++ {
		cur, next := &out[i], &out[i+1]

		if math.Abs(next.Start-cur.End) <= boundaryEpsilon {
			a, ok := nearestAnchor(anchors, cur.End, tol)
			if ok && a-cur.Start >= MinSegmentSec && next.End-a >= MinSegmentSec {
				cur.End = a
				next.Start = a
			}
			continue
		}

		// A removed range sits between the two; snap each side on its own.
		if a, ok := nearestAnchor(anchors, cur.End, tol); ok && a <= next.Start && a-cur.Start >= MinSegmentSec {
			cur.End = a
		}
		if a, ok := nearestAnchor(anchors, next.Start, tol); ok && a >= cur.End && next.End-a >= MinSegmentSec {
			next.Start = a
		}
	}

	return clampEnd(out, in.DurationSeconds)
}

// nearestAnchor returns the anchor closest to v within tol. Ties go to the
// earlier anchor. anchors must be sorted.
func nearestAnchor(anchors []float64, v, tol float64) (float64, bool) {
	i := sort.SearchFloat64s(anchors, v)
	best, bestDist := 0.0, math.Inf(1)
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(anchors) {
			continue
		}
		d := math.Abs(anchors[j] - v)
		if d < bestDist {
			best, bestDist = anchors[j], d
		}
	}
	if bestDist > tol {
		return 0, false
	}
	return best, true
}

func cleanAnchors(anchors []float64, duration float64) []float64 {
	out := make([]float64, 0, len(anchors))
	for _, a := range anchors {
		if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
			continue
		}
		if duration > 0 && a > duration {
			continue
		}
		out = append(out, a)
	}
	sort.Float64s(out)
	return out
}

func clampEnd(segments []Segment, duration float64) []Segment {
	if duration <= 0 || len(segments) == 0 {
		return segments
	}
	last := &segments[len(segments)-1]
	last.End = math.Min(last.End, duration)
	return segments
}

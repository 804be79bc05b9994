package pacing

import (
	"math"

	"github.com/kikiluvv/vibecut/internal/signals"
	"github.com/kikiluvv/vibecut/internal/style"
)

const (
	boredomCutoff      = 0.65
	boredomRetryRelax  = 0.05
	boredomCutoffFloor = 0.4
	minRemovalSec      = 2.0

	lowEnergy = 0.35

	interruptSpacingSec    = 6.0
	minInterruptSpacingSec = 2.5
	interruptZoom          = 1.08
)

// Escalation tells the planner how hard to push on a retry.
type Escalation struct {
	Attempt        int  `json:"attempt"`
	TightenPacing  bool `json:"tightenPacing"`
	MoreInterrupts bool `json:"moreInterrupts"`
	RaiseEmotion   bool `json:"raiseEmotion"`
}

// PlanInput is everything the planner reads.
type PlanInput struct {
	DurationSeconds float64
	Windows         []signals.EngagementWindow
	Hook            Range
	Profile         Profile
	Style           style.Profile
	Escalation      Escalation
}

// PlanResult is one planned edit.
type PlanResult struct {
	Segments          []Segment `json:"segments"`
	RemovedRanges     []Range   `json:"removedRanges"`
	PatternInterrupts int       `json:"patternInterrupts"`
	BoredomCutoff     float64   `json:"boredomCutoff"`
}

// Plan builds an edit from the windows: boring stretches outside the hook
// are removed, kept runs are cut to the profile's phase targets, low-energy
// segments are sped up to the speed cap and pattern interrupts are placed at
// a style-dependent spacing. Each retry relaxes the boredom cutoff.
func Plan(in PlanInput) PlanResult {
	timeline := signals.Timeline(in.DurationSeconds, in.Windows, nil)
	cutoff := math.Max(boredomCutoffFloor, boredomCutoff-boredomRetryRelax*float64(in.Escalation.Attempt))
	if in.Escalation.TightenPacing {
		cutoff = math.Max(boredomCutoffFloor, cutoff-boredomRetryRelax)
	}
	res := PlanResult{BoredomCutoff: cutoff}
	if timeline <= 0 {
		return res
	}

	res.RemovedRanges = boringRanges(in.Windows, cutoff, in.Hook, timeline)
	for _, run := range complement(res.RemovedRanges, timeline) {
		res.Segments = append(res.Segments, split(run, timeline, in.Profile, in.Escalation, len(res.Segments))...)
	}

	for i := range res.Segments {
		s := &res.Segments[i]
		if overlaps(*s, in.Hook) {
			continue
		}
		energy := meanEnergy(windowsIn(in.Windows, s.Start, s.End))
		if energy < lowEnergy {
			s.Speed = 1 + (in.Profile.SpeedCap-1)*(lowEnergy-energy)/lowEnergy
			s.Speed = math.Max(MinSpeed, math.Min(in.Profile.SpeedCap, s.Speed))
		}
	}

	res.PatternInterrupts = placeInterrupts(res.Segments, in)
	return res
}

// boringRanges merges consecutive windows at or above the cutoff into ranges
// of at least minRemovalSec, with the hook carved out.
func boringRanges(windows []signals.EngagementWindow, cutoff float64, hook Range, timeline float64) []Range {
	var raw []Range
	var cur *Range
	for _, w := range windows {
		if w.BoredomScore < cutoff {
			cur = nil
			continue
		}
		end := math.Min(w.Time+1, timeline)
		if cur != nil && w.Time <= cur.End+boundaryEpsilon {
			cur.End = end
			continue
		}
		raw = append(raw, Range{Start: w.Time, End: end})
		cur = &raw[len(raw)-1]
	}

	var out []Range
	for _, r := range raw {
		for _, piece := range subtract(r, hook) {
			if piece.Duration() >= minRemovalSec {
				out = append(out, piece)
			}
		}
	}
	return out
}

// subtract removes b from a.
func subtract(a, b Range) []Range {
	if b.Duration() <= 0 || b.End <= a.Start || b.Start >= a.End {
		return []Range{a}
	}
	var out []Range
	if b.Start > a.Start {
		out = append(out, Range{Start: a.Start, End: b.Start})
	}
	if b.End < a.End {
		out = append(out, Range{Start: b.End, End: a.End})
	}
	return out
}

// complement returns the spans of [0, timeline] not covered by removed,
// which must be sorted and disjoint.
func complement(removed []Range, timeline float64) []Range {
	var out []Range
	cursor := 0.0
	for _, r := range removed {
		if r.Start > cursor {
			out = append(out, Range{Start: cursor, End: r.Start})
		}
		cursor = math.Max(cursor, r.End)
	}
	if cursor < timeline {
		out = append(out, Range{Start: cursor, End: timeline})
	}
	return out
}

// split cuts a kept run into contiguous segments near the phase target,
// alternating the jitter so consecutive cuts do not land on a grid.
func split(run Range, timeline float64, p Profile, esc Escalation, offset int) []Segment {
	if run.Duration() < MinSegmentSec {
		return nil
	}
	// A zero or inverted profile still cuts at the minimum segment length.
	minLen := math.Max(p.MinLen, MinSegmentSec)
	maxLen := math.Max(p.MaxLen, minLen)

	var out []Segment
	cursor := run.Start
	for i := offset; cursor < run.End-boundaryEpsilon; i++ {
		target := p.TargetAt(cursor / timeline)
		sign := -0.5
		if i%2 == 1 {
			sign = 0.5
		}
		target *= 1 + sign*p.Jitter
		if esc.TightenPacing {
			target *= 0.85
		}
		target = math.Max(minLen, math.Min(maxLen, target))

		end := math.Min(cursor+target, run.End)
		if run.End-end < minLen || end <= cursor {
			end = run.End
		}
		out = append(out, Segment{Start: cursor, End: end, Speed: 1})
		cursor = end
	}
	return out
}

func placeInterrupts(segments []Segment, in PlanInput) int {
	spacing := interruptSpacingSec * (1 - 0.4*math.Max(0, in.Style.InterruptBias))
	if in.Escalation.MoreInterrupts {
		spacing *= 0.7
	}
	spacing = math.Max(minInterruptSpacingSec, spacing)

	count := 0
	elapsed := 0.0
	for i := range segments {
		s := &segments[i]
		if in.Escalation.RaiseEmotion && hasSpike(windowsIn(in.Windows, s.Start, s.End)) {
			s.Emphasize = true
		}
		if elapsed >= spacing {
			if count%2 == 0 {
				s.Zoom = interruptZoom
			} else {
				s.Emphasize = true
			}
			elapsed = 0
		}
		if s.Interrupt() {
			count++
		}
		elapsed += s.Effective()
	}
	return count
}

func overlaps(s Segment, r Range) bool {
	return r.Duration() > 0 && s.Start < r.End && r.Start < s.End
}

func windowsIn(windows []signals.EngagementWindow, start, end float64) []signals.EngagementWindow {
	var out []signals.EngagementWindow
	for _, w := range windows {
		if w.Time >= end {
			break
		}
		if w.Time >= start {
			out = append(out, w)
		}
	}
	return out
}

func meanEnergy(windows []signals.EngagementWindow) float64 {
	if len(windows) == 0 {
		return 1
	}
	var sum float64
	for _, w := range windows {
		sum += (w.AudioEnergy + w.SpeechIntensity + w.MotionScore) / 3
	}
	return sum / float64(len(windows))
}

func hasSpike(windows []signals.EngagementWindow) bool {
	for _, w := range windows {
		if w.Spike() {
			return true
		}
	}
	return false
}

package quality

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kikiluvv/vibecut/internal/hook"
	"github.com/kikiluvv/vibecut/internal/pacing"
	"github.com/kikiluvv/vibecut/internal/signals"
	"github.com/kikiluvv/vibecut/internal/tuning"
)

// Fixes are the remedies a failed attempt asks for.
type Fixes struct {
	StrongerHook       bool `json:"stronger_hook"`
	RaiseEmotion       bool `json:"raise_emotion"`
	ImprovePacing      bool `json:"improve_pacing"`
	IncreaseInterrupts bool `json:"increase_interrupts"`
}

// Count returns how many fixes are set.
func (f Fixes) Count() int {
	n := 0
	for _, b := range []bool{f.StrongerHook, f.RaiseEmotion, f.ImprovePacing, f.IncreaseInterrupts} {
		if b {
			n++
		}
	}
	return n
}

// Escalation maps the fixes onto the planner's retry knobs.
func (f Fixes) Escalation(attempt int) pacing.Escalation {
	return pacing.Escalation{
		Attempt:        attempt,
		TightenPacing:  f.ImprovePacing,
		MoreInterrupts: f.IncreaseInterrupts,
		RaiseEmotion:   f.RaiseEmotion,
	}
}

// Report is the retention judge's verdict on one render attempt.
type Report struct {
	Passed            bool     `json:"passed"`
	Scores            Metrics  `json:"scores"`
	RequiredFixes     Fixes    `json:"required_fixes"`
	MissedFloors      []string `json:"missed_floors"`
	AppliedThresholds Metrics  `json:"applied_thresholds"`
	GateMode          string   `json:"gate_mode"`
}

// ReportInput is the telemetry of one render attempt.
type ReportInput struct {
	Gate                  GateInput
	RetentionScore        float64
	Hook                  hook.Candidate
	Windows               []signals.EngagementWindow
	ClarityPenalty        float64
	CaptionsEnabled       bool
	PatternInterruptCount int
	RemovedRanges         []pacing.Range
	Segments              []pacing.Segment
}

const (
	captionClarityBonus = 8.0

	idealMinCut = 1.5
	idealMaxCut = 4.5

	// interruptsForFullScore is the interrupts per 10s of output that earns
	// a perfect interrupt score.
	interruptsForFullScore = 1.2
)

// BuildReport scores an attempt and compares every metric to its floor.
// Passed is true only when nothing was missed.
func BuildReport(in ReportInput, t tuning.Tuning) Report {
	kept := keptWindows(in.Windows, in.Segments, in.RemovedRanges)

	scores := Metrics{
		HookStrength:   clamp100(in.Hook.Score),
		RetentionScore: clamp100(in.RetentionScore),
		PacingScore:    pacingScore(in.Segments),
		EmotionalPull:  emotionalPull(kept, in.Segments),
		ClarityScore:   clarityScore(in.ClarityPenalty, in.CaptionsEnabled),
		BoredomScore:   boredomScore(kept),
		InterruptScore: interruptScore(in.PatternInterruptCount, in.Segments),
	}
	thresholds := ResolveThresholds(in.Gate, t)

	missed := map[string]bool{}
	var order []string
	sv, tv := scores.values(), thresholds.values()
	for i, name := range metricNames {
		if sv[i] < tv[i] {
			missed[name] = true
			order = append(order, name)
		}
	}

	return Report{
		Passed: len(order) == 0,
		Scores: scores,
		RequiredFixes: Fixes{
			StrongerHook:       missed["hook_strength"],
			RaiseEmotion:       missed["emotional_pull"],
			ImprovePacing:      missed["pacing_score"] || missed["retention_score"] || missed["boredom_score"],
			IncreaseInterrupts: missed["interrupt_score"],
		},
		MissedFloors:      order,
		AppliedThresholds: thresholds,
		GateMode:          GateMode(in.Gate),
	}
}

func clamp100(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// keptWindows returns the windows that survive the edit: inside a segment
// when segments are given, and outside every removed range.
func keptWindows(windows []signals.EngagementWindow, segments []pacing.Segment, removed []pacing.Range) []signals.EngagementWindow {
	var out []signals.EngagementWindow
	for _, w := range windows {
		if inRanges(w.Time, removed) {
			continue
		}
		if len(segments) > 0 && !inSegments(w.Time, segments) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func inRanges(at float64, ranges []pacing.Range) bool {
	for _, r := range ranges {
		if at >= r.Start && at < r.End {
			return true
		}
	}
	return false
}

func inSegments(at float64, segments []pacing.Segment) bool {
	for _, s := range segments {
		if at >= s.Start && at < s.End {
			return true
		}
	}
	return false
}

// pacingScore penalises an average cut outside the ideal band, and cut
// lengths that are either mechanically uniform or erratic.
func pacingScore(segments []pacing.Segment) float64 {
	if len(segments) == 0 {
		return 40
	}
	lengths := make([]float64, len(segments))
	for i, s := range segments {
		lengths[i] = s.Effective()
	}

	mean := stat.Mean(lengths, nil)
	penalty := 0.0
	switch {
	case mean < idealMinCut:
		penalty += (idealMinCut - mean) * 30
	case mean > idealMaxCut:
		penalty += (mean - idealMaxCut) * 15
	}

	if len(lengths) > 1 && mean > 0 {
		cv := stat.StdDev(lengths, nil) / mean
		switch {
		case cv < 0.1:
			penalty += math.Min(10, (0.1-cv)*100)
		case cv > 0.8:
			penalty += (cv - 0.8) * 50
		}
	}
	return clamp100(100 - penalty)
}

// emotionalPull rewards emotional intensity and spikes per 10s of kept
// footage.
func emotionalPull(kept []signals.EngagementWindow, segments []pacing.Segment) float64 {
	if len(kept) == 0 {
		return 0
	}
	var emotion float64
	spikes := 0
	for _, w := range kept {
		emotion += w.EmotionIntensity
		if w.Spike() {
			spikes++
		}
	}
	emotion /= float64(len(kept))

	seconds := float64(len(kept))
	if len(segments) > 0 {
		seconds = pacing.TotalEffective(segments)
	}
	perTen := 0.0
	if seconds > 0 {
		perTen = float64(spikes) / (seconds / 10)
	}

	return clamp100(100 * (0.65*math.Min(1, emotion/0.7) + 0.35*math.Min(1, perTen/1.5)))
}

func clarityScore(penalty float64, captions bool) float64 {
	score := 100 - math.Max(0, penalty)
	if captions {
		score += captionClarityBonus
	}
	return clamp100(score)
}

// boredomScore is 100 when nothing boring survived the edit.
func boredomScore(kept []signals.EngagementWindow) float64 {
	if len(kept) == 0 {
		return 100
	}
	var sum float64
	for _, w := range kept {
		sum += w.BoredomScore
	}
	return clamp100(100 * (1 - sum/float64(len(kept))))
}

func interruptScore(count int, segments []pacing.Segment) float64 {
	seconds := pacing.TotalEffective(segments)
	if seconds <= 0 || count <= 0 {
		return 0
	}
	perTen := float64(count) / (seconds / 10)
	return clamp100(100 * perTen / interruptsForFullScore)
}

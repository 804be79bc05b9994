package quality

import (
	"math"

	"github.com/kikiluvv/vibecut/internal/tuning"
)

// Gate modes recorded on every report.
const (
	ModeStrict       = "strict"
	ModeNoTranscript = "adaptive-no-transcript"
	ModeLowSignal    = "adaptive-low-signal"
	ModeDegraded     = "adaptive-degraded"
)

// Metrics is the set of judged quantities, used both for scores and for the
// floors they are compared against. All values are on a 0..100 scale.
type Metrics struct {
	HookStrength   float64 `json:"hook_strength"`
	RetentionScore float64 `json:"retention_score"`
	PacingScore    float64 `json:"pacing_score"`
	EmotionalPull  float64 `json:"emotional_pull"`
	ClarityScore   float64 `json:"clarity_score"`
	BoredomScore   float64 `json:"boredom_score"`
	InterruptScore float64 `json:"interrupt_score"`
}

// metricNames lists json names in the order each visits them.
var metricNames = [...]string{
	"hook_strength",
	"retention_score",
	"pacing_score",
	"emotional_pull",
	"clarity_score",
	"boredom_score",
	"interrupt_score",
}

func (m Metrics) values() [len(metricNames)]float64 {
	return [...]float64{m.HookStrength, m.RetentionScore, m.PacingScore, m.EmotionalPull, m.ClarityScore, m.BoredomScore, m.InterruptScore}
}

func (m Metrics) each(fn func(name string, v float64)) {
	for i, v := range m.values() {
		fn(metricNames[i], v)
	}
}

func (m Metrics) zip(o Metrics, fn func(a, b float64) float64) Metrics {
	return Metrics{
		HookStrength:   fn(m.HookStrength, o.HookStrength),
		RetentionScore: fn(m.RetentionScore, o.RetentionScore),
		PacingScore:    fn(m.PacingScore, o.PacingScore),
		EmotionalPull:  fn(m.EmotionalPull, o.EmotionalPull),
		ClarityScore:   fn(m.ClarityScore, o.ClarityScore),
		BoredomScore:   fn(m.BoredomScore, o.BoredomScore),
		InterruptScore: fn(m.InterruptScore, o.InterruptScore),
	}
}

func (m Metrics) apply(fn func(v float64) float64) Metrics {
	return m.zip(m, func(a, _ float64) float64 { return fn(a) })
}

var nominalThresholds = Metrics{
	HookStrength:   80,
	RetentionScore: 75,
	PacingScore:    70,
	EmotionalPull:  60,
	ClarityScore:   72,
	BoredomScore:   50,
	InterruptScore: 45,
}

var tierOffset = [...]float64{
	tuning.Safe:   -6,
	tuning.Medium: 0,
	tuning.High:   4,
	tuning.Viral:  8,
}

var noTranscriptRelief = Metrics{
	HookStrength:   8,
	RetentionScore: 6,
	PacingScore:    3,
	EmotionalPull:  5,
	ClarityScore:   10,
	BoredomScore:   5,
	InterruptScore: 5,
}

var lowSignalRelief = Metrics{
	HookStrength:   12,
	RetentionScore: 10,
	PacingScore:    8,
	EmotionalPull:  12,
	ClarityScore:   6,
	BoredomScore:   10,
	InterruptScore: 10,
}

const (
	// strongSignal is the strength at and above which no relief applies.
	strongSignal = 0.75

	thresholdCap   = 95.0
	thresholdFloor = 20.0
)

// GateInput selects which floors apply to an attempt.
type GateInput struct {
	Aggression     tuning.Aggression `json:"aggression"`
	HasTranscript  bool              `json:"hasTranscript"`
	SignalStrength float64           `json:"signalStrength"`
}

// signalRelief is 0 for strong footage, rising linearly to 1 at no signal.
func signalRelief(strength float64) float64 {
	if math.IsNaN(strength) {
		strength = 0
	}
	return math.Max(0, math.Min(1, (strongSignal-strength)/strongSignal))
}

// ResolveThresholds returns the per-metric floors for an attempt. Floors
// only ever drop when the transcript is missing or the signal weakens.
func ResolveThresholds(in GateInput, t tuning.Tuning) Metrics {
	offset := tierOffset[in.Aggression.Clamp()]
	th := nominalThresholds.apply(func(v float64) float64 { return math.Min(thresholdCap, v+offset) })

	if !in.HasTranscript {
		th = th.zip(noTranscriptRelief, func(a, b float64) float64 { return a - b })
	}
	if r := signalRelief(in.SignalStrength); r > 0 {
		th = th.zip(lowSignalRelief, func(a, b float64) float64 { return a - r*b })
	}

	return th.apply(func(v float64) float64 {
		return math.Max(thresholdFloor, math.Min(thresholdCap, v+t.ThresholdBias))
	})
}

// GateMode names the relaxation applied for an attempt.
func GateMode(in GateInput) string {
	low := signalRelief(in.SignalStrength) > 0
	switch {
	case !in.HasTranscript && low:
		return ModeDegraded
	case !in.HasTranscript:
		return ModeNoTranscript
	case low:
		return ModeLowSignal
	default:
		return ModeStrict
	}
}

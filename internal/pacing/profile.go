package pacing

import (
	"math"

	"github.com/kikiluvv/vibecut/internal/style"
	"github.com/kikiluvv/vibecut/internal/tuning"
)

// Profile is the working cut-length profile for one video. All lengths are
// in seconds of source footage.
type Profile struct {
	Niche        style.Niche `json:"niche"`
	MinLen       float64     `json:"minLen"`
	MaxLen       float64     `json:"maxLen"`
	EarlyTarget  float64     `json:"earlyTarget"`
	MiddleTarget float64     `json:"middleTarget"`
	LateTarget   float64     `json:"lateTarget"`
	Jitter       float64     `json:"jitter"`
	SpeedCap     float64     `json:"speedCap"`
}

// TargetAt returns the target cut length at progress in [0, 1] through the
// video.
func (p Profile) TargetAt(progress float64) float64 {
	switch {
	case progress < 1.0/3:
		return p.EarlyTarget
	case progress < 2.0/3:
		return p.MiddleTarget
	default:
		return p.LateTarget
	}
}

func (p Profile) scaleLengths(f float64) Profile {
	p.MinLen *= f
	p.MaxLen *= f
	p.EarlyTarget *= f
	p.MiddleTarget *= f
	p.LateTarget *= f
	return p
}

func (p Profile) clampLengths(lo, hi float64) Profile {
	c := func(v float64) float64 { return math.Max(lo, math.Min(hi, v)) }
	p.MinLen = c(p.MinLen)
	p.MaxLen = math.Max(p.MinLen, c(p.MaxLen))
	p.EarlyTarget = c(p.EarlyTarget)
	p.MiddleTarget = c(p.MiddleTarget)
	p.LateTarget = c(p.LateTarget)
	return p
}

var nicheProfiles = [...]Profile{
	style.HighEnergy:  {MinLen: 1.2, MaxLen: 3.2, EarlyTarget: 1.6, MiddleTarget: 2.2, LateTarget: 2.6, Jitter: 0.25, SpeedCap: 1.35},
	style.Education:   {MinLen: 2.2, MaxLen: 6.0, EarlyTarget: 2.8, MiddleTarget: 3.6, LateTarget: 4.2, Jitter: 0.15, SpeedCap: 1.15},
	style.TalkingHead: {MinLen: 1.8, MaxLen: 4.8, EarlyTarget: 2.2, MiddleTarget: 3.0, LateTarget: 3.6, Jitter: 0.20, SpeedCap: 1.25},
	style.StoryNiche:  {MinLen: 2.4, MaxLen: 6.5, EarlyTarget: 3.0, MiddleTarget: 4.0, LateTarget: 4.8, Jitter: 0.15, SpeedCap: 1.15},
}

var aggressionScale = [...]struct{ length, speed float64 }{
	tuning.Safe:   {1.15, -0.05},
	tuning.Medium: {1.0, 0},
	tuning.High:   {0.85, 0.10},
	tuning.Viral:  {0.72, 0.20},
}

// BaseProfile returns the niche's pacing scaled for the aggression level and
// clamped to the configured cut bounds.
func BaseProfile(n style.Niche, a tuning.Aggression, t tuning.Tuning) Profile {
	if n < 0 || int(n) >= len(nicheProfiles) {
		n = style.TalkingHead
	}
	sc := aggressionScale[a.Clamp()]

	p := nicheProfiles[n].scaleLengths(sc.length).clampLengths(t.CutMinSec, t.CutMaxSec)
	p.Niche = n
	p.SpeedCap = math.Max(MinSpeed, math.Min(MaxSpeed, p.SpeedCap+sc.speed))
	return p
}

// minStyleTempo is the least tightening a high-tempo style applies.
const minStyleTempo = 0.1

// ApplyStyle returns a copy of base conditioned on the style profile.
// Positive tempo tightens cuts and raises the speed cap; negative tempo
// lengthens cuts and leaves the cap alone. High-tempo styles always tighten.
func ApplyStyle(base Profile, sp style.Profile, isShortForm bool) Profile {
	tempo := sp.TempoBias
	if sp.HighTempo() {
		tempo = math.Max(tempo, minStyleTempo)
	}
	if isShortForm {
		tempo *= 1.2
	}

	p := base
	switch {
	case tempo > 0:
		p = p.scaleLengths(math.Max(0.65, 1-0.35*tempo))
		p.SpeedCap = math.Min(MaxSpeed, p.SpeedCap+0.25*tempo)
		p.Jitter += 0.1 * math.Max(0, sp.InterruptBias)
	case tempo < 0:
		p = p.scaleLengths(1 + 0.25*math.Abs(tempo))
	}
	p.SpeedCap = math.Max(base.SpeedCap, p.SpeedCap)
	return p.clampLengths(MinSegmentSec, math.Inf(1))
}

// StyleAdjustedAggression escalates base by one tier when the style is a
// confident high-tempo one. The result is never below base.
func StyleAdjustedAggression(base tuning.Aggression, sp style.Profile, t tuning.Tuning) tuning.Aggression {
	base = base.Clamp()
	if sp.HighTempo() && sp.Confidence >= t.StyleEscalationConfidence {
		return base.Next()
	}
	return base
}

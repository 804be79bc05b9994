package signals

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StrengthFloor is what Strength reports for footage with no usable windows.
const StrengthFloor = 0.05

// Aggregate holds per-signal means over a window set.
type Aggregate struct {
	Windows           int
	AudioEnergy       float64
	SpeechIntensity   float64
	MotionScore       float64
	FacePresence      float64
	TextDensity       float64
	SceneChangeRate   float64
	VocalExcitement   float64
	EmotionIntensity  float64
	AudioVariance     float64
	KeywordIntensity  float64
	CuriosityTrigger  float64
	FillerDensity     float64
	BoredomScore      float64
	HookScore         float64
	NarrativeProgress float64
	Score             float64

	// SpikeRatio is the fraction of windows flagged as emotional spikes.
	SpikeRatio float64
	// EnergySpread is the standard deviation of AudioEnergy.
	EnergySpread float64
}

// AggregateWindows computes signal means over windows. An empty input yields the
// zero Aggregate.
func AggregateWindows(windows []EngagementWindow) Aggregate {
	n := len(windows)
	if n == 0 {
		return Aggregate{}
	}

	column := func(get func(EngagementWindow) float64) []float64 {
		out := make([]float64, n)
		for i, w := range windows {
			out[i] = get(w)
		}
		return out
	}
	mean := func(get func(EngagementWindow) float64) float64 {
		return stat.Mean(column(get), nil)
	}

	energy := column(func(w EngagementWindow) float64 { return w.AudioEnergy })
	spikes := column(func(w EngagementWindow) float64 { return w.EmotionalSpike })

	agg := Aggregate{
		Windows:           n,
		AudioEnergy:       stat.Mean(energy, nil),
		SpeechIntensity:   mean(func(w EngagementWindow) float64 { return w.SpeechIntensity }),
		MotionScore:       mean(func(w EngagementWindow) float64 { return w.MotionScore }),
		FacePresence:      mean(func(w EngagementWindow) float64 { return w.FacePresence }),
		TextDensity:       mean(func(w EngagementWindow) float64 { return w.TextDensity }),
		SceneChangeRate:   mean(func(w EngagementWindow) float64 { return w.SceneChangeRate }),
		VocalExcitement:   mean(func(w EngagementWindow) float64 { return w.VocalExcitement }),
		EmotionIntensity:  mean(func(w EngagementWindow) float64 { return w.EmotionIntensity }),
		AudioVariance:     mean(func(w EngagementWindow) float64 { return w.AudioVariance }),
		KeywordIntensity:  mean(func(w EngagementWindow) float64 { return w.KeywordIntensity }),
		CuriosityTrigger:  mean(func(w EngagementWindow) float64 { return w.CuriosityTrigger }),
		FillerDensity:     mean(func(w EngagementWindow) float64 { return w.FillerDensity }),
		BoredomScore:      mean(func(w EngagementWindow) float64 { return w.BoredomScore }),
		HookScore:         mean(func(w EngagementWindow) float64 { return w.HookScore }),
		NarrativeProgress: mean(func(w EngagementWindow) float64 { return w.NarrativeProgress }),
		Score:             mean(func(w EngagementWindow) float64 { return w.Score }),
		SpikeRatio:        floats.Sum(spikes) / float64(n),
	}
	if n > 1 {
		agg.EnergySpread = stat.StdDev(energy, nil)
	}
	return agg
}

// Strength summarizes how much usable signal the footage carries, in [0, 1].
// Motion, audio, faces and speech contribute; a dynamic audio track adds a
// small bonus. Empty input returns StrengthFloor.
func Strength(windows []EngagementWindow) float64 {
	if len(windows) == 0 {
		return StrengthFloor
	}
	agg := AggregateWindows(windows)

	base := 0.30*agg.MotionScore +
		0.25*agg.AudioEnergy +
		0.20*agg.FacePresence +
		0.25*agg.SpeechIntensity
	dynamics := math.Min(0.1, agg.EnergySpread*0.5)

	return math.Max(StrengthFloor, unit(base+dynamics))
}

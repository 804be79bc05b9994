package signals

import (
	"math"
	"sort"
	"strings"
)

// minCueSeconds matches the transcriber: cues that do not outlast their start
// by more than this are noise.
const minCueSeconds = 0.01

// NormalizeWindows returns a sanitized copy of windows: non-finite or negative
// times are dropped, windows past durationSeconds (when positive) are dropped,
// every signal is clamped to [0, 1], spikes are forced to 0/1, and the result
// is sorted by time with duplicate timestamps collapsed to the first sample.
func NormalizeWindows(windows []EngagementWindow, durationSeconds float64) []EngagementWindow {
	out := make([]EngagementWindow, 0, len(windows))
	for _, w := range windows {
		if !finite(w.Time) || w.Time < 0 {
			continue
		}
		if durationSeconds > 0 && w.Time > durationSeconds {
			continue
		}
		out = append(out, clampWindow(w))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })

	deduped := out[:0]
	for i, w := range out {
		if i > 0 && w.Time == deduped[len(deduped)-1].Time {
			continue
		}
		deduped = append(deduped, w)
	}
	return deduped
}

func clampWindow(w EngagementWindow) EngagementWindow {
	w.AudioEnergy = unit(w.AudioEnergy)
	w.SpeechIntensity = unit(w.SpeechIntensity)
	w.MotionScore = unit(w.MotionScore)
	w.FacePresence = unit(w.FacePresence)
	w.TextDensity = unit(w.TextDensity)
	w.SceneChangeRate = unit(w.SceneChangeRate)
	w.VocalExcitement = unit(w.VocalExcitement)
	w.EmotionIntensity = unit(w.EmotionIntensity)
	w.AudioVariance = unit(w.AudioVariance)
	w.KeywordIntensity = unit(w.KeywordIntensity)
	w.CuriosityTrigger = unit(w.CuriosityTrigger)
	w.FillerDensity = unit(w.FillerDensity)
	w.BoredomScore = unit(w.BoredomScore)
	w.HookScore = unit(w.HookScore)
	w.NarrativeProgress = unit(w.NarrativeProgress)
	w.Score = unit(w.Score)
	if unit(w.EmotionalSpike) >= 0.5 {
		w.EmotionalSpike = 1
	} else {
		w.EmotionalSpike = 0
	}
	return w
}

// NormalizeCues returns a sanitized copy of cues. Cues with non-finite bounds
// or end <= start are dropped, bounds are clipped to [0, durationSeconds] when
// a duration is known, text is trimmed, and missing scoring fields are derived
// from the text. The result is ordered by start.
func NormalizeCues(cues []TranscriptCue, durationSeconds float64) []TranscriptCue {
	out := make([]TranscriptCue, 0, len(cues))
	for _, c := range cues {
		if !finite(c.Start) || !finite(c.End) {
			continue
		}
		c.Start = math.Max(0, c.Start)
		if durationSeconds > 0 {
			c.End = math.Min(c.End, durationSeconds)
		}
		if c.End <= c.Start+minCueSeconds {
			continue
		}
		c.Text = strings.TrimSpace(c.Text)
		c.KeywordIntensity = ptr(unit(c.Keyword()))
		c.CuriosityTrigger = ptr(unit(c.Curiosity()))
		c.FillerDensity = ptr(unit(c.Filler()))
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Timeline returns the usable length of the material: durationSeconds when
// positive, otherwise the furthest point covered by a window or cue.
func Timeline(durationSeconds float64, windows []EngagementWindow, cues []TranscriptCue) float64 {
	if finite(durationSeconds) && durationSeconds > 0 {
		return durationSeconds
	}
	end := 0.0
	if n := len(windows); n > 0 {
		end = windows[n-1].Time + 1
	}
	for _, c := range cues {
		end = math.Max(end, c.End)
	}
	return end
}

func unit(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func ptr(v float64) *float64 { return &v }

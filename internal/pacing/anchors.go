package pacing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kikiluvv/vibecut/internal/signals"
	"github.com/kikiluvv/vibecut/internal/tuning"
)

// beatStdFactor sets how far above the mean a window must sit to count as a
// beat.
const beatStdFactor = 0.75

// DeriveAnchors picks emotional beats from the windows to use as rhythm
// anchors when none are supplied. Beats must clear both the configured
// threshold and mean + 0.75 std of the series, are taken strongest first at
// least the configured spacing apart, and are pulled earlier by the lead
// trim. The result is sorted.
func DeriveAnchors(windows []signals.EngagementWindow, t tuning.Tuning) []float64 {
	if len(windows) == 0 || t.MaxAnchors == 0 {
		return nil
	}

	values := make([]float64, len(windows))
	for i, w := range windows {
		values[i] = math.Max(w.EmotionIntensity, w.EmotionalSpike*w.VocalExcitement)
	}

	mean := stat.Mean(values, nil)
	std := 0.0
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	cut := math.Max(t.EmotionalBeatThreshold, mean+beatStdFactor*std)

	idx := make([]int, 0, len(values))
	for i, v := range values {
		if v >= cut {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if values[idx[a]] != values[idx[b]] {
			return values[idx[a]] > values[idx[b]]
		}
		return windows[idx[a]].Time < windows[idx[b]].Time
	})

	var picked []float64
	for _, i := range idx {
		at := windows[i].Time
		tooClose := false
		for _, p := range picked {
			if math.Abs(p-at) < t.EmotionalBeatSpacingSec {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		picked = append(picked, at)
		if len(picked) == t.MaxAnchors {
			break
		}
	}

	anchors := make([]float64, len(picked))
	for i, p := range picked {
		anchors[i] = math.Max(0, p-t.EmotionalBeatLeadTrimSec)
	}
	sort.Float64s(anchors)
	return anchors
}

package quality

import "github.com/kikiluvv/vibecut/internal/tuning"

// ShouldForceRescue reports whether a failed attempt is close enough to ship
// as a rescue render: at most RescueMaxFixes fixes are asked for, and no
// score sits below RescueCatastrophicRatio of its floor.
func ShouldForceRescue(r Report, t tuning.Tuning) bool {
	if r.Passed {
		return false
	}
	if r.RequiredFixes.Count() > t.RescueMaxFixes {
		return false
	}

	sv, tv := r.Scores.values(), r.AppliedThresholds.values()
	for i := range sv {
		if sv[i] < t.RescueCatastrophicRatio*tv[i] {
			return false
		}
	}
	return true
}

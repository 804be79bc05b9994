package hook

import (
	"fmt"
	"math"
	"sort"

	"github.com/kikiluvv/vibecut/internal/tuning"
)

// renderFloors is the minimum hook score per aggression tier before any
// relaxation for missing transcript or weak signal.
var renderFloors = [...]float64{
	tuning.Safe:   30,
	tuning.Medium: 40,
	tuning.High:   48,
	tuning.Viral:  55,
}

// Decision is the hook chosen for rendering.
type Decision struct {
	Candidate Candidate `json:"candidate"`
	Floor     float64   `json:"floor"`
	Fallback  bool      `json:"fallback"`
	Reason    string    `json:"reason"`
}

// RenderFloor returns the score a candidate needs to be rendered without
// falling back. It only ever relaxes for missing transcript or low strength.
func RenderFloor(a tuning.Aggression, hasTranscript bool, strength float64) float64 {
	floor := renderFloors[a.Clamp()]
	if !hasTranscript {
		floor -= 8
	}
	if math.IsNaN(strength) {
		strength = 0
	}
	relax := math.Max(0, math.Min(1, (0.75-strength)/0.75))
	floor -= 15 * relax
	return math.Max(10, floor)
}

// SelectRenderable always returns a decision with a usable candidate. It
// prefers the best candidate that clears the render floor. Failing that it
// takes the best valid candidate, then the fallback, then a synthetic hook at
// the opening.
func SelectRenderable(candidates []Candidate, fallback *Candidate, a tuning.Aggression, hasTranscript bool, strength float64, t tuning.Tuning) Decision {
	floor := RenderFloor(a, hasTranscript, strength)

	valid := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Valid(0) {
			valid = append(valid, c)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return better(valid[i], valid[j]) })

	if len(valid) > 0 {
		best := fit(valid[0], t)
		if best.Score >= floor {
			return Decision{
				Candidate: best,
				Floor:     floor,
				Reason:    fmt.Sprintf("score %.1f clears %s floor %.1f", best.Score, a, floor),
			}
		}
		return Decision{
			Candidate: best,
			Floor:     floor,
			Fallback:  true,
			Reason:    fmt.Sprintf("best score %.1f below %s floor %.1f; rendering it anyway", best.Score, a, floor),
		}
	}

	if fallback != nil && fallback.Valid(0) {
		return Decision{
			Candidate: fit(*fallback, t),
			Floor:     floor,
			Fallback:  true,
			Reason:    "no valid candidates; using fallback hook",
		}
	}

	return Decision{
		Candidate: Candidate{
			Duration: t.HookMinSec,
			Reason:   "no usable hook evidence; hook placed at the opening",
			Basis:    BasisSynthetic,
		},
		Floor:    floor,
		Fallback: true,
		Reason:   "no valid candidates or fallback; synthesized opening hook",
	}
}

// fit trims an over-long candidate to the maximum hook length. Short
// candidates are left alone since they were bounded by the timeline.
func fit(c Candidate, t tuning.Tuning) Candidate {
	if c.Duration > t.HookMaxSec {
		c.Duration = t.HookMaxSec
	}
	return c
}

package quality

import (
	"github.com/kikiluvv/vibecut/internal/hook"
	"github.com/kikiluvv/vibecut/internal/pacing"
	"github.com/kikiluvv/vibecut/internal/signals"
)

// PredictRetention estimates a 0..100 retention score for an edit from the
// kept windows' engagement score and boredom plus the hook's strength. It is
// used when the host does not supply a measured retention score.
func PredictRetention(windows []signals.EngagementWindow, segments []pacing.Segment, removed []pacing.Range, h hook.Candidate) float64 {
	kept := keptWindows(windows, segments, removed)
	hookPart := clamp100(h.Score) / 100

	if len(kept) == 0 {
		return clamp100(100 * (0.3*hookPart + 0.2))
	}

	var score, boredom float64
	for _, w := range kept {
		score += w.Score
		boredom += w.BoredomScore
	}
	n := float64(len(kept))
	return clamp100(100 * (0.5*(score/n) + 0.3*hookPart + 0.2*(1-boredom/n)))
}

package hook

import (
	"math"

	"github.com/kikiluvv/vibecut/internal/signals"
)

// Span is a window of the timeline under evaluation. Windows holds only the
// engagement samples that fall inside it; Cues holds every cue that
// overlaps it.
type Span struct {
	Start    float64
	Duration float64
	Windows  []signals.EngagementWindow
	Cues     []signals.TranscriptCue
}

// End returns Start + Duration.
func (s Span) End() float64 {
	return s.Start + s.Duration
}

// Scorer rates a span in [0, 1].
type Scorer interface {
	Score(span Span) float64
}

// Weights for the per-window signal blend.
type Weights struct {
	HookScore float64
	Emotion   float64
	Vocal     float64
	Speech    float64
	Motion    float64
	Curiosity float64
	Keyword   float64
}

// DefaultWeights returns the reference blend.
func DefaultWeights() Weights {
	return Weights{
		HookScore: 0.24,
		Emotion:   0.18,
		Vocal:     0.14,
		Speech:    0.12,
		Motion:    0.12,
		Curiosity: 0.10,
		Keyword:   0.10,
	}
}

func (w Weights) blend(win signals.EngagementWindow) float64 {
	return w.HookScore*win.HookScore +
		w.Emotion*win.EmotionIntensity +
		w.Vocal*win.VocalExcitement +
		w.Speech*win.SpeechIntensity +
		w.Motion*win.MotionScore +
		w.Curiosity*win.CuriosityTrigger +
		w.Keyword*win.KeywordIntensity
}

// SignalScorer rates a span from its engagement windows alone.
type SignalScorer struct {
	weights Weights
}

// NewSignalScorer creates a scorer with the reference weights.
func NewSignalScorer() *SignalScorer {
	return &SignalScorer{weights: DefaultWeights()}
}

// Score blends the mean and peak window value, minus filler and boredom.
func (s *SignalScorer) Score(span Span) float64 {
	if len(span.Windows) == 0 {
		return 0
	}

	var sum, peak, filler, boredom float64
	for _, w := range span.Windows {
		v := s.weights.blend(w)
		sum += v
		peak = math.Max(peak, v)
		filler += w.FillerDensity
		boredom += w.BoredomScore
	}
	n := float64(len(span.Windows))

	score := 0.8*(sum/n) + 0.2*peak - 0.1*(filler/n) - 0.1*(boredom/n)
	return math.Max(0, math.Min(1, score))
}

// maxTranscriptBonus caps what overlapping cues can add to a span.
const maxTranscriptBonus = 0.2

// TranscriptScorer rewards spans overlapped by keyword-heavy or curious cues.
type TranscriptScorer struct{}

// NewTranscriptScorer creates a transcript overlap scorer.
func NewTranscriptScorer() *TranscriptScorer {
	return &TranscriptScorer{}
}

// Score returns the overlap-weighted cue strength, capped at
// maxTranscriptBonus.
func (t *TranscriptScorer) Score(span Span) float64 {
	if span.Duration <= 0 {
		return 0
	}

	var weighted float64
	for _, c := range span.Cues {
		overlap := c.Overlap(span.Start, span.End())
		if overlap <= 0 {
			continue
		}
		weighted += overlap * (0.6*c.Keyword() + 0.4*c.Curiosity())
	}
	return math.Min(maxTranscriptBonus, maxTranscriptBonus*weighted/span.Duration)
}

// CompositeScorer sums weighted scorers.
type CompositeScorer struct {
	scorers []Scorer
	weights []float64
}

// NewCompositeScorer creates a scorer that combines several scorers. A
// missing weight counts as 1.
func NewCompositeScorer(scorers []Scorer, weights []float64) *CompositeScorer {
	return &CompositeScorer{scorers: scorers, weights: weights}
}

// Score returns the weighted sum of every scorer, clamped to [0, 1].
func (c *CompositeScorer) Score(span Span) float64 {
	var total float64
	for i, s := range c.scorers {
		w := 1.0
		if i < len(c.weights) {
			w = c.weights[i]
		}
		total += w * s.Score(span)
	}
	return math.Max(0, math.Min(1, total))
}

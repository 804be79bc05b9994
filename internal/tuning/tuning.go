package tuning

import (
	"errors"
	"fmt"
)

// ErrInvalidTuning is returned by Validate for any out-of-range engine setting.
var ErrInvalidTuning = errors.New("invalid engine tuning")

// Tuning holds every numeric knob the retention engine reads. It is loaded
// once at startup and passed by value into each stage.
type Tuning struct {
	// Hook search
	HookMinSec          float64 `yaml:"hook_min_sec" toml:"hook_min_sec"`
	HookMaxSec          float64 `yaml:"hook_max_sec" toml:"hook_max_sec"`
	HookPreferredMinSec float64 `yaml:"hook_preferred_min_sec" toml:"hook_preferred_min_sec"`
	HookSections        int     `yaml:"hook_sections" toml:"hook_sections"`
	HookTopN            int     `yaml:"hook_top_n" toml:"hook_top_n"`

	// Cut bounds
	CutMinSec float64 `yaml:"cut_min_sec" toml:"cut_min_sec"`
	CutMaxSec float64 `yaml:"cut_max_sec" toml:"cut_max_sec"`

	// Emotional beats / rhythm
	EmotionalBeatThreshold   float64 `yaml:"emotional_beat_threshold" toml:"emotional_beat_threshold"`
	EmotionalBeatSpacingSec  float64 `yaml:"emotional_beat_spacing_sec" toml:"emotional_beat_spacing_sec"`
	EmotionalBeatLeadTrimSec float64 `yaml:"emotional_beat_lead_trim_sec" toml:"emotional_beat_lead_trim_sec"`
	MaxAnchors               int     `yaml:"max_anchors" toml:"max_anchors"`
	SnapToleranceSec         float64 `yaml:"snap_tolerance_sec" toml:"snap_tolerance_sec"`

	// Quality gate and retry
	MaxRetries                int     `yaml:"max_retries" toml:"max_retries"`
	ThresholdBias             float64 `yaml:"threshold_bias" toml:"threshold_bias"`
	StyleEscalationConfidence float64 `yaml:"style_escalation_confidence" toml:"style_escalation_confidence"`
	RescueMaxFixes            int     `yaml:"rescue_max_fixes" toml:"rescue_max_fixes"`
	RescueCatastrophicRatio   float64 `yaml:"rescue_catastrophic_ratio" toml:"rescue_catastrophic_ratio"`

	// Job status
	StrictStatusTransitions bool `yaml:"strict_status_transitions" toml:"strict_status_transitions"`
}

// Default returns the reference tuning.
func Default() Tuning {
	return Tuning{
		HookMinSec:          5,
		HookMaxSec:          8,
		HookPreferredMinSec: 7,
		HookSections:        4,
		HookTopN:            6,

		CutMinSec: 0.6,
		CutMaxSec: 8,

		EmotionalBeatThreshold:   0.72,
		EmotionalBeatSpacingSec:  2.5,
		EmotionalBeatLeadTrimSec: 0.15,
		MaxAnchors:               24,
		SnapToleranceSec:         0.25,

		MaxRetries:                3,
		ThresholdBias:             0,
		StyleEscalationConfidence: 0.6,
		RescueMaxFixes:            2,
		RescueCatastrophicRatio:   0.6,

		StrictStatusTransitions: true,
	}
}

// Validate reports the first setting that would make the engine misbehave.
func (t Tuning) Validate() error {
	switch {
	case t.HookMinSec <= 0:
		return fmt.Errorf("%w: hook_min_sec must be positive, got %v", ErrInvalidTuning, t.HookMinSec)
	case t.HookMaxSec < t.HookMinSec:
		return fmt.Errorf("%w: hook_max_sec %v below hook_min_sec %v", ErrInvalidTuning, t.HookMaxSec, t.HookMinSec)
	case t.HookPreferredMinSec < t.HookMinSec || t.HookPreferredMinSec > t.HookMaxSec:
		return fmt.Errorf("%w: hook_preferred_min_sec %v outside [%v, %v]", ErrInvalidTuning, t.HookPreferredMinSec, t.HookMinSec, t.HookMaxSec)
	case t.HookSections < 1:
		return fmt.Errorf("%w: hook_sections must be at least 1, got %d", ErrInvalidTuning, t.HookSections)
	case t.HookTopN < 1:
		return fmt.Errorf("%w: hook_top_n must be at least 1, got %d", ErrInvalidTuning, t.HookTopN)
	case t.CutMinSec <= 0:
		return fmt.Errorf("%w: cut_min_sec must be positive, got %v", ErrInvalidTuning, t.CutMinSec)
	case t.CutMaxSec < t.CutMinSec:
		return fmt.Errorf("%w: cut_max_sec %v below cut_min_sec %v", ErrInvalidTuning, t.CutMaxSec, t.CutMinSec)
	case t.EmotionalBeatThreshold < 0 || t.EmotionalBeatThreshold > 1:
		return fmt.Errorf("%w: emotional_beat_threshold must be in [0, 1], got %v", ErrInvalidTuning, t.EmotionalBeatThreshold)
	case t.EmotionalBeatSpacingSec < 0:
		return fmt.Errorf("%w: emotional_beat_spacing_sec cannot be negative", ErrInvalidTuning)
	case t.EmotionalBeatLeadTrimSec < 0:
		return fmt.Errorf("%w: emotional_beat_lead_trim_sec cannot be negative", ErrInvalidTuning)
	case t.MaxAnchors < 0:
		return fmt.Errorf("%w: max_anchors cannot be negative", ErrInvalidTuning)
	case t.SnapToleranceSec < 0:
		return fmt.Errorf("%w: snap_tolerance_sec cannot be negative", ErrInvalidTuning)
	case t.MaxRetries < 0:
		return fmt.Errorf("%w: max_retries cannot be negative, got %d", ErrInvalidTuning, t.MaxRetries)
	case t.StyleEscalationConfidence < 0 || t.StyleEscalationConfidence > 1:
		return fmt.Errorf("%w: style_escalation_confidence must be in [0, 1]", ErrInvalidTuning)
	case t.RescueMaxFixes < 0:
		return fmt.Errorf("%w: rescue_max_fixes cannot be negative", ErrInvalidTuning)
	case t.RescueCatastrophicRatio <= 0 || t.RescueCatastrophicRatio > 1:
		return fmt.Errorf("%w: rescue_catastrophic_ratio must be in (0, 1], got %v", ErrInvalidTuning, t.RescueCatastrophicRatio)
	}
	return nil
}

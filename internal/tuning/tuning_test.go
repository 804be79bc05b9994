package tuning

import (
	"errors"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default tuning should validate: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tuning)
	}{
		{"negative retries", func(t *Tuning) { t.MaxRetries = -1 }},
		{"inverted hook bounds", func(t *Tuning) { t.HookMaxSec = 4 }},
		{"preferred outside bounds", func(t *Tuning) { t.HookPreferredMinSec = 9 }},
		{"zero sections", func(t *Tuning) { t.HookSections = 0 }},
		{"inverted cut bounds", func(t *Tuning) { t.CutMaxSec = 0.2 }},
		{"beat threshold above one", func(t *Tuning) { t.EmotionalBeatThreshold = 1.5 }},
		{"negative tolerance", func(t *Tuning) { t.SnapToleranceSec = -0.1 }},
		{"zero catastrophic ratio", func(t *Tuning) { t.RescueCatastrophicRatio = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidTuning) {
				t.Errorf("expected ErrInvalidTuning, got %v", err)
			}
		})
	}
}

func TestAggression(t *testing.T) {
	if !(Safe < Medium && Medium < High && High < Viral) {
		t.Fatal("aggression levels out of order")
	}
	if Viral.Next() != Viral {
		t.Errorf("viral should saturate, got %s", Viral.Next())
	}
	if Medium.Next() != High {
		t.Errorf("expected high after medium, got %s", Medium.Next())
	}

	a, err := ParseAggression("viral")
	if err != nil || a != Viral {
		t.Errorf("ParseAggression(viral) = %v, %v", a, err)
	}
	if a, err := ParseAggression(""); err != nil || a != Medium {
		t.Errorf("empty aggression should default to medium, got %v, %v", a, err)
	}
	if _, err := ParseAggression("ludicrous"); err == nil {
		t.Error("expected error for unknown level")
	}

	var back Aggression
	if err := back.UnmarshalText([]byte("high")); err != nil || back != High {
		t.Errorf("UnmarshalText(high) = %v, %v", back, err)
	}
}

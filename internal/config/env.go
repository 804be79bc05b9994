package config

import (
	"fmt"
	"strconv"
	"strings"
)

const envPrefix = "VIBECUT_"

type lookupFunc func(string) (string, bool)

// applyEnv overrides settings from VIBECUT_* variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	floats := []struct {
		name string
		dst  *float64
	}{
		{"HOOK_MIN_SEC", &c.Engine.HookMinSec},
		{"HOOK_MAX_SEC", &c.Engine.HookMaxSec},
		{"CUT_MIN_SEC", &c.Engine.CutMinSec},
		{"CUT_MAX_SEC", &c.Engine.CutMaxSec},
		{"EMOTIONAL_BEAT_THRESHOLD", &c.Engine.EmotionalBeatThreshold},
		{"EMOTIONAL_BEAT_SPACING_SEC", &c.Engine.EmotionalBeatSpacingSec},
		{"EMOTIONAL_BEAT_LEAD_TRIM_SEC", &c.Engine.EmotionalBeatLeadTrimSec},
		{"THRESHOLD_BIAS", &c.Engine.ThresholdBias},
	}
	for _, f := range floats {
		v, ok := lookup(envPrefix + f.name)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, f.name, err)
		}
		*f.dst = parsed
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"MAX_RETRIES", &c.Engine.MaxRetries},
		{"CONCURRENCY", &c.Concurrency},
	}
	for _, i := range ints {
		v, ok := lookup(envPrefix + i.name)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, i.name, err)
		}
		*i.dst = parsed
	}

	if v, ok := lookup(envPrefix + "STRICT_STATUS_TRANSITIONS"); ok {
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sSTRICT_STATUS_TRANSITIONS: %w", envPrefix, err)
		}
		c.Engine.StrictStatusTransitions = parsed
	}

	if v, ok := lookup(envPrefix + "STORE_DIR"); ok && v != "" {
		c.StoreDir = v
	}
	if v, ok := lookup(envPrefix + "FFMPEG_PATH"); ok && v != "" {
		c.FFmpeg.BinaryPath = v
	}

	// A lowered hook minimum drags the preferred length with it.
	if c.Engine.HookPreferredMinSec < c.Engine.HookMinSec {
		c.Engine.HookPreferredMinSec = c.Engine.HookMinSec
	}
	if c.Engine.HookPreferredMinSec > c.Engine.HookMaxSec {
		c.Engine.HookPreferredMinSec = c.Engine.HookMaxSec
	}
	return nil
}

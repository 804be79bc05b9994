package signature

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func baseConfig() Config {
	return Config{
		StrategyProfile:        "balanced",
		TargetPlatform:         "tiktok",
		EditorMode:             "auto",
		MaxCuts:                12,
		LongFormAggression:     "medium",
		LongFormClarityVsSpeed: 0.5,
		TangentKiller:          false,
		DurationSeconds:        61.2,
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build(baseConfig())
	b := Build(baseConfig())
	if a != b {
		t.Errorf("same config produced %s and %s", a, b)
	}
	if !strings.HasPrefix(a, version+"-") {
		t.Errorf("signature missing version prefix: %s", a)
	}
}

func TestBuild_ClarityKeepsFullPrecision(t *testing.T) {
	a, b := baseConfig(), baseConfig()
	a.LongFormClarityVsSpeed = 0.501
	b.LongFormClarityVsSpeed = 0.504
	if Build(a) == Build(b) {
		t.Errorf("clarity 0.501 and 0.504 collide: %s", Canonical(a))
	}

	neg := baseConfig()
	neg.LongFormClarityVsSpeed = math.Copysign(0, -1)
	zero := baseConfig()
	zero.LongFormClarityVsSpeed = 0
	if Build(neg) != Build(zero) {
		t.Errorf("negative zero changed the signature: %s", Canonical(neg))
	}
}

func TestBuild_Normalizes(t *testing.T) {
	messy := baseConfig()
	messy.TargetPlatform = "  TikTok "
	messy.StrategyProfile = "BALANCED"
	messy.DurationSeconds = 60.8
	if Build(messy) != Build(baseConfig()) {
		t.Errorf("cosmetic differences changed the signature:\n%s\n%s", Canonical(messy), Canonical(baseConfig()))
	}
}

func TestFromMap_IgnoresOrderAndSpelling(t *testing.T) {
	camel := map[string]any{
		"strategyProfile":        "balanced",
		"targetPlatform":         "tiktok",
		"editorMode":             "auto",
		"maxCuts":                12,
		"longFormAggression":     "medium",
		"longFormClarityVsSpeed": 0.5,
		"tangentKiller":          false,
		"durationSeconds":        61.2,
	}
	snake := map[string]any{}
	snake["duration_seconds"] = "61.2"
	snake["tangent_killer"] = "false"
	snake["long_form_clarity_vs_speed"] = 0.5
	snake["long_form_aggression"] = "medium"
	snake["max_cuts"] = 12.0
	snake["editor_mode"] = "auto"
	snake["target_platform"] = "tiktok"
	snake["strategy_profile"] = "balanced"

	a, err := FromMap(camel)
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromMap(snake)
	if err != nil {
		t.Fatal(err)
	}
	if a != baseConfig() || b != baseConfig() {
		t.Fatalf("maps decoded differently:\n%+v\n%+v", a, b)
	}
	if Build(a) != Build(b) {
		t.Error("equivalent maps produced different signatures")
	}
}

func TestFromMap_RejectsUnknownField(t *testing.T) {
	_, err := FromMap(map[string]any{"targetPlatform": "tiktok", "musicBed": "lofi"})
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
	if _, err := FromMap(map[string]any{"maxCuts": "many"}); err == nil {
		t.Error("expected error for non-numeric maxCuts")
	}
}

func TestBuild_UniqueAcrossCombinations(t *testing.T) {
	seen := map[string]Config{}
	total := 0
	for _, strategy := range []string{"balanced", "hook_first", "story_arc"} {
		for _, platform := range []string{"tiktok", "youtube_shorts", "instagram_reels"} {
			for _, mode := range []string{"auto", "manual"} {
				for _, cuts := range []int{8, 12} {
					for _, aggression := range []string{"medium", "high"} {
						for _, clarity := range []float64{0.3, 0.7} {
							for _, tangent := range []bool{true, false} {
								c := Config{
									StrategyProfile:        strategy,
									TargetPlatform:         platform,
									EditorMode:             mode,
									MaxCuts:                cuts,
									LongFormAggression:     aggression,
									LongFormClarityVsSpeed: clarity,
									TangentKiller:          tangent,
									DurationSeconds:        90,
								}
								sig := Build(c)
								if prev, dup := seen[sig]; dup {
									t.Fatalf("collision between %+v and %+v", prev, c)
								}
								seen[sig] = c
								total++
							}
						}
					}
				}
			}
		}
	}
	if total < 140 {
		t.Fatalf("expected at least 140 combinations, got %d", total)
	}
}

func TestBuild_SingleFactorSweeps(t *testing.T) {
	sweeps := []struct {
		n     int
		apply func(*Config, int)
	}{
		{3, func(c *Config, i int) { c.StrategyProfile = []string{"hook_first", "story_arc", "retention_max"}[i] }},
		{3, func(c *Config, i int) { c.TargetPlatform = []string{"youtube_shorts", "instagram_reels", "youtube"}[i] }},
		{2, func(c *Config, i int) { c.EditorMode = []string{"manual", "assisted"}[i] }},
		{4, func(c *Config, i int) { c.MaxCuts = 4 + i*3 }},
		{3, func(c *Config, i int) { c.LongFormAggression = []string{"safe", "high", "viral"}[i] }},
		{4, func(c *Config, i int) { c.LongFormClarityVsSpeed = 0.1 + float64(i)*0.25 }},
		{1, func(c *Config, _ int) { c.TangentKiller = true }},
		{4, func(c *Config, i int) { c.DurationSeconds = 30 + float64(i)*15 }},
	}

	base := Build(baseConfig())
	seen := map[string]bool{base: true}
	total, unique := 0, 0
	for _, sweep := range sweeps {
		for i := 0; i < sweep.n; i++ {
			c := baseConfig()
			sweep.apply(&c, i)
			sig := Build(c)
			total++
			if !seen[sig] {
				unique++
				seen[sig] = true
			}
		}
	}

	if rate := float64(unique) / float64(total); rate < 0.9 {
		t.Errorf("single-factor uniqueness %.2f below 0.90 (%d of %d)", rate, unique, total)
	}
}

func TestDurationBucket(t *testing.T) {
	tests := map[float64]string{0: "0s", 59.6: "60s", 60.4: "60s", -3: "0s"}
	for in, want := range tests {
		if got := DurationBucket(in); got != want {
			t.Errorf("DurationBucket(%v) = %s, want %s", in, got, want)
		}
	}
}

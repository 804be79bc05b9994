package hook

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/kikiluvv/vibecut/internal/signals"
	"github.com/kikiluvv/vibecut/internal/tuning"
)

func flatWindows(n int, level float64) []signals.EngagementWindow {
	out := make([]signals.EngagementWindow, n)
	for i := range out {
		out[i] = signals.EngagementWindow{
			Time:             float64(i),
			HookScore:        level,
			EmotionIntensity: level,
			VocalExcitement:  level,
			SpeechIntensity:  level,
			MotionScore:      level,
		}
	}
	return out
}

func randomInput(seed int64) ([]signals.EngagementWindow, []signals.TranscriptCue, float64) {
	r := rand.New(rand.NewSource(seed))
	duration := 30 + float64(r.Intn(150))

	windows := make([]signals.EngagementWindow, int(duration))
	for i := range windows {
		windows[i] = signals.EngagementWindow{
			Time:             float64(i),
			HookScore:        r.Float64(),
			EmotionIntensity: r.Float64(),
			VocalExcitement:  r.Float64(),
			SpeechIntensity:  r.Float64(),
			MotionScore:      r.Float64(),
			CuriosityTrigger: r.Float64(),
			KeywordIntensity: r.Float64(),
			FillerDensity:    r.Float64() * 0.3,
			BoredomScore:     r.Float64() * 0.5,
		}
	}

	phrases := []string{"wait for it", "this is the secret", "um so like", "you won't believe this?", "okay"}
	var cues []signals.TranscriptCue
	for t := 0.0; t < duration-3; t += 2 + r.Float64()*6 {
		cues = append(cues, signals.TranscriptCue{
			Start: t,
			End:   t + 1 + r.Float64()*2,
			Text:  phrases[r.Intn(len(phrases))],
		})
	}
	return signals.NormalizeWindows(windows, duration), signals.NormalizeCues(cues, duration), duration
}

func TestPickTopCandidates_Deterministic(t *testing.T) {
	cfg := tuning.Default()
	for seed := int64(1); seed <= 5; seed++ {
		windows, cues, duration := randomInput(seed)
		a := PickTopCandidates(windows, cues, duration, cfg)
		b := PickTopCandidates(windows, cues, duration, cfg)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("seed %d: results differ:\n%+v\n%+v", seed, a.Selected, b.Selected)
		}
	}
}

func TestPickTopCandidates_DurationBounds(t *testing.T) {
	cfg := tuning.Default()
	for seed := int64(10); seed < 30; seed++ {
		windows, cues, duration := randomInput(seed)
		res := PickTopCandidates(windows, cues, duration, cfg)

		all := append([]Candidate{res.Selected}, res.TopCandidates...)
		for _, c := range all {
			if c.Duration < cfg.HookMinSec || c.Duration > cfg.HookMaxSec {
				t.Errorf("seed %d: duration %v outside [%v, %v]", seed, c.Duration, cfg.HookMinSec, cfg.HookMaxSec)
			}
			if !c.Valid(duration) {
				t.Errorf("seed %d: candidate %+v not inside %vs timeline", seed, c, duration)
			}
		}
	}
}

func TestPickTopCandidates_SectionCoverage(t *testing.T) {
	windows := flatWindows(96, 0.2)
	for i := 30; i < 38; i++ {
		windows[i].HookScore = 0.95
		windows[i].EmotionIntensity = 0.9
		windows[i].VocalExcitement = 0.9
		windows[i].SpeechIntensity = 0.8
		windows[i].MotionScore = 0.8
	}

	res := PickTopCandidates(windows, nil, 96, tuning.Default())
	if res.Sections != 4 {
		t.Fatalf("expected 4 sections for 96s, got %d", res.Sections)
	}

	seen := map[int]bool{}
	for _, c := range res.TopCandidates {
		seen[c.Section] = true
	}
	if len(seen) < 3 {
		t.Errorf("expected at least 3 sections represented, got %d: %+v", len(seen), res.TopCandidates)
	}
	if res.Selected.Section != 1 {
		t.Errorf("expected selection from the dominant section 1, got section %d (start %v)", res.Selected.Section, res.Selected.Start)
	}
	if res.Selected.Start < 24 || res.Selected.Start >= 48 {
		t.Errorf("selected start %v outside dominant section", res.Selected.Start)
	}
}

func TestPickTopCandidates_TiesPreferEarliest(t *testing.T) {
	res := PickTopCandidates(flatWindows(96, 0.5), nil, 96, tuning.Default())
	if res.Selected.Start != 0 {
		t.Errorf("equal scores should resolve to the earliest start, got %v", res.Selected.Start)
	}
	if res.Selected.Duration < tuning.Default().HookPreferredMinSec {
		t.Errorf("expected preferred-length hook, got %v", res.Selected.Duration)
	}
}

func TestPickTopCandidates_TranscriptBonus(t *testing.T) {
	windows := flatWindows(96, 0.4)
	cues := signals.NormalizeCues([]signals.TranscriptCue{
		{Start: 52, End: 55, Text: "You won't believe this secret?"},
	}, 96)

	res := PickTopCandidates(windows, cues, 96, tuning.Default())
	if res.Selected.Basis != BasisTranscript {
		t.Errorf("expected transcript-backed hook, got %s", res.Selected.Basis)
	}
	if res.Selected.Section != 2 {
		t.Errorf("expected the cue's section to win, got %d", res.Selected.Section)
	}
	if !strings.Contains(res.Selected.Text, "secret") {
		t.Errorf("expected cue text on candidate, got %q", res.Selected.Text)
	}
}

func TestPickTopCandidates_NoTranscript(t *testing.T) {
	windows, _, duration := randomInput(3)
	res := PickTopCandidates(windows, nil, duration, tuning.Default())
	if res.Selected.Basis != BasisSignal {
		t.Errorf("expected signal-only hook, got %s", res.Selected.Basis)
	}
	if res.Selected.Score <= 0 {
		t.Errorf("expected a positive signal score, got %v", res.Selected.Score)
	}
}

func TestPickTopCandidates_NoData(t *testing.T) {
	cfg := tuning.Default()
	res := PickTopCandidates(nil, nil, 60, cfg)
	if !res.Selected.Synthetic() {
		t.Errorf("expected synthetic hook, got %s", res.Selected.Basis)
	}
	if res.Selected.Start != 0 || res.Selected.Duration != cfg.HookMinSec {
		t.Errorf("unexpected synthetic hook %+v", res.Selected)
	}
	if len(res.TopCandidates) != 1 {
		t.Errorf("expected one top candidate, got %d", len(res.TopCandidates))
	}
}

func TestPickTopCandidates_ShortTimeline(t *testing.T) {
	res := PickTopCandidates(flatWindows(3, 0.6), nil, 3, tuning.Default())
	if res.Selected.Start != 0 || res.Selected.Duration != 3 {
		t.Errorf("expected a hook spanning the whole 3s clip, got %+v", res.Selected)
	}
}

func TestRenderFloor_Relaxes(t *testing.T) {
	nominal := RenderFloor(tuning.Medium, true, 0.9)
	if got := RenderFloor(tuning.Medium, false, 0.9); got >= nominal {
		t.Errorf("missing transcript should relax floor: %v >= %v", got, nominal)
	}
	if got := RenderFloor(tuning.Medium, true, 0.2); got >= nominal {
		t.Errorf("weak signal should relax floor: %v >= %v", got, nominal)
	}
	if RenderFloor(tuning.Viral, true, 0.9) <= nominal {
		t.Error("viral should demand more than medium")
	}
}

func TestSelectRenderable(t *testing.T) {
	cfg := tuning.Default()

	t.Run("clears floor", func(t *testing.T) {
		cands := []Candidate{
			{Start: 4, Duration: 6, Score: 30},
			{Start: 20, Duration: 7, Score: 70},
		}
		d := SelectRenderable(cands, nil, tuning.Medium, true, 0.9, cfg)
		if d.Fallback || d.Candidate.Start != 20 {
			t.Errorf("expected the 70-point hook without fallback, got %+v", d)
		}
	})

	t.Run("below floor still renders", func(t *testing.T) {
		d := SelectRenderable([]Candidate{{Start: 2, Duration: 5, Score: 5}}, nil, tuning.Viral, true, 0.9, cfg)
		if !d.Fallback || d.Candidate.Start != 2 {
			t.Errorf("expected fallback to the weak candidate, got %+v", d)
		}
	})

	t.Run("invalid candidates use fallback", func(t *testing.T) {
		fb := Candidate{Start: 1, Duration: 6, Basis: BasisSignal}
		d := SelectRenderable([]Candidate{{Start: 3, Duration: 0}}, &fb, tuning.Medium, false, 0.1, cfg)
		if d.Candidate.Start != 1 || !d.Fallback {
			t.Errorf("expected fallback candidate, got %+v", d)
		}
	})

	t.Run("nothing at all", func(t *testing.T) {
		d := SelectRenderable(nil, nil, tuning.Safe, false, 0, cfg)
		if !d.Candidate.Synthetic() || d.Candidate.Duration != cfg.HookMinSec {
			t.Errorf("expected synthetic opening hook, got %+v", d)
		}
	})

	t.Run("trims long candidate", func(t *testing.T) {
		d := SelectRenderable([]Candidate{{Start: 0, Duration: 12, Score: 90}}, nil, tuning.Medium, true, 1, cfg)
		if d.Candidate.Duration != cfg.HookMaxSec {
			t.Errorf("expected duration trimmed to %v, got %v", cfg.HookMaxSec, d.Candidate.Duration)
		}
	})
}

package pacing

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/kikiluvv/vibecut/internal/signals"
	"github.com/kikiluvv/vibecut/internal/style"
	"github.com/kikiluvv/vibecut/internal/tuning"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func reactionProfile(confidence float64) style.Profile {
	return style.Profile{
		Style:         style.Reaction,
		Niche:         style.HighEnergy,
		Confidence:    confidence,
		TempoBias:     0.35 * confidence,
		InterruptBias: 0.30 * confidence,
	}
}

func TestStyleAdjustedAggression(t *testing.T) {
	cfg := tuning.Default()
	gaming := style.Profile{Style: style.Gaming, Confidence: 0.8}
	vlog := style.Profile{Style: style.Vlog, Confidence: 0.95}

	tests := []struct {
		name string
		base tuning.Aggression
		sp   style.Profile
		want tuning.Aggression
	}{
		{"confident reaction escalates", tuning.Medium, reactionProfile(0.9), tuning.High},
		{"confident gaming escalates high", tuning.High, gaming, tuning.Viral},
		{"weak reaction holds", tuning.Medium, reactionProfile(0.3), tuning.Medium},
		{"vlog holds", tuning.Medium, vlog, tuning.Medium},
		{"viral saturates", tuning.Viral, gaming, tuning.Viral},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StyleAdjustedAggression(tc.base, tc.sp, cfg); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}

	for _, s := range style.Styles() {
		for a := tuning.Safe; a <= tuning.Viral; a++ {
			sp := style.Profile{Style: s, Confidence: 0.99}
			if got := StyleAdjustedAggression(a, sp, cfg); got < a {
				t.Errorf("%s de-escalated %s to %s", s, a, got)
			}
		}
	}
}

func TestBaseProfile(t *testing.T) {
	cfg := tuning.Default()
	if len(nicheProfiles) != len(style.Niches()) {
		t.Fatalf("expected a pacing profile per niche, got %d for %d niches", len(nicheProfiles), len(style.Niches()))
	}

	for _, n := range style.Niches() {
		safe := BaseProfile(n, tuning.Safe, cfg)
		viral := BaseProfile(n, tuning.Viral, cfg)
		if viral.MinLen >= safe.MinLen {
			t.Errorf("%s: viral should cut tighter than safe (%v >= %v)", n, viral.MinLen, safe.MinLen)
		}
		if viral.SpeedCap < safe.SpeedCap {
			t.Errorf("%s: viral speed cap %v below safe %v", n, viral.SpeedCap, safe.SpeedCap)
		}
		for _, p := range []Profile{safe, viral} {
			if p.MinLen < cfg.CutMinSec || p.MaxLen > cfg.CutMaxSec || p.MaxLen < p.MinLen {
				t.Errorf("%s: lengths outside cut bounds: %+v", n, p)
			}
			if p.SpeedCap < MinSpeed || p.SpeedCap > MaxSpeed {
				t.Errorf("%s: speed cap out of range: %v", n, p.SpeedCap)
			}
			if p.Niche != n {
				t.Errorf("expected niche %s, got %s", n, p.Niche)
			}
		}
	}
}

func TestApplyStyle(t *testing.T) {
	cfg := tuning.Default()
	base := BaseProfile(style.HighEnergy, tuning.Medium, cfg)
	snapshot := base

	t.Run("high tempo tightens", func(t *testing.T) {
		got := ApplyStyle(base, reactionProfile(0.9), true)
		if got.MinLen >= base.MinLen {
			t.Errorf("minLen should strictly decrease: %v >= %v", got.MinLen, base.MinLen)
		}
		if got.SpeedCap < base.SpeedCap {
			t.Errorf("speed cap should not drop: %v < %v", got.SpeedCap, base.SpeedCap)
		}
		if got.Jitter <= base.Jitter {
			t.Errorf("interrupt bias should add jitter: %v <= %v", got.Jitter, base.Jitter)
		}
	})

	t.Run("high tempo tightens at zero confidence", func(t *testing.T) {
		got := ApplyStyle(base, style.Profile{Style: style.Gaming}, false)
		if got.MinLen >= base.MinLen {
			t.Errorf("minLen should strictly decrease: %v >= %v", got.MinLen, base.MinLen)
		}
	})

	t.Run("slow style lengthens", func(t *testing.T) {
		tut := style.Profile{Style: style.Tutorial, Confidence: 0.8, TempoBias: -0.16}
		got := ApplyStyle(base, tut, false)
		if got.MinLen <= base.MinLen {
			t.Errorf("tutorial should lengthen cuts: %v <= %v", got.MinLen, base.MinLen)
		}
		if got.SpeedCap != base.SpeedCap {
			t.Errorf("speed cap should be unchanged, got %v", got.SpeedCap)
		}
	})

	if !reflect.DeepEqual(base, snapshot) {
		t.Errorf("ApplyStyle mutated its input: %+v", base)
	}
}

func TestAlignToRhythm_SnapsBoundaries(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 3.12, Speed: 1},
		{Start: 3.12, End: 6.14, Speed: 1},
		{Start: 6.14, End: 9.2, Speed: 1},
	}
	in := AlignInput{Segments: segments, DurationSeconds: 9.2, Anchors: []float64{3, 6, 9}}

	got := AlignToRhythm(in, tuning.Default())
	if !near(got[0].End, 3) || !near(got[1].Start, 3) {
		t.Errorf("boundary 1 should snap to 3.00, got %v/%v", got[0].End, got[1].Start)
	}
	if !near(got[1].End, 6) || !near(got[2].Start, 6) {
		t.Errorf("boundary 2 should snap to 6.00, got %v/%v", got[1].End, got[2].Start)
	}
	if got[0].Start != 0 || got[2].End != 9.2 {
		t.Errorf("outer boundaries moved: %+v", got)
	}
	if !Contiguous(got) {
		t.Errorf("segments lost contiguity: %+v", got)
	}
	if segments[0].End != 3.12 {
		t.Error("input segments were mutated")
	}
}

func TestAlignToRhythm_LeavesDistantBoundaries(t *testing.T) {
	segments := []Segment{{Start: 0, End: 4.5, Speed: 1}, {Start: 4.5, End: 9, Speed: 1}}
	got := AlignToRhythm(AlignInput{Segments: segments, DurationSeconds: 9, Anchors: []float64{3, 6}}, tuning.Default())
	if got[0].End != 4.5 {
		t.Errorf("boundary outside tolerance moved to %v", got[0].End)
	}
}

func TestAlignToRhythm_KeepsMinimumLength(t *testing.T) {
	segments := []Segment{{Start: 0, End: 0.5, Speed: 1}, {Start: 0.5, End: 3, Speed: 1}}
	got := AlignToRhythm(AlignInput{Segments: segments, DurationSeconds: 3, Anchors: []float64{0.3}}, tuning.Default())
	if got[0].End != 0.5 {
		t.Errorf("snap below the minimum segment length moved boundary to %v", got[0].End)
	}
}

func TestAlignToRhythm_AcrossGap(t *testing.T) {
	segments := []Segment{{Start: 0, End: 2.9, Speed: 1}, {Start: 5.2, End: 8, Speed: 1}}
	got := AlignToRhythm(AlignInput{Segments: segments, DurationSeconds: 8, Anchors: []float64{3, 5}}, tuning.Default())
	if !near(got[0].End, 3) || !near(got[1].Start, 5) {
		t.Errorf("expected independent snaps to 3 and 5, got %+v", got)
	}
}

func TestDeriveAnchors(t *testing.T) {
	windows := make([]signals.EngagementWindow, 30)
	for i := range windows {
		windows[i] = signals.EngagementWindow{Time: float64(i), EmotionIntensity: 0.2}
	}
	windows[5].EmotionIntensity = 0.95
	windows[6].EmotionIntensity = 0.9
	windows[15].EmotionIntensity = 0.85
	windows[25].EmotionalSpike = 1
	windows[25].VocalExcitement = 0.8

	got := DeriveAnchors(windows, tuning.Default())
	want := []float64{4.85, 14.85, 24.85}
	if len(got) != len(want) {
		t.Fatalf("expected %d anchors, got %v", len(want), got)
	}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("anchor %d: got %v, want %v", i, got[i], want[i])
		}
	}

	if DeriveAnchors(nil, tuning.Default()) != nil {
		t.Error("expected no anchors for no windows")
	}

	capped := tuning.Default()
	capped.MaxAnchors = 1
	if got := DeriveAnchors(windows, capped); len(got) != 1 || !near(got[0], 4.85) {
		t.Errorf("expected only the strongest beat, got %v", got)
	}
}

func planWindows(n int) []signals.EngagementWindow {
	out := make([]signals.EngagementWindow, n)
	for i := range out {
		out[i] = signals.EngagementWindow{
			Time:            float64(i),
			AudioEnergy:     0.6,
			SpeechIntensity: 0.6,
			MotionScore:     0.6,
			BoredomScore:    0.1,
		}
	}
	return out
}

func TestPlan(t *testing.T) {
	cfg := tuning.Default()
	windows := planWindows(60)
	for i := 20; i < 30; i++ {
		windows[i].BoredomScore = 0.9
	}

	res := Plan(PlanInput{
		DurationSeconds: 60,
		Windows:         windows,
		Hook:            Range{Start: 0, End: 8},
		Profile:         BaseProfile(style.TalkingHead, tuning.Medium, cfg),
	})

	if len(res.RemovedRanges) != 1 || res.RemovedRanges[0] != (Range{Start: 20, End: 30}) {
		t.Fatalf("expected [20,30) removed, got %+v", res.RemovedRanges)
	}
	if len(res.Segments) == 0 {
		t.Fatal("expected segments")
	}
	for i, s := range res.Segments {
		if s.Duration() < MinSegmentSec {
			t.Errorf("segment %d too short: %+v", i, s)
		}
		if s.Start < 30 && s.End > 20 {
			t.Errorf("segment %d overlaps the removed range: %+v", i, s)
		}
		if s.Speed != 1 {
			t.Errorf("energetic segment %d should play at 1x, got %v", i, s.Speed)
		}
	}
	if res.Segments[0].Start != 0 || res.Segments[len(res.Segments)-1].End != 60 {
		t.Errorf("segments should span the kept runs: %+v", res.Segments)
	}
	if res.PatternInterrupts == 0 {
		t.Error("expected pattern interrupts over a 50s edit")
	}
}

func TestPlan_HookIsNeverRemoved(t *testing.T) {
	windows := planWindows(30)
	for i := 0; i < 10; i++ {
		windows[i].BoredomScore = 0.9
	}
	res := Plan(PlanInput{
		DurationSeconds: 30,
		Windows:         windows,
		Hook:            Range{Start: 0, End: 8},
		Profile:         BaseProfile(style.TalkingHead, tuning.Medium, tuning.Default()),
	})
	if len(res.RemovedRanges) != 1 || res.RemovedRanges[0] != (Range{Start: 8, End: 10}) {
		t.Errorf("expected only [8,10) removed, got %+v", res.RemovedRanges)
	}
}

func TestPlan_SpeedsUpLowEnergy(t *testing.T) {
	windows := make([]signals.EngagementWindow, 40)
	for i := range windows {
		windows[i] = signals.EngagementWindow{Time: float64(i)}
	}
	p := BaseProfile(style.HighEnergy, tuning.Medium, tuning.Default())
	res := Plan(PlanInput{DurationSeconds: 40, Windows: windows, Hook: Range{Start: 0, End: 6}, Profile: p})

	for _, s := range res.Segments {
		if s.Start < 6 {
			if s.Speed != 1 {
				t.Errorf("hook segment sped up: %+v", s)
			}
			continue
		}
		if s.Speed <= 1 || s.Speed > p.SpeedCap+1e-9 {
			t.Errorf("expected speed in (1, %v], got %+v", p.SpeedCap, s)
		}
	}
}

func TestPlan_RetriesRelaxCutoff(t *testing.T) {
	p := BaseProfile(style.TalkingHead, tuning.Medium, tuning.Default())
	base := Plan(PlanInput{DurationSeconds: 20, Windows: planWindows(20), Profile: p})
	retry := Plan(PlanInput{DurationSeconds: 20, Windows: planWindows(20), Profile: p, Escalation: Escalation{Attempt: 2, TightenPacing: true}})
	if retry.BoredomCutoff >= base.BoredomCutoff {
		t.Errorf("retry cutoff %v should be below baseline %v", retry.BoredomCutoff, base.BoredomCutoff)
	}
	if retry.BoredomCutoff < boredomCutoffFloor {
		t.Errorf("cutoff fell below floor: %v", retry.BoredomCutoff)
	}
}

func TestPlan_ZeroProfileTerminates(t *testing.T) {
	done := make(chan PlanResult, 1)
	go func() {
		done <- Plan(PlanInput{DurationSeconds: 20, Windows: planWindows(20)})
	}()

	var res PlanResult
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Plan did not return for a zero profile")
	}

	if len(res.Segments) == 0 {
		t.Fatal("expected segments")
	}
	for _, s := range res.Segments {
		if s.Duration() < MinSegmentSec-1e-9 {
			t.Errorf("segment shorter than minimum: %+v", s)
		}
	}
	if !Contiguous(res.Segments) {
		t.Errorf("segments not contiguous: %+v", res.Segments)
	}
	if got := res.Segments[len(res.Segments)-1].End; !near(got, 20) {
		t.Errorf("last end = %v, want 20", got)
	}
}

func TestNormalizeSegments(t *testing.T) {
	got := NormalizeSegments([]Segment{
		{Start: 5, End: 9, Speed: 2.5},
		{Start: -1, End: 2},
		{Start: 3, End: 3.2, Speed: 1},
		{Start: 8, End: 14, Speed: 1.2},
	}, 12)
	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %+v", got)
	}
	if got[0].Start != 0 || got[0].Speed != 1 {
		t.Errorf("expected clamped start and default speed, got %+v", got[0])
	}
	if got[1].Speed != MaxSpeed {
		t.Errorf("expected speed capped at %v, got %v", MaxSpeed, got[1].Speed)
	}
	if got[2].End != 12 {
		t.Errorf("expected end clamped to duration, got %v", got[2].End)
	}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/vibecut/internal/ffmpeg"
	"github.com/kikiluvv/vibecut/internal/hook"
	"github.com/kikiluvv/vibecut/internal/pacing"
	"github.com/kikiluvv/vibecut/internal/quality"
	"github.com/kikiluvv/vibecut/internal/retry"
	"github.com/kikiluvv/vibecut/internal/signals"
	"github.com/kikiluvv/vibecut/internal/style"
	"github.com/kikiluvv/vibecut/internal/tuning"
	"github.com/kikiluvv/vibecut/pkg/util"
)

const (
	// hookPunchIn is the zoom applied to the hook when a retry asks for a
	// stronger one.
	hookPunchIn = 1.06
	// hookPunchInLift is the hook strength credited per stronger-hook retry.
	hookPunchInLift = 8.0
)

// sourceInfo is what the pipeline knows about the source media.
type sourceInfo struct {
	path     string
	duration float64
	hasAudio bool
	width    int
	height   int
}

// renderable reports whether there is a file to encode from.
func (s sourceInfo) renderable() bool {
	return s.path != ""
}

func (p *Pipeline) probeSource(ctx context.Context, job *Job, logger zerolog.Logger) (sourceInfo, error) {
	src := sourceInfo{duration: job.DurationSeconds}
	if job.Source == "" {
		return src, nil
	}
	if p.ffmpeg == nil {
		logger.Warn().Str("source", job.Source).Msg("no ffmpeg, planning without rendering")
		return src, nil
	}
	if !util.FileExists(job.Source) {
		return src, fmt.Errorf("job %s: source %s not found", job.ID, job.Source)
	}

	info, err := p.ffmpeg.ProbeVideo(ctx, job.Source)
	if err != nil {
		return src, fmt.Errorf("job %s: %w", job.ID, err)
	}
	src.path = job.Source
	src.hasAudio = info.HasAudio
	src.width, src.height = info.Width, info.Height
	if src.duration <= 0 {
		src.duration = info.Seconds()
	}
	return src, nil
}

// EditRenderer is the per-job render collaborator for the retry loop. Each
// attempt plans an edit with the escalation the previous report asked for,
// aligns it to the rhythm anchors, encodes it when a source is available,
// and returns the telemetry the quality gate judges.
type EditRenderer struct {
	logger   zerolog.Logger
	exec     *ffmpeg.Executor
	tuning   tuning.Tuning
	source   sourceInfo
	job      *Job
	windows  []signals.EngagementWindow
	timeline float64
	anchors  []float64
	profile  pacing.Profile
	style    style.Profile
	hook     hook.Candidate
	gate     quality.GateInput
	captions bool
	vertical bool
	outDir   string

	mu       sync.Mutex
	plans    map[int]pacing.PlanResult
	punchIns int
}

// Render plans, aligns and encodes one attempt.
func (r *EditRenderer) Render(ctx context.Context, req retry.Request) (retry.Output, error) {
	esc := req.Fixes.Escalation(req.Attempt)
	h, lift := r.hookFor(req.Fixes.StrongerHook)
	punchIn := lift > 0
	hookRange := pacing.Range{Start: h.Start, End: h.End()}

	plan := pacing.Plan(pacing.PlanInput{
		DurationSeconds: r.timeline,
		Windows:         r.windows,
		Hook:            hookRange,
		Profile:         r.profile,
		Style:           r.style,
		Escalation:      esc,
	})
	plan.Segments = pacing.AlignToRhythm(pacing.AlignInput{
		Segments:        plan.Segments,
		DurationSeconds: r.timeline,
		Anchors:         r.anchors,
		Style:           r.style,
	}, r.tuning)
	r.remember(req.Attempt, plan)

	r.logger.Debug().
		Int("attempt", req.Attempt).
		Int("segments", len(plan.Segments)).
		Int("removed", len(plan.RemovedRanges)).
		Int("interrupts", plan.PatternInterrupts).
		Float64("boredom_cutoff", plan.BoredomCutoff).
		Msg("edit planned")

	retention := quality.PredictRetention(r.windows, plan.Segments, plan.RemovedRanges, h)
	if r.job.RetentionScore != nil {
		retention = *r.job.RetentionScore
	}

	judged := h
	judged.Score = math.Min(100, judged.Score+lift)

	out := retry.Output{
		Telemetry: quality.ReportInput{
			Gate:                  r.gate,
			RetentionScore:        retention,
			Hook:                  judged,
			Windows:               r.windows,
			ClarityPenalty:        r.job.ClarityPenalty,
			CaptionsEnabled:       r.captions,
			PatternInterruptCount: plan.PatternInterrupts,
			RemovedRanges:         plan.RemovedRanges,
			Segments:              plan.Segments,
		},
	}

	if !r.source.renderable() || r.exec == nil {
		return out, nil
	}

	artifact := filepath.Join(r.outDir, r.job.ID, retry.Label(req.Attempt)+".mp4")
	_, err := r.exec.RenderEdit(ctx, ffmpeg.EditOptions{
		Input:          r.source.path,
		Output:         artifact,
		Segments:       playOrder(h, plan.Segments, punchIn),
		SourceDuration: r.source.duration,
		HasAudio:       r.source.hasAudio,
		Vertical:       r.vertical,
		Width:          r.source.width,
		Height:         r.source.height,
		Subtitles:      r.job.Subtitles,
	})
	if err != nil {
		if errors.Is(err, ffmpeg.ErrNoSegments) {
			r.logger.Warn().Int("attempt", req.Attempt).Msg("nothing to render for this attempt")
			return out, nil
		}
		return retry.Output{}, err
	}
	out.Artifact = artifact
	return out, nil
}

// hookFor returns the hook for an attempt and the strength credited to it.
// The selected hook already outscores every other candidate, so a retry
// asking for a stronger hook punches it in again instead of swapping it.
func (r *EditRenderer) hookFor(stronger bool) (hook.Candidate, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !stronger {
		return r.hook, 0
	}
	r.punchIns++
	return r.hook, float64(r.punchIns) * hookPunchInLift
}

func (r *EditRenderer) remember(attempt int, plan pacing.PlanResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.plans == nil {
		r.plans = make(map[int]pacing.PlanResult)
	}
	r.plans[attempt] = plan
}

// plan returns the edit planned for an attempt.
func (r *EditRenderer) plan(i int) pacing.PlanResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plans[i]
}

// playOrder puts the hook first, followed by the planned segments with the
// hook's span removed so it does not play twice.
func playOrder(h hook.Candidate, segments []pacing.Segment, punchIn bool) []pacing.Segment {
	first := pacing.Segment{Start: h.Start, End: h.End(), Speed: 1}
	if punchIn {
		first.Zoom = hookPunchIn
		first.Emphasize = true
	}
	out := []pacing.Segment{first}

	for _, s := range segments {
		if s.End <= h.Start || s.Start >= h.End() {
			out = append(out, s)
			continue
		}
		if s.Start < h.Start {
			before := s
			before.End = h.Start
			out = append(out, before)
		}
		if s.End > h.End() {
			after := s
			after.Start = h.End()
			out = append(out, after)
		}
	}

	// Drop slivers left by the hook cut.
	kept := out[:1]
	for _, s := range out[1:] {
		if s.End-s.Start >= pacing.MinSegmentSec-1e-9 {
			kept = append(kept, s)
		}
	}
	return kept
}

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/vibecut/internal/analysis"
	"github.com/kikiluvv/vibecut/internal/config"
	"github.com/kikiluvv/vibecut/internal/ffmpeg"
	"github.com/kikiluvv/vibecut/internal/hook"
	"github.com/kikiluvv/vibecut/internal/jobstatus"
	"github.com/kikiluvv/vibecut/internal/logging"
	"github.com/kikiluvv/vibecut/internal/pacing"
	"github.com/kikiluvv/vibecut/internal/quality"
	"github.com/kikiluvv/vibecut/internal/retry"
	"github.com/kikiluvv/vibecut/internal/signals"
	"github.com/kikiluvv/vibecut/internal/signature"
	"github.com/kikiluvv/vibecut/internal/style"
	"github.com/kikiluvv/vibecut/internal/tuning"
)

// shortFormMaxSec is the longest source treated as short-form when the job
// does not say.
const shortFormMaxSec = 90

// Pipeline runs the retention engine for one job at a time and persists
// the outcome. It is safe for concurrent use.
type Pipeline struct {
	logger    zerolog.Logger
	config    *config.Config
	tuning    tuning.Tuning
	ffmpeg    *ffmpeg.Executor
	store     *analysis.Store
	assembler analysis.Assembler
	machine   *jobstatus.Machine
}

// Option customizes a pipeline.
type Option func(*Pipeline)

// WithExecutor sets the render collaborator. A nil executor disables
// rendering.
func WithExecutor(e *ffmpeg.Executor) Option {
	return func(p *Pipeline) { p.ffmpeg = e }
}

// WithoutRender disables the ffmpeg lookup; edits are planned and judged
// but not encoded.
func WithoutRender() Option {
	return WithExecutor(nil)
}

// New creates a pipeline from validated configuration.
func New(logger zerolog.Logger, cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := analysis.NewStore(logger, cfg.StoreDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis store: %w", err)
	}

	p := &Pipeline{
		logger:    logger.With().Str("component", "pipeline").Logger(),
		config:    cfg,
		tuning:    cfg.Engine,
		store:     store,
		assembler: analysis.NewAssembler(cfg.Engine),
		machine:   jobstatus.NewMachine(cfg.Engine.StrictStatusTransitions),
	}

	exec, err := ffmpeg.New(logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.Threads, cfg.FFmpeg.Preset)
	switch {
	case err == nil:
		p.ffmpeg = exec
	case ffmpeg.IsMissingBinary(err):
		p.logger.Warn().Err(err).Msg("ffmpeg unavailable, edits will not be rendered")
	default:
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Store returns the analysis store.
func (p *Pipeline) Store() *analysis.Store {
	return p.store
}

// Analyze runs every engine stage for job, renders and judges the edit
// through the retry loop, and persists the merged record. A failed quality
// gate is reported in the result, not as an error.
func (p *Pipeline) Analyze(ctx context.Context, job *Job) (*Result, error) {
	if job == nil {
		return nil, fmt.Errorf("job cannot be nil")
	}
	if job.ID == "" {
		job.ID = analysis.NewJobID()
	}
	logger := logging.ForJob(p.logger, job.ID)

	st := &statusTracker{machine: p.machine, current: job.Status}
	if st.current == "" {
		st.current = jobstatus.Queued
	}
	st.history = []jobstatus.Status{st.current}
	if st.current.Terminal() || st.current.ExpectsAnalysis() {
		// A finished job, or one interrupted mid-analysis, starts over.
		if err := st.to(jobstatus.Queued); err != nil {
			return nil, err
		}
	}

	res, err := p.analyze(ctx, job, st, logger)
	if err != nil {
		if !errors.Is(err, jobstatus.ErrInvalidTransition) && st.machine.CanTransition(st.current, jobstatus.Failed) {
			_ = st.to(jobstatus.Failed)
			p.persistStatus(job.ID, st.current, logger)
		}
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) analyze(ctx context.Context, job *Job, st *statusTracker, logger zerolog.Logger) (*Result, error) {
	t := p.tuning

	// Stage 1: signals and style
	if err := st.to(jobstatus.Analyzing); err != nil {
		return nil, err
	}
	logger.Info().Str("status", string(st.current)).Msg("starting analysis")

	src, err := p.probeSource(ctx, job, logger)
	if err != nil {
		return nil, err
	}

	windows := signals.NormalizeWindows(job.Windows, src.duration)
	cues := signals.NormalizeCues(job.Cues, src.duration)
	timeline := signals.Timeline(src.duration, windows, cues)
	hasTranscript := len(cues) > 0
	strength := signals.Strength(windows)
	profile := style.Classify(windows, cues, timeline)

	renderCfg, err := p.renderConfig(job, timeline)
	if err != nil {
		return nil, err
	}
	baseAggression, err := tuning.ParseAggression(renderCfg.LongFormAggression)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.ID, err)
	}
	aggression := pacing.StyleAdjustedAggression(baseAggression, profile, t)

	logger.Info().
		Str("style", profile.Style.String()).
		Str("niche", profile.Niche.String()).
		Float64("confidence", profile.Confidence).
		Float64("signal_strength", strength).
		Str("aggression", aggression.String()).
		Bool("transcript", hasTranscript).
		Msg("content classified")

	// Stage 2: hook
	if err := st.to(jobstatus.Hooking); err != nil {
		return nil, err
	}
	hooks := hook.PickTopCandidates(windows, cues, timeline, t)
	decision := hook.SelectRenderable(hooks.TopCandidates, &hooks.Selected, aggression, hasTranscript, strength, t)

	logger.Info().
		Float64("hook_start", decision.Candidate.Start).
		Float64("hook_duration", decision.Candidate.Duration).
		Float64("hook_score", decision.Candidate.Score).
		Bool("fallback", decision.Fallback).
		Msg("hook selected")

	// Stage 3: cut profile and rhythm anchors
	if err := st.to(jobstatus.Cutting); err != nil {
		return nil, err
	}
	shortForm := timeline <= shortFormMaxSec
	if job.ShortForm != nil {
		shortForm = *job.ShortForm
	}
	pacingProfile := pacing.ApplyStyle(pacing.BaseProfile(profile.Niche, aggression, t), profile, shortForm)

	if err := st.to(jobstatus.Pacing); err != nil {
		return nil, err
	}
	anchors := job.Anchors
	if len(anchors) == 0 {
		anchors = pacing.DeriveAnchors(windows, t)
	}

	// Stage 4: render and judge
	for _, next := range []jobstatus.Status{jobstatus.Captioning, jobstatus.Audio, jobstatus.Rendering} {
		if err := st.to(next); err != nil {
			return nil, err
		}
	}

	captions := p.config.Render.Captions || job.Subtitles != ""
	if job.Captions != nil {
		captions = *job.Captions
	}

	renderer := &EditRenderer{
		logger:   logger,
		exec:     p.ffmpeg,
		tuning:   t,
		source:   src,
		job:      job,
		windows:  windows,
		timeline: timeline,
		anchors:  anchors,
		profile:  pacingProfile,
		style:    profile,
		hook:     decision.Candidate,
		gate:     quality.GateInput{Aggression: aggression, HasTranscript: hasTranscript, SignalStrength: strength},
		captions: captions,
		vertical: p.config.Render.Vertical,
		outDir:   p.config.OutputDir,
	}

	orch, err := retry.New(t)
	if err != nil {
		return nil, err
	}
	orch.Observe(func(a retry.Attempt) {
		logger.Info().
			Int("attempt", a.Index).
			Str("label", a.Label).
			Bool("passed", a.Passed).
			Str("gate_mode", a.Report.GateMode).
			Strs("missed", a.Report.MissedFloors).
			Msg("attempt judged")
	})

	outcome, err := orch.Run(ctx, renderer)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.ID, err)
	}

	switch outcome.Outcome {
	case retry.OutcomeQualityGateFailed:
		if err := st.to(jobstatus.Failed); err != nil {
			return nil, err
		}
	default:
		for _, next := range []jobstatus.Status{jobstatus.Uploading, jobstatus.Completed} {
			if err := st.to(next); err != nil {
				return nil, err
			}
		}
	}

	final := outcome.Final()
	edit := renderer.plan(final.Index)
	res := &Result{
		JobID:          job.ID,
		Signature:      signature.Build(renderCfg),
		Style:          profile,
		Aggression:     aggression,
		SignalStrength: strength,
		Hook:           hooks,
		Decision:       decision,
		Anchors:        anchors,
		Edit:           edit,
		Retry:          outcome,
		Status:         st.current,
		StatusHistory:  st.history,
	}

	record, err := p.persist(job, renderCfg, res)
	if err != nil {
		return nil, err
	}
	res.Record = record

	logger.Info().
		Str("outcome", outcome.Outcome.String()).
		Int("attempts", len(outcome.Attempts)).
		Str("status", string(st.current)).
		Str("signature", res.Signature).
		Msg("analysis complete")

	return res, nil
}

// renderConfig decodes the job's render config over the configured
// defaults and pins the duration to the analysed timeline.
func (p *Pipeline) renderConfig(job *Job, timeline float64) (signature.Config, error) {
	d := p.config.Render
	cfg := signature.Config{
		StrategyProfile:        d.StrategyProfile,
		TargetPlatform:         d.TargetPlatform,
		EditorMode:             d.EditorMode,
		MaxCuts:                d.MaxCuts,
		LongFormAggression:     d.Aggression,
		LongFormClarityVsSpeed: d.LongFormClarityVsSpeed,
		TangentKiller:          d.TangentKiller,
	}

	if len(job.RenderConfig) > 0 {
		override, err := signature.FromMap(job.RenderConfig)
		if err != nil {
			return signature.Config{}, fmt.Errorf("job %s render config: %w", job.ID, err)
		}
		present := func(keys ...string) bool {
			for _, k := range keys {
				if _, ok := job.RenderConfig[k]; ok {
					return true
				}
			}
			return false
		}
		if present("strategyProfile", "strategy_profile") {
			cfg.StrategyProfile = override.StrategyProfile
		}
		if present("targetPlatform", "target_platform") {
			cfg.TargetPlatform = override.TargetPlatform
		}
		if present("editorMode", "editor_mode") {
			cfg.EditorMode = override.EditorMode
		}
		if present("maxCuts", "max_cuts") {
			cfg.MaxCuts = override.MaxCuts
		}
		if present("longFormAggression", "long_form_aggression") {
			cfg.LongFormAggression = override.LongFormAggression
		}
		if present("longFormClarityVsSpeed", "long_form_clarity_vs_speed") {
			cfg.LongFormClarityVsSpeed = override.LongFormClarityVsSpeed
		}
		if present("tangentKiller", "tangent_killer") {
			cfg.TangentKiller = override.TangentKiller
		}
	}

	cfg.DurationSeconds = timeline
	return cfg, nil
}

func (p *Pipeline) persist(job *Job, renderCfg signature.Config, res *Result) (analysis.Record, error) {
	final := res.Retry.Final()
	strength := res.SignalStrength
	selected := res.Hook
	selected.Selected = res.Decision.Candidate

	stage := analysis.Stage{
		Hook:             &selected,
		StyleProfile:     &res.Style,
		Aggression:       res.Aggression.String(),
		SignalStrength:   &strength,
		BeatAnchors:      res.Anchors,
		Edit:             &res.Edit,
		RetryAttempts:    res.Retry.Attempts,
		JudgeReport:      &final.Report,
		Outcome:          res.Retry.Outcome.String(),
		SelectedStrategy: renderCfg.StrategyProfile,
		Status:           string(res.Status),
	}
	outputs := analysis.Outputs{VideoPath: final.Artifact}

	record, err := p.store.Update(job.ID, func(existing analysis.Record) (analysis.Record, error) {
		return p.assembler.Assemble(existing, job.ID, renderCfg, outputs, stage)
	})
	if err != nil {
		return nil, fmt.Errorf("persist job %s: %w", job.ID, err)
	}
	return record, nil
}

func (p *Pipeline) persistStatus(jobID string, status jobstatus.Status, logger zerolog.Logger) {
	_, err := p.store.Update(jobID, func(existing analysis.Record) (analysis.Record, error) {
		return p.assembler.Merge(existing, analysis.Record{
			analysis.KeyJobID: jobID,
			"status":          string(status),
		}), nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to persist job status")
	}
}

// Show loads the persisted record of a job.
func (p *Pipeline) Show(jobID string) (analysis.Record, error) {
	return p.store.Load(jobID)
}

// statusTracker walks a job through the status graph.
type statusTracker struct {
	machine *jobstatus.Machine
	current jobstatus.Status
	history []jobstatus.Status
}

func (s *statusTracker) to(next jobstatus.Status) error {
	status, err := s.machine.Transition(s.current, next)
	if err != nil {
		return err
	}
	s.current = status
	s.history = append(s.history, status)
	return nil
}

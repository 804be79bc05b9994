package retry

import (
	"context"
	"fmt"

	"github.com/kikiluvv/vibecut/internal/quality"
	"github.com/kikiluvv/vibecut/internal/tuning"
)

// Outcome is how a retry run ended. None of them is an error.
type Outcome int

const (
	OutcomePassed Outcome = iota
	OutcomeRescueAccepted
	OutcomeQualityGateFailed
)

var outcomeNames = []string{"passed", "rescue_accepted", "quality_gate_failed"}

func (o Outcome) String() string {
	if o < OutcomePassed || o > OutcomeQualityGateFailed {
		return "unknown"
	}
	return outcomeNames[o]
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(b []byte) error {
	for i, n := range outcomeNames {
		if n == string(b) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown retry outcome %q", string(b))
}

// Request is what the renderer is asked to produce on one attempt. Fixes
// is empty on the baseline and carries the previous report's fixes after.
type Request struct {
	Attempt int
	Fixes   quality.Fixes
}

// Output is a rendered artifact plus the telemetry needed to judge it.
type Output struct {
	Artifact  string
	Telemetry quality.ReportInput
}

// Renderer produces one attempt. It is usually a long-running encode.
type Renderer interface {
	Render(ctx context.Context, req Request) (Output, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, req Request) (Output, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, req Request) (Output, error) {
	return f(ctx, req)
}

// Attempt is one judged render.
type Attempt struct {
	Index          int            `json:"index"`
	Label          string         `json:"label"`
	Passed         bool           `json:"passed"`
	Artifact       string         `json:"artifact,omitempty"`
	RequestedFixes quality.Fixes  `json:"requested_fixes"`
	Report         quality.Report `json:"report"`
}

// Result is the full history of a run. Attempts holds between 1 and
// 1+maxRetries entries.
type Result struct {
	Outcome  Outcome   `json:"outcome"`
	Attempts []Attempt `json:"attempts"`
}

// Final returns the last attempt, the one that ships on pass or rescue.
func (r Result) Final() Attempt {
	if len(r.Attempts) == 0 {
		return Attempt{}
	}
	return r.Attempts[len(r.Attempts)-1]
}

// Label names an attempt: baseline, retry1, retry2, ...
func Label(i int) string {
	if i == 0 {
		return "baseline"
	}
	return fmt.Sprintf("retry%d", i)
}

// Orchestrator runs the bounded render-and-judge loop.
type Orchestrator struct {
	tuning  tuning.Tuning
	observe func(Attempt)
}

// New creates an orchestrator. A negative retry budget is a configuration
// defect and is rejected here, before any render runs.
func New(t tuning.Tuning) (*Orchestrator, error) {
	if t.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max_retries cannot be negative, got %d", tuning.ErrInvalidTuning, t.MaxRetries)
	}
	return &Orchestrator{tuning: t}, nil
}

// Observe registers a callback invoked after every judged attempt.
func (o *Orchestrator) Observe(fn func(Attempt)) {
	o.observe = fn
}

// Run renders the baseline and up to MaxRetries retries, stopping at the
// first pass. When the budget runs out the last attempt is either accepted
// as a rescue render or reported as a failed quality gate. Only renderer
// errors and context cancellation are returned as errors.
func (o *Orchestrator) Run(ctx context.Context, r Renderer) (Result, error) {
	var res Result
	var fixes quality.Fixes

	for i := 0; i <= o.tuning.MaxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%s cancelled: %w", Label(i), err)
		}

		out, err := r.Render(ctx, Request{Attempt: i, Fixes: fixes})
		if err != nil {
			return res, fmt.Errorf("render %s: %w", Label(i), err)
		}

		report := quality.BuildReport(out.Telemetry, o.tuning)
		attempt := Attempt{
			Index:          i,
			Label:          Label(i),
			Passed:         report.Passed,
			Artifact:       out.Artifact,
			RequestedFixes: fixes,
			Report:         report,
		}
		res.Attempts = append(res.Attempts, attempt)
		if o.observe != nil {
			o.observe(attempt)
		}

		if report.Passed {
			res.Outcome = OutcomePassed
			return res, nil
		}
		fixes = report.RequiredFixes
	}

	if quality.ShouldForceRescue(res.Final().Report, o.tuning) {
		res.Outcome = OutcomeRescueAccepted
	} else {
		res.Outcome = OutcomeQualityGateFailed
	}
	return res, nil
}

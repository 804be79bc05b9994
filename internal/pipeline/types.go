package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kikiluvv/vibecut/internal/analysis"
	"github.com/kikiluvv/vibecut/internal/hook"
	"github.com/kikiluvv/vibecut/internal/jobstatus"
	"github.com/kikiluvv/vibecut/internal/pacing"
	"github.com/kikiluvv/vibecut/internal/retry"
	"github.com/kikiluvv/vibecut/internal/signals"
	"github.com/kikiluvv/vibecut/internal/style"
	"github.com/kikiluvv/vibecut/internal/tuning"
)

// Job is one analysis request as the upstream media pipeline hands it over.
type Job struct {
	ID              string                     `json:"id,omitempty"`
	Source          string                     `json:"source,omitempty"`
	DurationSeconds float64                    `json:"durationSeconds,omitempty"`
	Status          jobstatus.Status           `json:"status,omitempty"`
	Windows         []signals.EngagementWindow `json:"windows"`
	Cues            []signals.TranscriptCue    `json:"cues,omitempty"`
	TranscriptPath  string                     `json:"transcriptPath,omitempty"`
	// Anchors are rhythm beats from upstream; derived from the windows when empty.
	Anchors      []float64      `json:"anchors,omitempty"`
	RenderConfig map[string]any `json:"renderConfig,omitempty"`

	// Host telemetry; the engine estimates what is missing.
	RetentionScore *float64 `json:"retentionScore,omitempty"`
	ClarityPenalty float64  `json:"clarityPenalty,omitempty"`
	Captions       *bool    `json:"captions,omitempty"`
	Subtitles      string   `json:"subtitles,omitempty"`
	ShortForm      *bool    `json:"shortForm,omitempty"`
}

// LoadJob reads a job file. A missing id is generated and a transcript path
// is resolved relative to the job file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job: %w", err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job %s: %w", path, err)
	}

	if job.ID == "" {
		job.ID = analysis.NewJobID()
	}
	if !analysis.ValidJobID(job.ID) {
		return nil, fmt.Errorf("job %s: invalid id %q", path, job.ID)
	}

	dir := filepath.Dir(path)
	if job.TranscriptPath != "" && len(job.Cues) == 0 {
		tp := job.TranscriptPath
		if !filepath.IsAbs(tp) {
			tp = filepath.Join(dir, tp)
		}
		cues, err := signals.LoadTranscript(tp)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", job.ID, err)
		}
		job.Cues = cues
	}
	if job.Source != "" && !filepath.IsAbs(job.Source) {
		job.Source = filepath.Join(dir, job.Source)
	}
	if job.Subtitles != "" && !filepath.IsAbs(job.Subtitles) {
		job.Subtitles = filepath.Join(dir, job.Subtitles)
	}

	return &job, nil
}

// Result is everything one analysis decided.
type Result struct {
	JobID          string             `json:"jobId"`
	Signature      string             `json:"signature"`
	Style          style.Profile      `json:"style"`
	Aggression     tuning.Aggression  `json:"aggression"`
	SignalStrength float64            `json:"signalStrength"`
	Hook           hook.Result        `json:"hook"`
	Decision       hook.Decision      `json:"decision"`
	Anchors        []float64          `json:"anchors"`
	Edit           pacing.PlanResult  `json:"edit"`
	Retry          retry.Result       `json:"retry"`
	Status         jobstatus.Status   `json:"status"`
	StatusHistory  []jobstatus.Status `json:"statusHistory"`
	Record         analysis.Record    `json:"-"`
}

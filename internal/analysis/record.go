package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kikiluvv/vibecut/internal/hook"
	"github.com/kikiluvv/vibecut/internal/pacing"
	"github.com/kikiluvv/vibecut/internal/quality"
	"github.com/kikiluvv/vibecut/internal/retry"
	"github.com/kikiluvv/vibecut/internal/signature"
	"github.com/kikiluvv/vibecut/internal/style"
	"github.com/kikiluvv/vibecut/internal/tuning"
)

// EngineVersion is stamped on every record. Overridden at build time via -ldflags.
var EngineVersion = "dev"

// Keys the assembler always rewrites.
const (
	KeyJobID         = "job_id"
	KeyEngineVersion = "engine_version"
	KeyConfigVersion = "config_version"
	KeyUpdatedAt     = "updated_at"
)

// Record is a persisted analysis. It is a superset document: the engine
// owns a handful of keys and carries everything else through untouched.
type Record map[string]any

// String returns r[key] if it is a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return cloneValue(map[string]any(r)).(map[string]any)
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Record:
		return cloneValue(map[string]any(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

// Stage is what one analysis pass recomputes. Nil and empty fields are left
// out of the patch so earlier values survive.
type Stage struct {
	Hook             *hook.Result       `json:"hook,omitempty"`
	StyleProfile     *style.Profile     `json:"style_profile,omitempty"`
	Aggression       string             `json:"aggression,omitempty"`
	SignalStrength   *float64           `json:"signal_strength,omitempty"`
	BeatAnchors      []float64          `json:"beat_anchors,omitempty"`
	Edit             *pacing.PlanResult `json:"edit,omitempty"`
	RetryAttempts    []retry.Attempt    `json:"retry_attempts,omitempty"`
	JudgeReport      *quality.Report    `json:"judge_report,omitempty"`
	Outcome          string             `json:"outcome,omitempty"`
	SelectedStrategy string             `json:"selected_strategy,omitempty"`
	Status           string             `json:"status,omitempty"`
}

// Outputs are the render locations. Empty fields keep the stored value, so
// an upload fallback recorded earlier is not lost when a rerender only
// knows its local path.
type Outputs struct {
	VideoPath     string `json:"video_path,omitempty"`
	FallbackPath  string `json:"fallback_path,omitempty"`
	UploadURL     string `json:"upload_url,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
}

// ConfigVersion fingerprints the engine tuning so records can be traced to
// the settings that produced them.
func ConfigVersion(t tuning.Tuning) string {
	data, err := json.Marshal(t)
	if err != nil {
		return "cfg-unknown"
	}
	sum := sha256.Sum256(data)
	return "cfg-" + hex.EncodeToString(sum[:6])
}

// Assembler merges stage output into persisted records.
type Assembler struct {
	EngineVersion string
	ConfigVersion string
	Now           func() time.Time
}

// NewAssembler stamps records with the running engine and the given tuning.
func NewAssembler(t tuning.Tuning) Assembler {
	return Assembler{
		EngineVersion: EngineVersion,
		ConfigVersion: ConfigVersion(t),
		Now:           time.Now,
	}
}

// Merge applies partial on top of existing and returns a new record.
// Keys absent from partial are kept unchanged, nested objects are merged
// key by key, and a key set to nil in partial is removed. Engine version,
// config version and timestamp are always refreshed. existing is not
// modified.
func (a Assembler) Merge(existing, partial Record) Record {
	out := existing.Clone()
	for k, v := range partial {
		mergeKey(out, k, cloneValue(v))
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	out[KeyEngineVersion] = a.EngineVersion
	out[KeyConfigVersion] = a.ConfigVersion
	out[KeyUpdatedAt] = now().UTC().Format(time.RFC3339Nano)
	return out
}

func mergeKey(dst map[string]any, key string, v any) {
	if v == nil {
		delete(dst, key)
		return
	}
	src, ok := v.(map[string]any)
	if !ok {
		dst[key] = v
		return
	}
	cur, ok := dst[key].(map[string]any)
	if !ok {
		dst[key] = src
		return
	}
	for k, e := range src {
		mergeKey(cur, k, e)
	}
}

// Assemble builds the record for one analysis pass: the render config and
// its signature, the output locations, and whatever the stage recomputed.
func (a Assembler) Assemble(existing Record, jobID string, cfg signature.Config, outputs Outputs, stage Stage) (Record, error) {
	partial, err := toRecord(stage)
	if err != nil {
		return nil, fmt.Errorf("encode stage: %w", err)
	}

	renderCfg, err := toRecord(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode render config: %w", err)
	}
	partial["render_config"] = map[string]any(renderCfg)
	partial["render_signature"] = signature.Build(cfg)

	out, err := toRecord(outputs)
	if err != nil {
		return nil, fmt.Errorf("encode outputs: %w", err)
	}
	if len(out) > 0 {
		partial["output"] = map[string]any(out)
	}

	if jobID != "" {
		partial[KeyJobID] = jobID
	}
	return a.Merge(existing, partial), nil
}

// toRecord converts v to the same generic shape a record has after a trip
// through the store.
func toRecord(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

package hook

import (
	"fmt"
	"math"
)

// Basis records what evidence a candidate was chosen from.
type Basis int

const (
	// BasisSignal candidates were scored from engagement windows only.
	BasisSignal Basis = iota
	// BasisTranscript candidates overlap transcript cues that earned a bonus.
	BasisTranscript
	// BasisSynthetic candidates were placed without any supporting evidence.
	BasisSynthetic
)

var basisNames = []string{"signal", "transcript", "synthetic"}

func (b Basis) String() string {
	if b < BasisSignal || b > BasisSynthetic {
		return "unknown"
	}
	return basisNames[b]
}

// MarshalText implements encoding.TextMarshaler.
func (b Basis) MarshalText() ([]byte, error) {
	if b < BasisSignal || b > BasisSynthetic {
		return nil, fmt.Errorf("unknown hook basis %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Basis) UnmarshalText(data []byte) error {
	for i, n := range basisNames {
		if n == string(data) {
			*b = Basis(i)
			return nil
		}
	}
	return fmt.Errorf("unknown hook basis %q", string(data))
}

// Candidate is a scored hook window.
type Candidate struct {
	Start       float64 `json:"start"`
	Duration    float64 `json:"duration"`
	Score       float64 `json:"score"`
	AuditScore  float64 `json:"auditScore"`
	AuditPassed bool    `json:"auditPassed"`
	Text        string  `json:"text,omitempty"`
	Reason      string  `json:"reason"`
	Basis       Basis   `json:"basis"`
	Section     int     `json:"section"`
}

// End returns Start + Duration.
func (c Candidate) End() float64 {
	return c.Start + c.Duration
}

// Synthetic reports whether nothing backed the candidate's placement.
func (c Candidate) Synthetic() bool {
	return c.Basis == BasisSynthetic
}

// Valid reports whether the candidate has a positive duration inside
// [0, timeline]. A non-positive timeline only checks the start.
func (c Candidate) Valid(timeline float64) bool {
	if math.IsNaN(c.Start) || math.IsNaN(c.Duration) || math.IsInf(c.Start, 0) || math.IsInf(c.Duration, 0) {
		return false
	}
	if c.Duration <= 0 || c.Start < 0 {
		return false
	}
	if timeline > 0 && c.End() > timeline+1e-9 {
		return false
	}
	return true
}

// better is the ranking comparator: higher score, then earlier start, then
// longer duration.
func better(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.Duration > b.Duration
}

// Result is the outcome of a hook search.
type Result struct {
	Selected      Candidate   `json:"selected"`
	TopCandidates []Candidate `json:"topCandidates"`
	Sections      int         `json:"sections"`
}

package style

import "fmt"

// Style is the detected content archetype.
type Style int

const (
	Reaction Style = iota
	Vlog
	Tutorial
	Gaming
	Story

	styleCount
)

var styleNames = [styleCount]string{
	Reaction: "reaction",
	Vlog:     "vlog",
	Tutorial: "tutorial",
	Gaming:   "gaming",
	Story:    "story",
}

func (s Style) String() string {
	if s < 0 || s >= styleCount {
		return "unknown"
	}
	return styleNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	if s < 0 || s >= styleCount {
		return nil, fmt.Errorf("unknown style %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(b []byte) error {
	parsed, err := ParseStyle(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStyle maps a style name back to its Style.
func ParseStyle(name string) (Style, error) {
	for i, n := range styleNames {
		if n == name {
			return Style(i), nil
		}
	}
	return 0, fmt.Errorf("unknown style %q", name)
}

// Styles lists every style in declaration order.
func Styles() []Style {
	out := make([]Style, styleCount)
	for i := range out {
		out[i] = Style(i)
	}
	return out
}

// Niche is the pacing family a video belongs to.
type Niche int

const (
	HighEnergy Niche = iota
	Education
	TalkingHead
	StoryNiche

	nicheCount
)

var nicheNames = [nicheCount]string{
	HighEnergy:  "high_energy",
	Education:   "education",
	TalkingHead: "talking_head",
	StoryNiche:  "story",
}

func (n Niche) String() string {
	if n < 0 || n >= nicheCount {
		return "unknown"
	}
	return nicheNames[n]
}

// MarshalText implements encoding.TextMarshaler.
func (n Niche) MarshalText() ([]byte, error) {
	if n < 0 || n >= nicheCount {
		return nil, fmt.Errorf("unknown niche %d", int(n))
	}
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Niche) UnmarshalText(b []byte) error {
	for i, name := range nicheNames {
		if name == string(b) {
			*n = Niche(i)
			return nil
		}
	}
	return fmt.Errorf("unknown niche %q", string(b))
}

// Niches lists every niche in declaration order.
func Niches() []Niche {
	out := make([]Niche, nicheCount)
	for i := range out {
		out[i] = Niche(i)
	}
	return out
}

// Profile is the classifier output consumed by hook and pacing stages.
type Profile struct {
	Style      Style    `json:"style"`
	Niche      Niche    `json:"niche"`
	Confidence float64  `json:"confidence"`
	Rationale  []string `json:"rationale"`

	// Signed biases, already scaled by Confidence.
	TempoBias     float64 `json:"tempoBias"`
	InterruptBias float64 `json:"interruptBias"`
	HookBias      float64 `json:"hookBias"`
}

// HighTempo reports whether the profile's style is cut for energy.
func (p Profile) HighTempo() bool {
	return tuningFor(p.Style).highTempo
}

// tuning is the per-style record. Every Style has exactly one entry.
type tuning struct {
	niche         Niche
	tempoBias     float64
	interruptBias float64
	hookBias      float64
	highTempo     bool
}

var styleTable = [styleCount]tuning{
	Reaction: {niche: HighEnergy, tempoBias: 0.35, interruptBias: 0.30, hookBias: 0.25, highTempo: true},
	Vlog:     {niche: TalkingHead, tempoBias: 0.05, interruptBias: 0.10, hookBias: 0.05},
	Tutorial: {niche: Education, tempoBias: -0.20, interruptBias: -0.10, hookBias: 0},
	Gaming:   {niche: HighEnergy, tempoBias: 0.40, interruptBias: 0.35, hookBias: 0.20, highTempo: true},
	Story:    {niche: StoryNiche, tempoBias: -0.10, interruptBias: -0.05, hookBias: 0.10},
}

func tuningFor(s Style) tuning {
	if s < 0 || s >= styleCount {
		return styleTable[Vlog]
	}
	return styleTable[s]
}

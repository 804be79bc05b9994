package tuning

import "fmt"

// Aggression is the coarse knob controlling how tightly an edit is cut.
// Levels are ordered: Safe < Medium < High < Viral.
type Aggression int

const (
	Safe Aggression = iota
	Medium
	High
	Viral
)

var aggressionNames = []string{"safe", "medium", "high", "viral"}

func (a Aggression) String() string {
	if a < Safe || a > Viral {
		return "unknown"
	}
	return aggressionNames[a]
}

// Clamp forces a into the known range.
func (a Aggression) Clamp() Aggression {
	return min(max(a, Safe), Viral)
}

// Next returns the following tier, saturating at Viral.
func (a Aggression) Next() Aggression {
	return (a + 1).Clamp()
}

// MarshalText implements encoding.TextMarshaler.
func (a Aggression) MarshalText() ([]byte, error) {
	if a < Safe || a > Viral {
		return nil, fmt.Errorf("unknown aggression %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Aggression) UnmarshalText(b []byte) error {
	parsed, err := ParseAggression(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAggression accepts a level name. The empty string means Medium.
func ParseAggression(name string) (Aggression, error) {
	if name == "" {
		return Medium, nil
	}
	for i, n := range aggressionNames {
		if n == name {
			return Aggression(i), nil
		}
	}
	return Medium, fmt.Errorf("unknown aggression %q", name)
}

package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownField is returned by FromMap for keys that are not part of the
// render configuration. New knobs must be added to Config explicitly.
var ErrUnknownField = errors.New("unknown render config field")

// version prefixes every signature so a change to the canonical form never
// collides with older keys.
const version = "vc1"

// Config is every render setting that can change the output.
type Config struct {
	StrategyProfile        string  `json:"strategyProfile" yaml:"strategy_profile"`
	TargetPlatform         string  `json:"targetPlatform" yaml:"target_platform"`
	EditorMode             string  `json:"editorMode" yaml:"editor_mode"`
	MaxCuts                int     `json:"maxCuts" yaml:"max_cuts"`
	LongFormAggression     string  `json:"longFormAggression" yaml:"long_form_aggression"`
	LongFormClarityVsSpeed float64 `json:"longFormClarityVsSpeed" yaml:"long_form_clarity_vs_speed"`
	TangentKiller          bool    `json:"tangentKiller" yaml:"tangent_killer"`
	DurationSeconds        float64 `json:"durationSeconds" yaml:"duration_seconds"`
}

// DurationBucket rounds a duration to whole seconds. Sub-second differences
// do not change the edit plan.
func DurationBucket(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	return strconv.FormatInt(int64(math.Round(seconds)), 10) + "s"
}

// Canonical renders c as sorted key=value pairs. Strings are trimmed and
// lowercased so the same logical config always yields the same text.
func Canonical(c Config) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	clarity := c.LongFormClarityVsSpeed
	if math.IsNaN(clarity) || clarity == 0 {
		clarity = 0 // no "-0"
	}

	pairs := map[string]string{
		"aggression": norm(c.LongFormAggression),
		"clarity":    strconv.FormatFloat(clarity, 'f', -1, 64),
		"cuts":       strconv.Itoa(c.MaxCuts),
		"duration":   DurationBucket(c.DurationSeconds),
		"mode":       norm(c.EditorMode),
		"platform":   norm(c.TargetPlatform),
		"strategy":   norm(c.StrategyProfile),
		"tangent":    strconv.FormatBool(c.TangentKiller),
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(pairs[k])
	}
	return b.String()
}

// Build returns the uniqueness signature for c.
func Build(c Config) string {
	sum := sha256.Sum256([]byte(Canonical(c)))
	return version + "-" + hex.EncodeToString(sum[:16])
}

// fieldAliases maps accepted keys to the field they set.
var fieldAliases = map[string]string{
	"strategyProfile":            "strategy",
	"strategy_profile":           "strategy",
	"targetPlatform":             "platform",
	"target_platform":            "platform",
	"editorMode":                 "mode",
	"editor_mode":                "mode",
	"maxCuts":                    "cuts",
	"max_cuts":                   "cuts",
	"longFormAggression":         "aggression",
	"long_form_aggression":       "aggression",
	"longFormClarityVsSpeed":     "clarity",
	"long_form_clarity_vs_speed": "clarity",
	"tangentKiller":              "tangent",
	"tangent_killer":             "tangent",
	"durationSeconds":            "duration",
	"duration_seconds":           "duration",
}

// FromMap builds a Config from a loosely typed render config, accepting both
// camelCase and snake_case keys. Unknown keys are an error so that no
// output-changing knob is silently left out of the signature.
func FromMap(m map[string]any) (Config, error) {
	var c Config
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		field, ok := fieldAliases[k]
		if !ok {
			return Config{}, fmt.Errorf("%w: %q", ErrUnknownField, k)
		}
		v := m[k]

		var err error
		switch field {
		case "strategy":
			c.StrategyProfile, err = asString(v)
		case "platform":
			c.TargetPlatform, err = asString(v)
		case "mode":
			c.EditorMode, err = asString(v)
		case "aggression":
			c.LongFormAggression, err = asString(v)
		case "cuts":
			var f float64
			f, err = asFloat(v)
			c.MaxCuts = int(math.Round(f))
		case "clarity":
			c.LongFormClarityVsSpeed, err = asFloat(v)
		case "duration":
			c.DurationSeconds, err = asFloat(v)
		case "tangent":
			c.TangentKiller, err = asBool(v)
		}
		if err != nil {
			return Config{}, fmt.Errorf("field %q: %w", k, err)
		}
	}
	return c, nil
}

func asString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return "", fmt.Errorf("expected string, got %T", v)
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case interface{ Float64() (float64, error) }:
		return x.Float64()
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func asBool(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	}
	return false, fmt.Errorf("expected bool, got %T", v)
}

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/vibecut/internal/tuning"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	StoreDir    string `yaml:"store_dir" toml:"store_dir"`
	OutputDir   string `yaml:"output_dir" toml:"output_dir"`
	Concurrency int    `yaml:"concurrency" toml:"concurrency"`

	// Engine tuning, immutable after Load
	Engine tuning.Tuning `yaml:"engine" toml:"engine"`

	// Render defaults for jobs that do not set their own
	Render RenderConfig `yaml:"render" toml:"render"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg" toml:"ffmpeg"`
}

type RenderConfig struct {
	StrategyProfile        string  `yaml:"strategy_profile" toml:"strategy_profile"`
	TargetPlatform         string  `yaml:"target_platform" toml:"target_platform"`
	EditorMode             string  `yaml:"editor_mode" toml:"editor_mode"`
	MaxCuts                int     `yaml:"max_cuts" toml:"max_cuts"`
	Aggression             string  `yaml:"aggression" toml:"aggression"`
	LongFormClarityVsSpeed float64 `yaml:"long_form_clarity_vs_speed" toml:"long_form_clarity_vs_speed"`
	TangentKiller          bool    `yaml:"tangent_killer" toml:"tangent_killer"`
	Vertical               bool    `yaml:"vertical" toml:"vertical"`
	Captions               bool    `yaml:"captions" toml:"captions"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path" toml:"binary_path"`
	Threads    int    `yaml:"threads" toml:"threads"`
	Preset     string `yaml:"preset" toml:"preset"`
}

// Load reads configuration from file, applies .env and VIBECUT_* overrides,
// and validates the result. Any malformed value fails the load.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	// A missing .env is normal; a broken one is not.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Save writes configuration to file, as TOML when the path ends in .toml
func (c *Config) Save(path string) error {
	if isTOML(path) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := toml.NewEncoder(f).Encode(c); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the engine tuning and the host settings.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if _, err := tuning.ParseAggression(c.Render.Aggression); err != nil {
		return fmt.Errorf("render.aggression: %w", err)
	}
	if c.Render.MaxCuts < 0 {
		return fmt.Errorf("render.max_cuts cannot be negative")
	}
	return nil
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		StoreDir:    "./analysis",
		OutputDir:   "./renders",
		Concurrency: 4,
		Engine:      tuning.Default(),
		Render: RenderConfig{
			StrategyProfile:        "balanced",
			TargetPlatform:         "tiktok",
			EditorMode:             "auto",
			MaxCuts:                12,
			Aggression:             "medium",
			LongFormClarityVsSpeed: 0.5,
			Vertical:               true,
			Captions:               true,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			Threads:    0,
			Preset:     "medium",
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func findConfigFile() string {
	candidates := []string{
		"./vibecut.yaml",
		"./vibecut.yml",
		"./vibecut.toml",
		filepath.Join(os.Getenv("HOME"), ".vibecut", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".vibecut", "config.toml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return DefaultConfig()
}

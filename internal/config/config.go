package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Output settings
	Output OutputConfig `yaml:"output"`

	// Intro/outro title cards
	Intro IntroConfig `yaml:"intro"`
	Outro OutroConfig `yaml:"outro"`

	// Analysis settings
	Analysis AnalysisConfig `yaml:"analysis"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Seed for the effect compositor's noise generator. Builds with the
	// same seed and input produce identical output.
	EffectSeed int64 `yaml:"effect_seed"`
}

type OutputConfig struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	FPS            float64 `yaml:"fps"`
	Bitrate        string  `yaml:"bitrate"`
	TargetDuration int     `yaml:"target_duration"`
}

type IntroConfig struct {
	Duration float64 `yaml:"duration"`
	Title    string  `yaml:"title"`
	Subtitle string  `yaml:"subtitle"`
}

type OutroConfig struct {
	Duration float64 `yaml:"duration"`
	Text     string  `yaml:"text"`
}

type AnalysisConfig struct {
	RegionSamples int `yaml:"region_samples"`
	SampleRate    int `yaml:"sample_rate"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, cfg.validate()
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) validate() error {
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		return fmt.Errorf("output resolution must be positive, got %dx%d", c.Output.Width, c.Output.Height)
	}
	if c.Output.FPS <= 0 {
		return fmt.Errorf("output fps must be positive, got %g", c.Output.FPS)
	}
	if c.Output.TargetDuration <= int(c.Intro.Duration+c.Outro.Duration) {
		return fmt.Errorf("target duration %ds leaves no room for content after %gs intro and %gs outro",
			c.Output.TargetDuration, c.Intro.Duration, c.Outro.Duration)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Width:          1920,
			Height:         1080,
			FPS:            30,
			Bitrate:        "10000k",
			TargetDuration: 38,
		},
		Intro: IntroConfig{
			Duration: 3.0,
			Title:    "TrustOS",
			Subtitle: "A Modern Operating System",
		},
		Outro: OutroConfig{
			Duration: 2.5,
			Text:     "github.com/trustos",
		},
		Analysis: AnalysisConfig{
			RegionSamples: 8,
			SampleRate:    22050,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			Threads:    0,
			Preset:     "medium",
		},
		EffectSeed: 47,
	}
}

func findConfigFile() string {
	candidates := []string{
		"./reelforge.yaml",
		"./reelforge.yml",
		filepath.Join(os.Getenv("HOME"), ".reelforge", "config.yaml"),
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
	return defaultConfig()
}

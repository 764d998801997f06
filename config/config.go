// Package config provides configuration loading and access for the
// particle simulation, following the same embedded-defaults-plus-
// override-file pattern the host application used before this module
// was carved out of it.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/particles/particle"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable the CLI demo and its host world read.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Sim       SimConfig       `yaml:"sim"`
	Particles ParticleConfig  `yaml:"particles"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds debug-window display settings for cmd/particlesim.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimConfig holds top-level simulation stepping parameters.
type SimConfig struct {
	DT          float64 `yaml:"dt"`
	GravityX    float64 `yaml:"gravity_x"`
	GravityY    float64 `yaml:"gravity_y"`
	MaxTicks    int     `yaml:"max_ticks"`
}

// ParticleConfig is the YAML-facing mirror of particle.Config: every
// field here has a matching field there, converted once in ToParticleConfig
// rather than passed through yaml tags on the particle package itself,
// keeping particle free of any serialization dependency.
type ParticleConfig struct {
	Radius              float64 `yaml:"radius"`
	Density             float64 `yaml:"density"`
	MaxCount            int     `yaml:"max_count"`
	Stride              float64 `yaml:"stride"`
	PressureStrength    float64 `yaml:"pressure_strength"`
	DampingStrength     float64 `yaml:"damping_strength"`
	ElasticStrength     float64 `yaml:"elastic_strength"`
	SpringStrength      float64 `yaml:"spring_strength"`
	ViscousStrength     float64 `yaml:"viscous_strength"`
	PowderStrength      float64 `yaml:"powder_strength"`
	TensileStrength     float64 `yaml:"tensile_strength"`
	ColorMixingStrength float64 `yaml:"color_mixing_strength"`
	GroupSolidStrength  float64 `yaml:"group_solid_strength"`
	VelocityLimitFactor float64 `yaml:"velocity_limit_factor"`
}

// ToParticleConfig converts the YAML-facing config into the
// particle.Config the simulation core actually consumes.
func (p ParticleConfig) ToParticleConfig() particle.Config {
	return particle.Config{
		Radius:              float32(p.Radius),
		Density:             float32(p.Density),
		MaxCount:            p.MaxCount,
		Stride:              float32(p.Stride),
		PressureStrength:    float32(p.PressureStrength),
		DampingStrength:     float32(p.DampingStrength),
		ElasticStrength:     float32(p.ElasticStrength),
		SpringStrength:      float32(p.SpringStrength),
		ViscousStrength:     float32(p.ViscousStrength),
		PowderStrength:      float32(p.PowderStrength),
		TensileStrength:     float32(p.TensileStrength),
		ColorMixingStrength: float32(p.ColorMixingStrength),
		GroupSolidStrength:  float32(p.GroupSolidStrength),
		VelocityLimitFactor: float32(p.VelocityLimitFactor),
	}
}

// TelemetryConfig holds CSV-export parameters for package telemetry.
type TelemetryConfig struct {
	OutputDir    string  `yaml:"output_dir"`
	StatsWindow  float64 `yaml:"stats_window"`
	FlushEvery   int     `yaml:"flush_every"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32 float32 // Sim.DT as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded
// defaults if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Sim.DT)
}

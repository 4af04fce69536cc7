package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/phuocduong/prime-engine/internal/fx/motion"
)

// EnvPath names the environment variable overriding DefaultPath.
const (
	EnvPath     = "PRIME_FX_CONFIG"
	DefaultPath = "config/fx.toml"
)

type Config struct {
	Engine   EngineConfig    `toml:"engine"`
	Systems  []SystemConfig  `toml:"systems"`
	Emitters []EmitterConfig `toml:"emitters"`
	Data     DataConfig      `toml:"data"`
	Render   RenderConfig    `toml:"render"`
	Database DatabaseConfig  `toml:"database"`
	Stats    StatsConfig     `toml:"stats"`
	Logging  LoggingConfig   `toml:"logging"`
}

type EngineConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
	Seed     int64         `toml:"seed"` // 0 = seed from the clock
}

type SystemConfig struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"` // linear | accelerated | label
	Capacity int    `toml:"capacity"`
	Asset    string `toml:"asset"`  // passed through to the renderer
	Preset   string `toml:"preset"` // preset name used by AddAt; empty = none
}

// MotionKind parses Kind.
func (s SystemConfig) MotionKind() (motion.Kind, error) {
	return motion.ParseKind(s.Kind)
}

type EmitterConfig struct {
	System   string  `toml:"system"`
	X        float64 `toml:"x"`
	Y        float64 `toml:"y"`
	Z        float64 `toml:"z"`
	Rate     float64 `toml:"rate"` // spawns per second
	Burst    int     `toml:"burst"`
	Lifetime float64 `toml:"lifetime"` // seconds; 0 = forever
	Label    string  `toml:"label"`
}

type DataConfig struct {
	Presets string `toml:"presets"` // YAML preset file; empty = built-in presets
	Scripts string `toml:"scripts"` // Lua directory; empty = no scripts
}

type RenderConfig struct {
	Enabled bool    `toml:"enabled"`
	Glyphs  string  `toml:"glyphs"`
	Scale   float64 `toml:"scale"` // effect units per cell
	Status  bool    `toml:"status"`
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables stats persistence
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type StatsConfig struct {
	IntervalTicks int `toml:"interval_ticks"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // empty = stderr; forced to a file while the terminal renderer runs
}

// Path returns the config path from the environment, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML onto the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Systems) == 0 {
		cfg.Systems = defaultSystems()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Engine.TickRate <= 0 {
		errs = append(errs, errors.New("engine.tick_rate must be positive"))
	}
	names := make(map[string]bool, len(c.Systems))
	for i, s := range c.Systems {
		switch {
		case s.Name == "":
			errs = append(errs, fmt.Errorf("systems[%d]: missing name", i))
		case names[s.Name]:
			errs = append(errs, fmt.Errorf("systems[%d]: duplicate name %q", i, s.Name))
		}
		names[s.Name] = true
		if s.Capacity <= 0 {
			errs = append(errs, fmt.Errorf("system %q: capacity must be positive", s.Name))
		}
		if _, err := s.MotionKind(); err != nil {
			errs = append(errs, fmt.Errorf("system %q: %w", s.Name, err))
		}
	}
	for i, e := range c.Emitters {
		if !names[e.System] {
			errs = append(errs, fmt.Errorf("emitters[%d]: unknown system %q", i, e.System))
		}
		if !(e.Rate > 0) {
			errs = append(errs, fmt.Errorf("emitters[%d]: rate must be positive", i))
		}
		if e.Burst < 1 {
			errs = append(errs, fmt.Errorf("emitters[%d]: burst must be at least 1", i))
		}
		if e.Lifetime < 0 {
			errs = append(errs, fmt.Errorf("emitters[%d]: negative lifetime", i))
		}
	}
	if c.Stats.IntervalTicks <= 0 {
		errs = append(errs, errors.New("stats.interval_ticks must be positive"))
	}
	return errors.Join(errs...)
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			TickRate: 33 * time.Millisecond, // ~1/30 s
		},
		Render: RenderConfig{
			Enabled: true,
			Glyphs:  "*o",
			Scale:   10,
			Status:  true,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Stats: StatsConfig{
			IntervalTicks: 150, // ~5 s at the default tick rate
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// defaultSystems applies when the file declares no [[systems]].
func defaultSystems() []SystemConfig {
	return []SystemConfig{
		{Name: "vapor", Kind: "linear", Capacity: 256, Asset: "fx/vapor.png", Preset: "vapor"},
		{Name: "force", Kind: "accelerated", Capacity: 256, Asset: "fx/force.png", Preset: "force"},
		{Name: "label", Kind: "label", Capacity: 64, Preset: "label"},
	}
}

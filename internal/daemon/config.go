// Package daemon manages the SideQuest daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // progression.timezone must resolve on hosts without zoneinfo

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/sidequest-app/sidequest/internal/app/engagement"
)

// Config holds all daemon configuration.
type Config struct {
	API         APIConfig         `toml:"api"`
	Progression ProgressionConfig `toml:"progression"`
	Logging     LoggingConfig     `toml:"logging"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	// RateLimit caps mutating requests per second. 0 disables the limit.
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// ProgressionConfig tunes the progression engine.
type ProgressionConfig struct {
	DailyMinimum      int     `toml:"daily_minimum"`
	ChestUnlock       int     `toml:"chest_unlock"`
	CheckRate         float64 `toml:"check_rate"`
	LowTrustCheckRate float64 `toml:"low_trust_check_rate"`
	StarterQuests     int     `toml:"starter_quests"`
	Timezone          string  `toml:"timezone"`
	Seed              int64   `toml:"seed"` // 0 seeds from the clock
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// TelemetryConfig controls metrics and background checks.
type TelemetryConfig struct {
	Metrics        bool   `toml:"metrics"`
	HealthInterval string `toml:"health_interval"`
	DecayInterval  string `toml:"decay_interval"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	def := engagement.DefaultConfig()
	return Config{
		API: APIConfig{
			Host:      "127.0.0.1",
			Port:      7420,
			RateLimit: 20,
			Burst:     40,
		},
		Progression: ProgressionConfig{
			DailyMinimum:      def.DailyMinimum,
			ChestUnlock:       def.ChestUnlockMinimum,
			CheckRate:         def.Trust.CheckRate,
			LowTrustCheckRate: def.Trust.LowTrustCheckRate,
			StarterQuests:     3,
			Timezone:          "Local",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Metrics:        true,
			HealthInterval: "60s",
			DecayInterval:  "1h",
		},
	}
}

// LoadConfig reads config from ~/.sidequest/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(home(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.sidequest/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(home(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	p := c.Progression
	switch {
	case p.DailyMinimum < 1:
		return fmt.Errorf("progression.daily_minimum must be at least 1")
	case p.ChestUnlock < 1:
		return fmt.Errorf("progression.chest_unlock must be at least 1")
	case p.CheckRate < 0 || p.CheckRate > 1:
		return fmt.Errorf("progression.check_rate must be within [0, 1]")
	case p.LowTrustCheckRate < 0 || p.LowTrustCheckRate > 1:
		return fmt.Errorf("progression.low_trust_check_rate must be within [0, 1]")
	case p.StarterQuests < 0:
		return fmt.Errorf("progression.starter_quests must be ≥ 0")
	case c.API.RateLimit < 0:
		return fmt.Errorf("api.rate_limit must be ≥ 0")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// EngineConfig maps the progression section onto the engine's tunables.
func (c Config) EngineConfig() engagement.Config {
	cfg := engagement.DefaultConfig()
	cfg.DailyMinimum = c.Progression.DailyMinimum
	cfg.ChestUnlockMinimum = c.Progression.ChestUnlock
	cfg.Trust.CheckRate = c.Progression.CheckRate
	cfg.Trust.LowTrustCheckRate = c.Progression.LowTrustCheckRate
	return cfg
}

// Location resolves the timezone calendar days are measured in.
func (c Config) Location() (*time.Location, error) {
	switch c.Progression.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Progression.Timezone)
	if err != nil {
		return nil, fmt.Errorf("progression.timezone: %w", err)
	}
	return loc, nil
}

// Seed returns the configured random seed, or a clock-derived one.
func (c Config) Seed() int64 {
	if c.Progression.Seed != 0 {
		return c.Progression.Seed
	}
	return time.Now().UnixNano()
}

// ConfigureLogging applies the logging section to the standard logrus logger.
func ConfigureLogging(cfg LoggingConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("logging.format: unknown format %q", cfg.Format)
	}
	return nil
}

// home returns the SideQuest data directory.
func home() string {
	if env := os.Getenv("SIDEQUEST_HOME"); env != "" {
		return env
	}
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".sidequest")
}

// Home is exported for use by other packages.
func Home() string {
	return home()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

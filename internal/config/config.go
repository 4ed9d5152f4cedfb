// Package config loads server configuration from RR_* environment
// variables with sensible defaults for local play.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"rift-and-ruin/server/logging"
)

// Config captures every tunable the server reads at startup.
type Config struct {
	ListenAddr   string   `env:"RR_ADDR"          envDefault:":8080"`
	TickRate     int      `env:"RR_TICK_RATE"     envDefault:"15"`
	Seed         string   `env:"RR_SEED"          envDefault:"arena"`
	CatalogPaths []string `env:"RR_TAG_CATALOG"   envSeparator:","`
	EncounterDir string   `env:"RR_ENCOUNTER_DIR" envDefault:"config/encounters"`

	LogSinks    []string `env:"RR_LOG_SINKS"    envDefault:"console" envSeparator:","`
	LogSeverity string   `env:"RR_LOG_SEVERITY" envDefault:"info"`
	LogJSONPath string   `env:"RR_LOG_JSON_PATH"`
	JournalPath string   `env:"RR_JOURNAL_PATH"`

	CommandCapacity int `env:"RR_COMMAND_CAPACITY" envDefault:"256"`
	PerActorLimit   int `env:"RR_PER_ACTOR_LIMIT"  envDefault:"8"`
	CatchupMaxTicks int `env:"RR_CATCHUP_MAX_TICKS" envDefault:"4"`

	ArenaWidth  float64 `env:"RR_ARENA_WIDTH"  envDefault:"100"`
	ArenaHeight float64 `env:"RR_ARENA_HEIGHT" envDefault:"100"`
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	cfg, err := FromEnv()
	if err != nil {
		return Config{
			ListenAddr:      ":8080",
			TickRate:        15,
			Seed:            "arena",
			EncounterDir:    "config/encounters",
			LogSinks:        []string{"console"},
			LogSeverity:     "info",
			CommandCapacity: 256,
			PerActorLimit:   8,
			CatchupMaxTicks: 4,
			ArenaWidth:      100,
			ArenaHeight:     100,
		}
	}
	return cfg
}

// FromEnv parses the environment into a Config and validates it.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("config: tick rate must be positive, got %d", c.TickRate)
	}
	if c.CommandCapacity <= 0 {
		return fmt.Errorf("config: command capacity must be positive, got %d", c.CommandCapacity)
	}
	if c.ArenaWidth <= 0 || c.ArenaHeight <= 0 {
		return fmt.Errorf("config: arena dimensions must be positive, got %gx%g", c.ArenaWidth, c.ArenaHeight)
	}
	if _, err := logging.ParseSeverity(c.LogSeverity); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, sink := range c.LogSinks {
		switch sink {
		case "console", "json", "memory", "journal":
		default:
			return fmt.Errorf("config: unknown log sink %q", sink)
		}
	}
	if c.hasSink("journal") && c.JournalPath == "" {
		return fmt.Errorf("config: journal sink enabled without RR_JOURNAL_PATH")
	}
	if c.hasSink("json") && c.LogJSONPath == "" {
		return fmt.Errorf("config: json sink enabled without RR_LOG_JSON_PATH")
	}
	return nil
}

// TickInterval converts the tick rate into the loop's ticker period.
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 15
	}
	return time.Second / time.Duration(c.TickRate)
}

// Logging builds the event router configuration from the log settings.
func (c Config) Logging() (logging.Config, error) {
	severity, err := logging.ParseSeverity(c.LogSeverity)
	if err != nil {
		return logging.Config{}, fmt.Errorf("config: %w", err)
	}
	logCfg := logging.DefaultConfig()
	if len(c.LogSinks) > 0 {
		logCfg.EnabledSinks = append([]string(nil), c.LogSinks...)
	}
	logCfg.MinimumSeverity = severity
	logCfg.JSON.FilePath = c.LogJSONPath
	logCfg.Journal.Path = c.JournalPath
	return logCfg, nil
}

func (c Config) hasSink(name string) bool {
	for _, sink := range c.LogSinks {
		if sink == name {
			return true
		}
	}
	return false
}

package config

import (
	"strings"
	"testing"

	"rift-and-ruin/server/logging"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("addr = %q", cfg.ListenAddr)
	}
	if cfg.TickRate != 15 {
		t.Fatalf("tick rate = %d", cfg.TickRate)
	}
	if len(cfg.LogSinks) != 1 || cfg.LogSinks[0] != "console" {
		t.Fatalf("sinks = %v", cfg.LogSinks)
	}
	if cfg.EncounterDir != "config/encounters" {
		t.Fatalf("encounter dir = %q", cfg.EncounterDir)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("RR_ADDR", ":9999")
	t.Setenv("RR_TICK_RATE", "30")
	t.Setenv("RR_LOG_SINKS", "console,memory")
	t.Setenv("RR_TAG_CATALOG", "a.json,b.json")
	t.Setenv("RR_SEED", "nightly")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ListenAddr != ":9999" || cfg.TickRate != 30 || cfg.Seed != "nightly" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.LogSinks) != 2 || cfg.LogSinks[1] != "memory" {
		t.Fatalf("sinks = %v", cfg.LogSinks)
	}
	if len(cfg.CatalogPaths) != 2 || cfg.CatalogPaths[0] != "a.json" {
		t.Fatalf("catalog paths = %v", cfg.CatalogPaths)
	}
}

func TestFromEnv_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"non-numeric tick rate", "RR_TICK_RATE", "fast", "parse env"},
		{"zero tick rate", "RR_TICK_RATE", "0", "tick rate"},
		{"unknown sink", "RR_LOG_SINKS", "syslog", "unknown log sink"},
		{"bad severity", "RR_LOG_SEVERITY", "shout", "severity"},
		{"journal without path", "RR_LOG_SINKS", "journal", "RR_JOURNAL_PATH"},
		{"json without path", "RR_LOG_SINKS", "json", "RR_LOG_JSON_PATH"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := FromEnv()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestTickInterval(t *testing.T) {
	cfg := Config{TickRate: 20}
	if got := cfg.TickInterval().Milliseconds(); got != 50 {
		t.Fatalf("interval = %dms want 50ms", got)
	}
}

func TestLogging_BuildsRouterConfig(t *testing.T) {
	cfg := Config{
		LogSinks:    []string{"console", "journal"},
		LogSeverity: "debug",
		JournalPath: "events.db",
	}
	logCfg, err := cfg.Logging()
	if err != nil {
		t.Fatalf("Logging: %v", err)
	}
	if logCfg.MinimumSeverity != logging.SeverityDebug {
		t.Fatalf("severity = %v", logCfg.MinimumSeverity)
	}
	if !logCfg.HasSink("journal") || logCfg.Journal.Path != "events.db" {
		t.Fatalf("journal config = %+v", logCfg.Journal)
	}
}

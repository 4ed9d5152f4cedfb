package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/internal/config"
	"rift-and-ruin/server/internal/encounter"
	servernet "rift-and-ruin/server/internal/net"
	"rift-and-ruin/server/internal/sim"
	"rift-and-ruin/server/internal/world"
	"rift-and-ruin/server/logging"
	"rift-and-ruin/server/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	logCfg, err := cfg.Logging()
	if err != nil {
		return err
	}
	feed := servernet.NewFeed(256)
	named, err := buildSinks(logCfg, feed)
	if err != nil {
		return err
	}
	router, err := logging.NewRouter(logging.SystemClock{}, logCfg, named)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			log.Printf("close logging router: %v", cerr)
		}
	}()

	engine, err := sim.NewEngine(registry, world.Config{
		Width:  cfg.ArenaWidth,
		Height: cfg.ArenaHeight,
		Seed:   cfg.Seed,
	}, sim.Deps{Publisher: router})
	if err != nil {
		return err
	}

	runners, err := loadEncounters(cfg, engine)
	if err != nil {
		return err
	}

	hubCfg := servernet.DefaultHubConfig()
	hubCfg.TickRate = cfg.TickRate
	hubCfg.SpawnX = cfg.ArenaWidth / 2
	hubCfg.SpawnY = cfg.ArenaHeight / 2
	hub := servernet.NewHub(hubCfg, feed)

	hooks := sim.LoopHooks{AfterStep: hub.HandleStep}
	if len(runners) > 0 {
		hooks.Prepare = func(tc sim.LoopTickContext) {
			for _, runner := range runners {
				runner.Advance(tc.Delta)
			}
		}
	}
	loop := sim.NewLoop(engine, sim.LoopConfig{
		TickRate:        cfg.TickRate,
		CatchupMaxTicks: cfg.CatchupMaxTicks,
		CommandCapacity: cfg.CommandCapacity,
		PerActorLimit:   cfg.PerActorLimit,
	}, hooks)
	hub.Bind(loop)

	stopLoop := make(chan struct{})
	go loop.Run(stopLoop)
	defer close(stopLoop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPConfig{Logger: log.Default()})
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler}

	serveErr := make(chan error, 1)
	log.Printf("arena listening on %s", cfg.ListenAddr)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

func loadRegistry(cfg config.Config) (*tags.Registry, error) {
	paths := cfg.CatalogPaths
	if len(paths) == 0 {
		paths = tags.ExistingDefaultPaths()
	}
	registry, err := tags.LoadRegistry(paths...)
	if err != nil {
		return nil, fmt.Errorf("load tag catalog: %w", err)
	}
	return registry, nil
}

// loadEncounters compiles every script under the configured directory. A
// missing directory just means no scripted encounters; a broken script is
// a startup error.
func loadEncounters(cfg config.Config, engine *sim.Engine) ([]*encounter.Runner, error) {
	if cfg.EncounterDir == "" {
		return nil, nil
	}
	if _, err := os.Stat(cfg.EncounterDir); err != nil {
		return nil, nil
	}
	scripts, err := encounter.LoadDir(cfg.EncounterDir)
	if err != nil {
		return nil, fmt.Errorf("load encounters: %w", err)
	}
	runners := make([]*encounter.Runner, 0, len(scripts))
	for _, script := range scripts {
		runners = append(runners, encounter.NewRunner(script, engine))
	}
	log.Printf("loaded %d encounter scripts from %s", len(scripts), cfg.EncounterDir)
	return runners, nil
}

// buildSinks assembles the sink set the router fans out to. The network
// feed always rides along so combat events reach connected clients.
func buildSinks(cfg logging.Config, feed *servernet.Feed) ([]logging.NamedSink, error) {
	named := []logging.NamedSink{{Name: "feed", Sink: feed}}
	for _, name := range cfg.EnabledSinks {
		switch name {
		case "console":
			named = append(named, logging.NamedSink{Name: name, Sink: sinks.NewConsoleSink(os.Stdout, cfg.Console)})
		case "json":
			file, err := os.OpenFile(cfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open json log: %w", err)
			}
			named = append(named, logging.NamedSink{Name: name, Sink: sinks.NewJSON(file, cfg.JSON.FlushInterval)})
		case "memory":
			named = append(named, logging.NamedSink{Name: name, Sink: sinks.NewMemorySink()})
		case "journal":
			journal, err := sinks.NewJournal(cfg.Journal.Path, cfg.Journal)
			if err != nil {
				return nil, fmt.Errorf("open journal: %w", err)
			}
			named = append(named, logging.NamedSink{Name: name, Sink: journal})
		}
	}
	return named, nil
}

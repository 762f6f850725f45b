package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"quantumgrid/internal/config"
	"quantumgrid/internal/core"
	"quantumgrid/internal/domain"
	"quantumgrid/internal/handler"
	"quantumgrid/internal/hub"
	"quantumgrid/internal/loader"
	"quantumgrid/internal/repository/sqlite"
	"quantumgrid/internal/service"
)

func main() {
	configPath := flag.String("config", "", "config file path (overrides discovery)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	owner := flag.String("owner", "", "registry owner principal (overrides config)")
	seedPath := flag.String("seed", "", "YAML seed file applied on empty database (overrides config)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, cfgSource, err := loadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if cfgSource != "" {
		log.WithField("path", cfgSource).Info("loaded config")
	} else {
		log.Info("no config file found, using defaults")
	}

	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *owner != "" {
		cfg.Owner = *owner
	}
	if *seedPath != "" {
		cfg.SeedPath = *seedPath
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.Info("Starting QuantumGrid registry server...")

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer repo.Close()
	log.WithField("path", cfg.Database.Path).Info("database opened")

	state, err := repo.LoadState(context.Background())
	if err != nil {
		log.WithError(err).Fatal("failed to load registry state")
	}

	clock := service.NewBlockClock(state.Height)
	engine := core.New(domain.Principal(cfg.Owner), clock)
	engine.Restore(state.Snapshot)
	log.WithFields(logrus.Fields{
		"owner":  cfg.Owner,
		"height": state.Height,
	}).Info("registry state restored")

	eventBus := service.NewEventBus()

	sseHub := hub.New(log)
	go sseHub.Run()

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(event)
		}
	}()

	svc := service.NewRegistryService(engine, repo, eventBus, clock, log)

	if cfg.SeedPath != "" && state.Height == 0 {
		seed, err := loader.LoadSeed(cfg.SeedPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load seed file")
		}
		applied, err := loader.Apply(context.Background(), svc, seed)
		if err != nil {
			log.WithError(err).Fatal("failed to apply seed")
		}
		log.WithFields(logrus.Fields{
			"path":    cfg.SeedPath,
			"applied": applied,
		}).Info("seed applied")
		eventBus.Publish(service.Event{
			Type:    service.EventRegistrySeeded,
			Height:  svc.Height(),
			Payload: map[string]int{"applied": applied},
		})
	}

	mux := http.NewServeMux()
	handler.NewRegistryHandler(svc, log).RegisterRoutes(mux)
	mux.Handle("GET /events", sseHub)
	mux.Handle("GET /metrics", promhttp.Handler())

	finalHandler := handler.Chain(mux,
		handler.Recover(log),
		handler.CORS,
		handler.Logger(log),
	)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}

	log.Info("Server stopped")
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

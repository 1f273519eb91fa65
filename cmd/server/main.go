package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/me/linsched/internal/config"
	"github.com/me/linsched/internal/engine"
	"github.com/me/linsched/internal/logging"
	"github.com/me/linsched/internal/metrics"
	"github.com/me/linsched/internal/probe"
	"github.com/me/linsched/internal/scheduler"
	"github.com/me/linsched/internal/server"
	"github.com/me/linsched/internal/store"
)

func main() {
	cfg := config.DefaultServerConfig()

	configFile := flag.String("config", "", "Path to a YAML server config file; flags override it")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Also append JSON logs to this file")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Database path (default ~/.linsched/linsched.db)")
	flag.DurationVar(&cfg.Scheduler.Quantum, "quantum", cfg.Scheduler.Quantum, "Round-robin time slice")
	flag.DurationVar(&cfg.Scheduler.MinStepCost, "min-step-cost", cfg.Scheduler.MinStepCost, "Least budget one round-robin step consumes")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	if *configFile != "" {
		if err := config.LoadFile(*configFile, &cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		// Parse again so explicit flags win over the file.
		flag.Parse()
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	if cfg.LogFile != "" {
		fileLogger, closeLog, err := logging.NewLoggerWithFile(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cfg.LogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer closeLog()
		logger = fileLogger
	}

	// Resolve database path.
	dbPath := cfg.DBPath
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
			os.Exit(1)
		}
		dir := filepath.Join(home, ".linsched")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
			os.Exit(1)
		}
		dbPath = filepath.Join(dir, "linsched.db")
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", dbPath)

	// Resource probe: fall back to "not available" samples when the process
	// cannot be inspected on this platform.
	var pr probe.Probe = probe.NopProbe{}
	if pp, err := probe.NewProcessProbe(); err != nil {
		logger.Warn("resource probe unavailable, samples will be empty", "error", err)
	} else {
		pr = pp
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	eng := engine.New(engine.Config{
		Scheduler: scheduler.Config{
			Quantum:     cfg.Scheduler.Quantum,
			MinStepCost: cfg.Scheduler.MinStepCost,
		},
		ScenarioSizes:    cfg.ScenarioSizes,
		SubscriberBuffer: cfg.SubscriberBuffer,
	}, st, logger,
		engine.WithProbe(pr),
		engine.WithCollectors(metrics.NewCollectors(reg)),
	)
	if err := eng.Restore(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "restore aggregates: %v\n", err)
		os.Exit(1)
	}

	srv := server.New(cfg, eng, logger, server.WithGatherer(reg))

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "quantum", cfg.Scheduler.Quantum)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

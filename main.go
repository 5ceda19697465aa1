package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/game"
	"github.com/pthm-cable/herd/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in game hours (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	storePath := flag.String("store", "", "SQLite database for saved state (empty = use config)")
	fresh := flag.Bool("fresh", false, "Discard saved state and spawn the initial herd")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config or time-based)")
	maxDays := flag.Float64("max-days", 0, "Stop after N game days (0 = until interrupted)")
	realtime := flag.Bool("realtime", false, "Pace steps to wall-clock time")
	status := flag.Bool("status", false, "Log every creature's status on exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *telemetry.Metrics
	if *metricsAddr != "" {
		metrics = telemetry.NewMetrics()
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		slog.Info("serving metrics", "addr", *metricsAddr)
	}

	g, err := game.NewGameWithOptions(ctx, cfg, game.Options{
		Seed:        *seed,
		LogStats:    *logStats,
		WindowHours: *statsWindow,
		OutputDir:   *outputDir,
		StorePath:   *storePath,
		Fresh:       *fresh,
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"seed", g.Seed(),
		"max_days", *maxDays,
		"realtime", *realtime,
	)

	var pace <-chan time.Time
	if *realtime {
		ticker := time.NewTicker(time.Duration(cfg.Scheduler.StepDT * float64(time.Second)))
		defer ticker.Stop()
		pace = ticker.C
	}

loop:
	for {
		if *maxDays > 0 && g.Days() >= *maxDays {
			slog.Info("max days reached", "day", g.Days(), "steps", g.Steps())
			break
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				break loop
			case <-pace:
			}
		} else if ctx.Err() != nil {
			break
		}
		g.Update()
	}

	if *status {
		w := g.World()
		for _, e := range w.Creatures() {
			slog.Info("creature",
				"entity", uint64(e),
				"code", w.Code(e),
				"generation", w.Generation(e),
				"status", strings.Join(g.Status(e), "; "),
			)
		}
	}

	if err := g.Close(); err != nil {
		slog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("simulation stopped", "day", g.Days(), "wool_stock", g.WoolStock())
}

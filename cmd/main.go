package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/victorbjor/security-bot/internal/adapters/decision"
	"github.com/victorbjor/security-bot/internal/adapters/http/api"
	"github.com/victorbjor/security-bot/internal/adapters/http/swagger"
	"github.com/victorbjor/security-bot/internal/adapters/http/ws"
	app "github.com/victorbjor/security-bot/internal/app"
	"github.com/victorbjor/security-bot/internal/config"
	"github.com/victorbjor/security-bot/internal/domain/detect"
	"github.com/victorbjor/security-bot/pkg/logger"
	"github.com/victorbjor/security-bot/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			logger.Error(err)
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Verdict stream hub; also the sink the decision workers publish into.
	hub := ws.NewHub(ctx)
	go hub.Run()
	defer hub.Stop()

	decider := decision.NewClient(
		decision.WithBaseURL(cfg.DecisionBaseURL),
		decision.WithAPIKey(cfg.DecisionAPIKey),
		decision.WithVisionModel(cfg.VisionModel),
		decision.WithDecisionModel(cfg.DecisionModel),
		decision.WithTimeout(time.Duration(cfg.DecisionTimeoutMS)*time.Millisecond),
	)

	source := detect.NewSimulator(
		detect.WithFrameInterval(time.Duration(cfg.FrameIntervalMS)*time.Millisecond),
		detect.WithAnomalyRate(cfg.AnomalyRate),
	)

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EscalationQueueSize),
		app.WithLeaderboardSize(cfg.LeaderboardSize),
		app.WithDataDir(cfg.DataDir),
		app.WithBaselineAlpha(cfg.BaselineAlpha),
		app.WithBaselineSeed(cfg.SeedMean, cfg.SeedVariance),
		app.WithZCutoff(cfg.ZCutoff),
		app.WithLeaderboardCooldown(time.Duration(cfg.LeaderboardCooldownMS)*time.Millisecond),
		app.WithEscalationCooldown(time.Duration(cfg.EscalationCooldownMS)*time.Millisecond),
		app.WithSource(source),
		app.WithDecider(decider),
		app.WithSink(hub),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register API docs under /api-docs
	swagger.Register(ctx, mux)

	wsHandler := ws.NewHandler(ctx, hub)
	mux.HandleFunc("/ws/verdicts", wsHandler.ServeWS)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

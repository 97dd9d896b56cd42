// Command newsbot posts the newest entry of an RSS feed to a Telegram chat.
// It is meant to be started by an external scheduler; each invocation runs
// one cycle and exits.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/deusflow/newsbot/internal/app"
	"github.com/deusflow/newsbot/internal/config"
	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Getenv, os.Stdout)
	stop()
	os.Exit(code)
}

// run executes one cycle and returns the process exit code: 0 for every
// regular outcome, 1 for an unhandled error.
func run(ctx context.Context, getenv func(string) string, stdout io.Writer) int {
	cfg, err := config.Load(getenv)
	if err != nil {
		logger.New(stdout, slog.LevelInfo).Error("invalid configuration", "error", err)
		return 1
	}
	log := logger.New(stdout, logger.ParseLevel(cfg.LogLevel, cfg.Debug))

	// Stop before New opens the state store, which may dial a database.
	if !cfg.HasCredentials() {
		log.Error("telegram bot token or chat id not configured")
		m := metrics.New()
		m.RecordRun(string(app.OutcomeMissingConfig), 0)
		pushMetrics(ctx, log, m, cfg.PushgatewayURL)
		log.Info("run finished", "outcome", app.OutcomeMissingConfig)
		return 0
	}

	p, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		return 1
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warn("failed to close resources", "error", err)
		}
	}()

	outcome, runErr := p.Run(ctx)

	pushMetrics(ctx, log, p.Metrics, cfg.PushgatewayURL)

	if runErr != nil {
		log.Error("run failed", "error", runErr)
		return 1
	}
	log.Info("run finished", "outcome", outcome)
	return 0
}

func pushMetrics(ctx context.Context, log *slog.Logger, m *metrics.Metrics, url string) {
	if url == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := m.Push(ctx, url); err != nil {
		log.Warn("failed to push metrics", "url", url, "error", err)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vshulcz/harmonia/internal/config"
	"github.com/vshulcz/harmonia/pkg/buildinfo"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	cfg, err := config.LoadMonitorConfig(os.Args[1:], os.Stderr)
	if err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	zc := zap.NewProductionConfig()
	if zc.Level, err = zap.ParseAtomicLevel(cfg.LogLevel); err != nil {
		log.Fatalf("invalid log level: %v", err)
	}
	logger, err := zc.Build()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("build", buildinfo.New(buildVersion, buildDate, buildCommit).Fields()...)
	logger.Info("monitor started",
		zap.String("server", cfg.Address),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("timeout", cfg.Timeout),
	)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("monitor failed", zap.Error(err))
	}
}

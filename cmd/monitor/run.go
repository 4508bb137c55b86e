package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/vshulcz/harmonia/internal/adapters/upstream"
	"github.com/vshulcz/harmonia/internal/config"
	"github.com/vshulcz/harmonia/internal/services/stats"
)

// run polls the status site until ctx is cancelled, logging every update.
func run(ctx context.Context, cfg config.MonitorConfig, logger *zap.Logger) error {
	client, err := upstream.New(cfg.Address, &http.Client{}, upstream.WithTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("init client: %w", err)
	}

	store := stats.New(client, client, stats.WithTimeout(cfg.Timeout))
	transitions := stats.LogTransitions(logger)
	unsubscribe := store.Subscribe(stats.Watch(func(prev, cur stats.State) {
		transitions(prev, cur)
		logState(logger, prev, cur)
	}))
	defer unsubscribe()

	if err := store.Start(ctx, cfg.PollInterval); err != nil {
		return err
	}
	<-ctx.Done()
	store.Stop()
	return nil
}

func logState(l *zap.Logger, prev, cur stats.State) {
	if cur.Polls == prev.Polls {
		if cur.Ping != prev.Ping {
			l.Debug("ping", zap.Stringer("latency", cur.Ping))
		}
		return
	}

	fields := []zap.Field{
		zap.Stringer("phase", cur.Fetch.Phase),
		zap.Stringer("latency", cur.Ping),
		zap.Uint64("polls", cur.Polls),
		zap.Uint64("failures", cur.Failures),
	}
	if ratio, ok := cur.Uptime(); ok {
		fields = append(fields, zap.Float64("uptime", ratio))
	}
	if snap := cur.Fetch.Snapshot; snap != nil {
		fields = append(fields,
			zap.Int64("guilds", snap.Live.Guilds),
			zap.Int64("users", snap.Live.Users),
			zap.Int64("players", snap.Live.Players),
		)
	}
	if cur.Fetch.Err != "" {
		fields = append(fields, zap.String("error", cur.Fetch.Err))
	}
	l.Info("stats", fields...)
}

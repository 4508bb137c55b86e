package ports

import (
	"context"

	"github.com/vshulcz/harmonia/internal/domain"
)

// RawSource returns upstream documents as received.
type RawSource interface {
	RawStats(ctx context.Context) ([]byte, error)
	RawCommands(ctx context.Context) ([]byte, error)
}

// SnapshotFetcher returns one decoded and validated stats snapshot.
type SnapshotFetcher interface {
	Snapshot(ctx context.Context) (domain.StatsSnapshot, error)
}

// Prober issues one lightweight request used for latency measurement.
type Prober interface {
	Probe(ctx context.Context) error
}

// HostCollector samples host health in the background.
type HostCollector interface {
	Start(ctx context.Context) error
	Stop()
	Snapshot() domain.HostHealth
}

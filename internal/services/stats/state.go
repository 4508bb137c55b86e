package stats

import (
	"fmt"
	"time"

	"github.com/vshulcz/harmonia/internal/domain"
)

// Phase tags the FetchState variant.
type Phase int

const (
	// PhaseLoading holds until the first poll resolves.
	PhaseLoading Phase = iota
	// PhaseReady means the most recent poll succeeded.
	PhaseReady
	// PhaseError means the most recent poll failed; an earlier snapshot may
	// still be present.
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText renders the phase name in JSON documents.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// FetchState is the outcome of the snapshot loop. Snapshot is the last
// successfully fetched payload and survives later failures; it is shared and
// must be treated as read-only.
type FetchState struct {
	Snapshot *domain.StatsSnapshot `json:"snapshot,omitempty"`
	Err      string                `json:"error,omitempty"`
	Phase    Phase                 `json:"phase"`
}

// PingSample is one latency measurement. Known is false when the probe failed.
type PingSample struct {
	Millis int64 `json:"ms"`
	Known  bool  `json:"known"`
}

func (p PingSample) String() string {
	if !p.Known {
		return "unknown"
	}
	return fmt.Sprintf("%dms", p.Millis)
}

// State is everything a view needs, updated atomically per tick.
type State struct {
	UpdatedAt time.Time  `json:"updatedAt"`
	Fetch     FetchState `json:"fetch"`
	Ping      PingSample `json:"ping"`
	Polls     uint64     `json:"polls"`
	Failures  uint64     `json:"failures"`
}

// Online reports whether the latest poll succeeded and a snapshot is held.
func (s State) Online() bool {
	return s.Fetch.Phase == PhaseReady && s.Fetch.Snapshot != nil
}

// Uptime is the share of successful polls in [0,1]; false before the first poll.
func (s State) Uptime() (float64, bool) {
	if s.Polls == 0 {
		return 0, false
	}
	return float64(s.Polls-s.Failures) / float64(s.Polls), true
}

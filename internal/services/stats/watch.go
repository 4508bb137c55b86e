package stats

import (
	"go.uber.org/zap"
)

// Watch adapts fn into a Subscribe callback that also receives the previously
// delivered state. The zero State stands in before the first delivery.
func Watch(fn func(prev, cur State)) func(State) {
	var prev State
	return func(cur State) {
		fn(prev, cur)
		prev = cur
	}
}

// LogTransitions logs availability changes: a warning when polling starts
// failing and an info entry when it succeeds again. Probe-only updates are
// ignored.
func LogTransitions(l *zap.Logger) func(prev, cur State) {
	return func(prev, cur State) {
		if cur.Polls == prev.Polls {
			return
		}
		switch {
		case !cur.Online() && (prev.Online() || prev.Polls == 0):
			l.Warn("stats source offline",
				zap.String("error", cur.Fetch.Err),
				zap.Bool("stale_snapshot", cur.Fetch.Snapshot != nil),
			)
		case cur.Online() && !prev.Online():
			fields := []zap.Field{zap.Uint64("failed_polls", cur.Failures)}
			if snap := cur.Fetch.Snapshot; snap != nil {
				fields = append(fields, zap.Int64("guilds", snap.Live.Guilds))
			}
			l.Info("stats source online", fields...)
		}
	}
}

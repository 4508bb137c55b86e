// Package stats keeps a continuously refreshed view of the bot statistics.
//
// A Store runs two independent loops: one fetching snapshots and one timing a
// lightweight probe request. Each loop owns a single goroutine, so it never has
// more than one request in flight; ticks that fire while a request is still
// running are dropped, so the next request waits for the following tick.
// Updates commit in tick order.
package stats

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vshulcz/harmonia/internal/ports"
	"github.com/vshulcz/harmonia/pkg/observer"
)

const (
	// DefaultInterval is the polling cadence used when none is given.
	DefaultInterval = 5 * time.Second
	// DefaultTimeout bounds a single fetch or probe.
	DefaultTimeout = 3 * time.Second
)

var (
	// ErrStopped is returned by Start on a store that was stopped.
	ErrStopped = errors.New("stats store stopped")
	// ErrAlreadyStarted is returned by a second Start call.
	ErrAlreadyStarted = errors.New("stats store already started")
)

type lifecycle int

const (
	idle lifecycle = iota
	polling
	stopped
)

// Store owns the FetchState and PingSample of one consuming view.
type Store struct {
	fetcher ports.SnapshotFetcher
	prober  ports.Prober
	now     func() time.Time
	subject *observer.Subject[State]
	cancel  context.CancelFunc

	state   State
	timeout time.Duration
	lc      lifecycle

	mu       sync.Mutex
	notifyMu sync.Mutex
	wg       sync.WaitGroup
}

// Option customizes a Store.
type Option func(*Store)

// WithTimeout bounds every fetch and probe; non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock replaces time.Now, used for latency and update timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an idle store. prober may be nil to disable latency probing.
func New(fetcher ports.SnapshotFetcher, prober ports.Prober, opts ...Option) *Store {
	s := &Store{
		fetcher: fetcher,
		prober:  prober,
		now:     time.Now,
		timeout: DefaultTimeout,
		subject: observer.NewSubject[State](),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start fetches immediately and then every interval until Stop is called or
// ctx is cancelled. A non-positive interval selects DefaultInterval.
func (s *Store) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.lc {
	case stopped:
		return ErrStopped
	case polling:
		return ErrAlreadyStarted
	}
	s.lc = polling

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx, interval, s.pollOnce)
	if s.prober != nil {
		s.wg.Add(1)
		go s.loop(ctx, interval, s.probeOnce)
	}
	return nil
}

// Stop cancels both loops and waits for them to exit. Responses that arrive
// afterwards are discarded. Stop is idempotent and terminal; it must not be
// called from a subscriber callback.
func (s *Store) Stop() {
	s.mu.Lock()
	if s.lc == stopped {
		s.mu.Unlock()
		return
	}
	s.lc = stopped
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Stopped reports whether Stop has been called.
func (s *Store) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lc == stopped
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every committed state change. Notifications are
// delivered in commit order from the polling goroutines.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.subject.Attach(observer.ObserverFunc[State](func(_ context.Context, st State) error {
		fn(st)
		return nil
	}))
}

func (s *Store) loop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	defer s.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		tick(ctx)
		// A tick that fired while the request ran is dropped, not queued.
		select {
		case <-t.C:
		default:
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (s *Store) pollOnce(ctx context.Context) {
	fctx, cancel := context.WithTimeout(ctx, s.timeout)
	snap, err := s.fetcher.Snapshot(fctx)
	cancel()

	s.commit(ctx, func(st *State) {
		st.Polls++
		if err != nil {
			st.Failures++
			st.Fetch.Phase = PhaseError
			st.Fetch.Err = err.Error()
			return
		}
		st.Fetch = FetchState{Phase: PhaseReady, Snapshot: &snap}
	})
}

func (s *Store) probeOnce(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	start := s.now()
	err := s.prober.Probe(pctx)
	elapsed := s.now().Sub(start)
	cancel()

	var sample PingSample
	if err == nil {
		sample = PingSample{Millis: max((elapsed + time.Millisecond/2).Milliseconds(), 0), Known: true}
	}
	s.commit(ctx, func(st *State) { st.Ping = sample })
}

// commit applies fn under the state lock unless the store was torn down, then
// notifies subscribers while holding notifyMu so deliveries keep commit order.
func (s *Store) commit(ctx context.Context, fn func(*State)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.lc == stopped || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	fn(&s.state)
	s.state.UpdatedAt = s.now()
	st := s.state
	s.mu.Unlock()

	s.subject.Publish(ctx, st)
}

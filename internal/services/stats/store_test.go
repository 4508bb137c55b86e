package stats

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vshulcz/harmonia/internal/domain"
)

type result struct {
	err  error
	snap domain.StatsSnapshot
}

type scriptedFetcher struct {
	mu      sync.Mutex
	results []result
	calls   int
}

func (f *scriptedFetcher) Snapshot(context.Context) (domain.StatsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := min(f.calls, len(f.results)-1)
	f.calls++
	r := f.results[idx]
	return r.snap, r.err
}

type fakeProber struct {
	err error
}

func (p *fakeProber) Probe(context.Context) error { return p.err }

func snap(guilds int64) domain.StatsSnapshot {
	return domain.StatsSnapshot{Live: domain.LiveStats{Guilds: guilds, Users: guilds * 5}}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestStore_InitialStateIsLoading(t *testing.T) {
	s := New(&scriptedFetcher{results: []result{{snap: snap(1)}}}, nil)
	st := s.State()
	if st.Fetch.Phase != PhaseLoading || st.Fetch.Snapshot != nil || st.Online() {
		t.Fatalf("unexpected initial state %+v", st)
	}
	if st.Ping.Known {
		t.Fatal("ping must be unknown before the first probe")
	}
}

func TestStore_FailureKeepsPreviousSnapshot(t *testing.T) {
	a, b := snap(10), snap(20)
	f := &scriptedFetcher{results: []result{
		{snap: a},
		{err: errors.New("API responded with status: 502")},
		{snap: b},
	}}
	s := New(f, nil)
	ctx := context.Background()

	wantSnap := []domain.StatsSnapshot{a, a, b}
	wantPhase := []Phase{PhaseReady, PhaseError, PhaseReady}
	wantOnline := []bool{true, false, true}
	for i := range wantSnap {
		s.pollOnce(ctx)
		st := s.State()
		if st.Fetch.Phase != wantPhase[i] {
			t.Fatalf("step %d: phase=%v want %v", i, st.Fetch.Phase, wantPhase[i])
		}
		if st.Fetch.Snapshot == nil {
			t.Fatalf("step %d: snapshot lost", i)
		}
		if diff := cmp.Diff(wantSnap[i], *st.Fetch.Snapshot); diff != "" {
			t.Fatalf("step %d: snapshot (-want +got):\n%s", i, diff)
		}
		if st.Online() != wantOnline[i] {
			t.Fatalf("step %d: online=%v want %v", i, st.Online(), wantOnline[i])
		}
	}

	st := s.State()
	if st.Fetch.Err != "" {
		t.Fatalf("error not cleared after success: %q", st.Fetch.Err)
	}
	if st.Polls != 3 || st.Failures != 1 {
		t.Fatalf("polls=%d failures=%d, want 3/1", st.Polls, st.Failures)
	}
	if up, ok := st.Uptime(); !ok || up < 0.66 || up > 0.67 {
		t.Fatalf("uptime=%v ok=%v", up, ok)
	}
}

func TestStore_FirstPollFailureIsErrorNotLoading(t *testing.T) {
	f := &scriptedFetcher{results: []result{{err: errors.New("dial tcp: connection refused")}}}
	s := New(f, nil)
	s.pollOnce(context.Background())

	st := s.State()
	if st.Fetch.Phase != PhaseError || st.Fetch.Snapshot != nil {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.Fetch.Err != "dial tcp: connection refused" {
		t.Fatalf("error message=%q", st.Fetch.Err)
	}
	if st.Online() {
		t.Fatal("store must be offline")
	}
}

func TestStore_RepeatedIdenticalPollsDoNotAccumulate(t *testing.T) {
	payload := snap(7)
	payload.TopServers = []domain.ServerSummary{{ID: "s1", Name: "Test", MemberCount: 5}}
	f := &scriptedFetcher{results: []result{{snap: payload}}}
	s := New(f, nil)

	s.pollOnce(context.Background())
	s.pollOnce(context.Background())

	st := s.State()
	if diff := cmp.Diff(payload, *st.Fetch.Snapshot); diff != "" {
		t.Fatalf("snapshot (-want +got):\n%s", diff)
	}
}

func fixedClock(times ...time.Time) func() time.Time {
	var mu sync.Mutex
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tm := times[min(i, len(times)-1)]
		i++
		return tm
	}
}

func TestStore_Probe(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		err       error
		clock     []time.Time
		wantKnown bool
		wantMs    int64
	}{
		{"success", nil, []time.Time{t0, t0.Add(42 * time.Millisecond)}, true, 42},
		{"rounds", nil, []time.Time{t0, t0.Add(1600 * time.Microsecond)}, true, 2},
		{"clock_went_back", nil, []time.Time{t0, t0.Add(-time.Second)}, true, 0},
		{"failure", errors.New("refused"), []time.Time{t0, t0.Add(10 * time.Millisecond)}, false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New(&scriptedFetcher{results: []result{{}}}, &fakeProber{err: tc.err}, WithClock(fixedClock(tc.clock...)))
			s.probeOnce(context.Background())

			got := s.State().Ping
			if got.Known != tc.wantKnown || got.Millis != tc.wantMs {
				t.Fatalf("ping=%+v, want known=%v ms=%d", got, tc.wantKnown, tc.wantMs)
			}
			if got.Millis < 0 {
				t.Fatal("negative latency")
			}
		})
	}
}

func TestStore_ProbeFailureReplacesStaleSample(t *testing.T) {
	t0 := time.Now()
	p := &fakeProber{}
	s := New(&scriptedFetcher{results: []result{{}}}, p, WithClock(fixedClock(t0, t0.Add(5*time.Millisecond), t0, t0, t0)))

	s.probeOnce(context.Background())
	if !s.State().Ping.Known {
		t.Fatal("first probe should be known")
	}
	p.err = errors.New("down")
	s.probeOnce(context.Background())
	if got := s.State().Ping; got.Known || got.String() != "unknown" {
		t.Fatalf("ping=%+v, want unknown", got)
	}
}

func TestStore_StartLifecycle(t *testing.T) {
	f := &scriptedFetcher{results: []result{{snap: snap(3)}}}
	s := New(f, &fakeProber{})

	if err := s.Start(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(context.Background(), time.Second); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start err=%v", err)
	}

	waitFor(t, "three polls", func() bool { return s.State().Polls >= 3 })
	waitFor(t, "ping sample", func() bool { return s.State().Ping.Known })
	if !s.State().Online() {
		t.Fatal("store should be online")
	}

	s.Stop()
	s.Stop()
	if !s.Stopped() {
		t.Fatal("Stopped() = false after Stop")
	}
	if err := s.Start(context.Background(), time.Second); !errors.Is(err, ErrStopped) {
		t.Fatalf("Start after Stop err=%v", err)
	}

	polls := s.State().Polls
	time.Sleep(40 * time.Millisecond)
	if got := s.State().Polls; got != polls {
		t.Fatalf("polls advanced after Stop: %d -> %d", polls, got)
	}
}

func TestStore_StopBeforeStartIsTerminal(t *testing.T) {
	s := New(&scriptedFetcher{results: []result{{}}}, nil)
	s.Stop()
	if err := s.Start(context.Background(), time.Second); !errors.Is(err, ErrStopped) {
		t.Fatalf("err=%v, want ErrStopped", err)
	}
}

type blockingFetcher struct {
	entered chan struct{}
	release chan struct{}
	snap    domain.StatsSnapshot
}

func (f *blockingFetcher) Snapshot(context.Context) (domain.StatsSnapshot, error) {
	f.entered <- struct{}{}
	<-f.release
	return f.snap, nil
}

func TestStore_LateResponseAfterStopIsDiscarded(t *testing.T) {
	f := &blockingFetcher{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		snap:    snap(99),
	}
	s := New(f, nil)

	var notified atomic.Int32
	s.Subscribe(func(State) { notified.Add(1) })

	if err := s.Start(context.Background(), time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-f.entered

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	waitFor(t, "stop flag", s.Stopped)
	close(f.release)
	<-done

	st := s.State()
	if st.Fetch.Phase != PhaseLoading || st.Fetch.Snapshot != nil || st.Polls != 0 {
		t.Fatalf("state mutated after Stop: %+v", st)
	}
	if n := notified.Load(); n != 0 {
		t.Fatalf("subscribers notified %d times after Stop", n)
	}
}

func TestStore_ParentContextCancelFreezesState(t *testing.T) {
	f := &blockingFetcher{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		snap:    snap(1),
	}
	s := New(f, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx, time.Hour); err != nil {
		t.Fatal(err)
	}
	<-f.entered
	cancel()
	close(f.release)
	s.Stop()

	if st := s.State(); st.Polls != 0 {
		t.Fatalf("state mutated after cancellation: %+v", st)
	}
}

type slowFetcher struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
	delay    time.Duration
}

func (f *slowFetcher) Snapshot(ctx context.Context) (domain.StatsSnapshot, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	f.calls.Add(1)
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return domain.StatsSnapshot{}, ctx.Err()
	}
	return snap(int64(f.calls.Load())), nil
}

func TestStore_SlowFetchSkipsOverlappingTicks(t *testing.T) {
	f := &slowFetcher{delay: 25 * time.Millisecond}
	s := New(f, nil)
	if err := s.Start(context.Background(), 5*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "four fetches", func() bool { return f.calls.Load() >= 4 })
	s.Stop()

	if m := f.maxSeen.Load(); m != 1 {
		t.Fatalf("max concurrent fetches=%d, want 1", m)
	}
}

func TestStore_TimeoutIsFailureTick(t *testing.T) {
	f := &slowFetcher{delay: time.Second}
	s := New(f, nil, WithTimeout(20*time.Millisecond))
	s.pollOnce(context.Background())

	st := s.State()
	if st.Fetch.Phase != PhaseError || st.Failures != 1 {
		t.Fatalf("timeout not recorded as failure: %+v", st)
	}
}

func TestStore_SubscribeAndUnsubscribe(t *testing.T) {
	f := &scriptedFetcher{results: []result{{snap: snap(1)}, {err: errors.New("x")}}}
	s := New(f, nil)

	var got []Phase
	unsubscribe := s.Subscribe(func(st State) { got = append(got, st.Fetch.Phase) })

	s.pollOnce(context.Background())
	s.pollOnce(context.Background())
	unsubscribe()
	s.pollOnce(context.Background())

	if diff := cmp.Diff([]Phase{PhaseReady, PhaseError}, got); diff != "" {
		t.Fatalf("notifications (-want +got):\n%s", diff)
	}
}

type gatedFetcher struct {
	started chan time.Time
	release chan struct{}
	calls   atomic.Int32
}

func (f *gatedFetcher) Snapshot(context.Context) (domain.StatsSnapshot, error) {
	f.started <- time.Now()
	if f.calls.Add(1) == 1 {
		<-f.release
	}
	return snap(1), nil
}

func TestStore_TickDuringSlowFetchIsDropped(t *testing.T) {
	const interval = 300 * time.Millisecond
	f := &gatedFetcher{started: make(chan time.Time, 8), release: make(chan struct{})}
	s := New(f, nil)
	if err := s.Start(context.Background(), interval); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	<-f.started
	// Two ticks fire while the first fetch is held; the ticker buffers one.
	time.Sleep(2*interval + interval/6)
	releasedAt := time.Now()
	close(f.release)

	select {
	case next := <-f.started:
		if gap := next.Sub(releasedAt); gap < 50*time.Millisecond {
			t.Fatalf("next fetch started %v after the slow one finished, want it to wait for the next tick", gap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no fetch after the slow one finished")
	}
}

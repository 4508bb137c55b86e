// Package host samples host memory, CPU load and uptime for the health endpoint.
package host

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vshulcz/harmonia/internal/domain"
	"github.com/vshulcz/harmonia/internal/ports"
)

// DefaultInterval is the sampling cadence used when none is given.
const DefaultInterval = 15 * time.Second

// SampleFunc reads one host sample.
type SampleFunc func(ctx context.Context) domain.HostHealth

// Collector keeps the latest host sample.
type Collector struct {
	sample   SampleFunc
	stop     chan struct{}
	last     domain.HostHealth
	interval time.Duration
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopOnce sync.Once
}

var _ ports.HostCollector = (*Collector)(nil)

// New creates a Collector using gopsutil; sample may be nil.
func New(interval time.Duration, sample SampleFunc) *Collector {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if sample == nil {
		sample = Sample
	}
	return &Collector{sample: sample, interval: interval, stop: make(chan struct{})}
}

// Start samples once synchronously and then in the background.
func (c *Collector) Start(ctx context.Context) error {
	c.store(c.sample(ctx))

	t := time.NewTicker(c.interval)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-t.C:
				c.store(c.sample(ctx))
			}
		}
	}()
	return nil
}

// Stop halts sampling and waits for the goroutine to finish.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}

// Snapshot returns the latest sample.
func (c *Collector) Snapshot() domain.HostHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

func (c *Collector) store(h domain.HostHealth) {
	c.mu.Lock()
	c.last = h
	c.mu.Unlock()
}

// Sample reads memory, CPU and uptime; fields whose probe fails stay zero.
func Sample(ctx context.Context) domain.HostHealth {
	h := domain.HostHealth{SampledAt: time.Now()}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		h.MemTotal = vm.Total
		h.MemUsedPct = vm.UsedPercent
	}
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		h.CPUPct = pct[0]
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		h.HostUptimeSec = up
	}
	return h
}

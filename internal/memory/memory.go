package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"pixel-basket/internal/logging"
	"pixel-basket/internal/metrics"
)

// Config tunes a Monitor.
type Config struct {
	// LimitBytes is the reference limit; 0 uses the runtime soft limit.
	LimitBytes int64
	// Resume is the usage ratio below which a paused monitor resumes.
	Resume float64
	// Pause is the usage ratio at which dispatching pauses.
	Pause         float64
	CheckInterval time.Duration
}

// DefaultConfig pauses at 85% of the limit and resumes below 70%.
func DefaultConfig() Config {
	return Config{Resume: 0.7, Pause: 0.85, CheckInterval: 2 * time.Second}
}

// Monitor pauses scan dispatching while the heap is close to the memory
// limit. Decoded full size images are the main consumer.
type Monitor struct {
	cfg   Config
	limit int64

	mu      sync.Mutex
	current uint64
	paused  bool
	resume  chan struct{}
	stop    chan struct{}
	once    sync.Once
}

// NewMonitor creates a monitor. Without any limit it never pauses.
func NewMonitor(cfg Config) *Monitor {
	limit := cfg.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			limit = l
		}
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultConfig().CheckInterval
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no limit configured, backpressure disabled")
	}
	return &Monitor{cfg: cfg, limit: limit, resume: make(chan struct{}), stop: make(chan struct{})}
}

// Start samples memory in the background until Stop.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				var stats runtime.MemStats
				runtime.ReadMemStats(&stats)
				m.observe(stats.Alloc)
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends sampling and releases waiters.
func (m *Monitor) Stop() {
	m.once.Do(func() { close(m.stop) })
}

// observe updates the pause state for a heap size of alloc bytes.
func (m *Monitor) observe(alloc uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	if m.limit == 0 {
		return
	}
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case !m.paused && usage >= m.cfg.Pause:
		logging.Warn("Memory at %.1f%% of limit, pausing scan dispatch", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPauses.Inc()
		go runtime.GC()
	case m.paused && usage < m.cfg.Resume:
		logging.Info("Memory at %.1f%% of limit, resuming scan dispatch", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// Wait blocks while dispatching is paused. It returns ctx.Err() if ctx
// ends first and nil once memory recovered or the monitor stopped.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.Lock()
	if !m.paused {
		m.mu.Unlock()
		return nil
	}
	resume := m.resume
	m.mu.Unlock()

	select {
	case <-resume:
		return nil
	case <-m.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether dispatching is paused.
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Usage returns heap bytes at the last sample, the limit and their ratio.
func (m *Monitor) Usage() (current, limit int64, ratio float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current = int64(min(m.current, uint64(1<<63-1)))
	if m.limit > 0 {
		ratio = float64(m.current) / float64(m.limit)
	}
	return current, m.limit, ratio
}

package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ProgressSource reports a counter that grows while the worker is alive,
// e.g. the scheduler's completed tick count
type ProgressSource interface {
	Ticks() int64
}

// UnhealthyCallback is called when the worker becomes unhealthy
type UnhealthyCallback func(reason string, err error)

// HealthChecker watches a worker from outside and reports when its
// progress counter stops moving
type HealthChecker struct {
	source ProgressSource

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	lastTicks      int64
	lastProgress   time.Time
	stuckCount     int
	stuckThreshold int
	stuckTimeout   time.Duration
	checkInterval  time.Duration
	onUnhealthy    UnhealthyCallback
	now            func() time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(source ProgressSource) *HealthChecker {
	return &HealthChecker{
		source:         source,
		lastProgress:   time.Now(),
		stuckThreshold: 3,
		stuckTimeout:   30 * time.Second,
		checkInterval:  5 * time.Second,
		now:            time.Now,
	}
}

// WithUnhealthyCallback sets the callback for unhealthy events
func (hc *HealthChecker) WithUnhealthyCallback(callback UnhealthyCallback) *HealthChecker {
	hc.onUnhealthy = callback
	return hc
}

// WithCheckInterval sets the health check interval
func (hc *HealthChecker) WithCheckInterval(interval time.Duration) *HealthChecker {
	hc.checkInterval = interval
	return hc
}

// WithStuckTimeout sets how long without progress counts as one strike
func (hc *HealthChecker) WithStuckTimeout(timeout time.Duration) *HealthChecker {
	hc.stuckTimeout = timeout
	return hc
}

// Start begins monitoring
func (hc *HealthChecker) Start() {
	hc.mu.Lock()
	hc.ctx, hc.cancel = context.WithCancel(context.Background())
	hc.lastTicks = hc.source.Ticks()
	hc.lastProgress = hc.now()
	hc.mu.Unlock()

	hc.wg.Add(1)
	go hc.monitorStuck(hc.ctx)
}

// Stop stops monitoring
func (hc *HealthChecker) Stop() {
	hc.mu.Lock()
	cancel := hc.cancel
	hc.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	hc.wg.Wait()
}

func (hc *HealthChecker) monitorStuck(ctx context.Context) {
	defer hc.wg.Done()

	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.Check()
		}
	}
}

// Check runs one stuck check. The callback fires after stuckThreshold
// consecutive checks without progress beyond stuckTimeout.
func (hc *HealthChecker) Check() {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	now := hc.now()
	ticks := hc.source.Ticks()
	if ticks != hc.lastTicks {
		hc.lastTicks = ticks
		hc.lastProgress = now
		hc.stuckCount = 0
		return
	}

	idle := now.Sub(hc.lastProgress)
	if idle <= hc.stuckTimeout {
		return
	}

	hc.stuckCount++
	if hc.stuckCount >= hc.stuckThreshold {
		if hc.onUnhealthy != nil {
			hc.onUnhealthy("worker_stuck", fmt.Errorf("no tick for %v", idle.Round(time.Second)))
		}
		// Reset counter after triggering
		hc.stuckCount = 0
	}
}

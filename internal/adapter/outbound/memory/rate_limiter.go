// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Sentinel-Gate/irisgate/internal/domain/ratelimit"
)

// RateLimiter implements ratelimit.Limiter with GCRA (generic cell rate
// algorithm) state kept in memory. A background sweep drops idle keys.
type RateLimiter struct {
	mu    sync.Mutex
	cells map[string]time.Time // theoretical arrival time per key

	now             func() time.Time
	logger          *slog.Logger
	cleanupInterval time.Duration
	maxTTL          time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewRateLimiter creates a limiter that sweeps every 5 minutes and forgets
// keys idle for an hour.
func NewRateLimiter(logger *slog.Logger) *RateLimiter {
	return NewRateLimiterWithConfig(logger, 5*time.Minute, time.Hour)
}

// NewRateLimiterWithConfig creates a limiter with custom sweep settings.
func NewRateLimiterWithConfig(logger *slog.Logger, cleanupInterval, maxTTL time.Duration) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		cells:           make(map[string]time.Time),
		now:             time.Now,
		logger:          logger,
		cleanupInterval: cleanupInterval,
		maxTTL:          maxTTL,
		stopChan:        make(chan struct{}),
	}
}

// Allow admits at most limit.BurstSize() back-to-back requests per key and
// then one per limit.Emission().
func (r *RateLimiter) Allow(_ context.Context, key string, limit ratelimit.Limit) (ratelimit.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	emission := limit.Emission()
	burst := limit.BurstSize()
	burstOffset := time.Duration(burst) * emission

	tat, ok := r.cells[key]
	if !ok || tat.Before(now) {
		tat = now
	}
	newTAT := tat.Add(emission)
	allowAt := newTAT.Add(-burstOffset)
	if now.Before(allowAt) {
		return ratelimit.Result{RetryAfter: allowAt.Sub(now)}, nil
	}
	r.cells[key] = newTAT

	remaining := int((burstOffset - newTAT.Sub(now)) / emission)
	remaining = max(0, min(remaining, burst))
	return ratelimit.Result{Allowed: true, Remaining: remaining}, nil
}

// StartCleanup starts the sweep goroutine. It stops when ctx is done or
// Stop is called.
func (r *RateLimiter) StartCleanup(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case <-ticker.C:
				r.cleanup()
			}
		}
	}()
}

// cleanup removes keys whose arrival time is older than maxTTL.
func (r *RateLimiter) cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.maxTTL)
	cleaned := 0
	for key, tat := range r.cells {
		if tat.Before(cutoff) {
			delete(r.cells, key)
			cleaned++
		}
	}
	if cleaned > 0 {
		r.logger.Debug("rate limiter cleanup completed",
			"cleaned_keys", cleaned,
			"remaining_keys", len(r.cells))
	}
	return cleaned
}

// Stop stops the sweep goroutine and waits for it to exit.
// Safe to call multiple times.
func (r *RateLimiter) Stop() {
	r.once.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
}

// Size returns the number of tracked keys.
func (r *RateLimiter) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cells)
}

var _ ratelimit.Limiter = (*RateLimiter)(nil)

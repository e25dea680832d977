package shared

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RequestRateLimiter enforces a minimum gap between consecutive request
// starts. The recommendation backfill loop uses it to keep the external
// generation function below its rate limit.
type RequestRateLimiter struct {
	minimumDelay    time.Duration
	clock           Clock
	lastRequestTime time.Time
	requestCount    int64
	mutex           sync.Mutex
}

// NewRequestRateLimiter creates a rate limiter with the specified minimum
// delay between request starts. The first Wait returns immediately.
func NewRequestRateLimiter(minimumDelay time.Duration, clock Clock) *RequestRateLimiter {
	return &RequestRateLimiter{
		minimumDelay: minimumDelay,
		clock:        clock,
	}
}

// Wait blocks until the minimum delay has elapsed since the last request
// start, or the context is cancelled.
func (limiter *RequestRateLimiter) Wait(ctx context.Context) error {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	if !limiter.lastRequestTime.IsZero() {
		elapsed := limiter.clock.Now().Sub(limiter.lastRequestTime)
		if elapsed < limiter.minimumDelay {
			remaining := limiter.minimumDelay - elapsed

			logrus.WithFields(logrus.Fields{
				"component":       "RequestRateLimiter",
				"elapsed_time":    elapsed,
				"minimum_delay":   limiter.minimumDelay,
				"remaining_delay": remaining,
				"request_count":   limiter.requestCount + 1,
			}).Debug("Enforcing rate limit delay")

			if err := limiter.clock.Sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}

	limiter.lastRequestTime = limiter.clock.Now()
	limiter.requestCount++
	return nil
}

// RequestCount returns the total number of requests admitted
func (limiter *RequestRateLimiter) RequestCount() int64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.requestCount
}

// Reset clears the rate limiter state
func (limiter *RequestRateLimiter) Reset() {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	limiter.lastRequestTime = time.Time{}
	limiter.requestCount = 0
}

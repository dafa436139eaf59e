package imagecache

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// capacityLimitEnv overrides the debug capacity cap; see CapacityLimitFromEnv.
const capacityLimitEnv = "IMAGECACHE_CAPACITY_LIMIT"

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for eviction and recovery events.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithClock sets the time source used for index timestamps.
// Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithBackOff sets the factory for the pause schedule used between
// eviction and retry. A fresh schedule is created per insertion loop.
// Pass a factory returning &backoff.ZeroBackOff{} to disable the pause
// in tests.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Cache) {
		if newBackOff != nil {
			c.newBackOff = newBackOff
		}
	}
}

// WithCapacityLimit caps the store at n entries from the coordinator's
// side: once store.Count() reaches n, insertion attempts are refused
// before touching the store. This exists to make eviction testable
// without filling a real bounded store; 0 disables the cap.
func WithCapacityLimit(n int) Option {
	return func(c *Cache) {
		c.capLimit = n
	}
}

// CapacityLimitFromEnv reads the debug capacity cap from the
// IMAGECACHE_CAPACITY_LIMIT environment variable. It returns 0 (no cap)
// when the variable is unset or not a positive integer. Call it once at
// construction:
//
//	cache, err := imagecache.New(st, idx,
//		imagecache.WithCapacityLimit(imagecache.CapacityLimitFromEnv()))
func CapacityLimitFromEnv() int {
	v := os.Getenv(capacityLimitEnv)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// defaultBackOff is the production pause schedule: exponential from 50ms
// capped at 300ms, matching the empirically useful range for the store's
// remove-then-insert window.
func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 300 * time.Millisecond
	bo.MaxElapsedTime = 0
	return bo
}

package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// bucketState holds one in-memory token bucket.
type bucketState struct {
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time // used by cleanup to identify stale buckets
}

// MemoryStore implements Store with process-local state. It exists for
// tests and single-instance development; coordination across service
// instances requires the Redis store.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucketState
	now     func() time.Time

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often stale buckets are evicted.
// Set to 0 to disable automatic cleanup.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// WithClock overrides the time source. Tests use it to advance time without
// sleeping.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates an in-memory store with optional cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		buckets:         make(map[string]*bucketState),
		now:             time.Now,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}

	if ms.cleanupInterval > 0 {
		go ms.cleanup()
	}
	return ms
}

// ConsumeTokens refills lazily for the elapsed time and consumes only if
// the full request fits. Refill is monotonic: elapsed time can only add
// tokens, and the count never exceeds capacity.
func (ms *MemoryStore) ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config) (State, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	b, exists := ms.buckets[key]
	if !exists {
		b = &bucketState{tokens: cfg.Capacity(), lastRefill: now}
		ms.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastRefill).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+elapsed*cfg.Rate, cfg.Capacity())
		b.lastRefill = now
	}
	b.lastAccess = now

	allowed := float64(tokens) <= b.tokens
	if allowed && tokens > 0 {
		b.tokens -= float64(tokens)
	}

	resetAt := now
	if deficit := cfg.Capacity() - b.tokens; deficit > 0 && cfg.Rate > 0 {
		resetAt = now.Add(time.Duration(deficit / cfg.Rate * float64(time.Second)))
	}

	return State{Allowed: allowed, Remaining: b.tokens, ResetAt: resetAt}, nil
}

func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.buckets, key)
	return nil
}

func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeStale()
		case <-ms.stopCleanup:
			return
		}
	}
}

// removeStale drops buckets that have not been touched recently so idle
// subjects do not accumulate forever.
func (ms *MemoryStore) removeStale() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	staleThreshold := 1 * time.Hour

	for key, b := range ms.buckets {
		if now.Sub(b.lastAccess) > staleThreshold {
			delete(ms.buckets, key)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (ms *MemoryStore) Close() {
	select {
	case <-ms.stopCleanup:
	default:
		close(ms.stopCleanup)
	}
}

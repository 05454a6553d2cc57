package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL bounds how long locks and cached results live. Records are a
// dedup window, not a permanent ledger.
const DefaultTTL = 24 * time.Hour

const maxKeyLength = 255

// lockRecord is what LOCKED stores under lock:{op}:{key}.
type lockRecord struct {
	BodyHash  string    `json:"body_hash"`
	CreatedAt time.Time `json:"created_at"`
}

// resultRecord is what COMPLETED stores under result:{op}:{key}.
type resultRecord struct {
	BodyHash  string          `json:"body_hash"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// CheckResult reports what a read-only lookup of a key found.
type CheckResult struct {
	// Duplicate is true when the key is already known with the same body,
	// either in flight or completed.
	Duplicate bool
	// InFlight is true when another execution currently holds the lock and
	// no result is available yet.
	InFlight bool
	// Result holds the cached result when the prior execution completed.
	Result json.RawMessage
}

// Manager coordinates at-most-once execution per idempotency key.
type Manager struct {
	store     Store
	operation string
	ttl       time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL overrides the record lifetime. The TTL on the lock key is the only
// safety net against a crashed holder wedging a key forever, so it must stay
// finite.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// New creates a manager scoped to one logical operation (e.g. "send").
// Keys from different operations never collide.
func New(store Store, operation string, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		operation: operation,
		ttl:       DefaultTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) lockKey(key string) string   { return "lock:" + m.operation + ":" + key }
func (m *Manager) resultKey(key string) string { return "result:" + m.operation + ":" + key }

// BodyHash returns the digest that identifies a request body for conflict
// detection.
func BodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: key exceeds %d characters", ErrInvalidKey, maxKeyLength)
	}
	return nil
}

// AcquireLock attempts to claim the key for this execution. It returns true
// when the lock was acquired, false when the same request is already in
// flight or completed (a duplicate), and ErrConflict when the key is held
// with a different body hash.
func (m *Manager) AcquireLock(ctx context.Context, key string, body []byte) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	hash := BodyHash(body)
	record, err := json.Marshal(lockRecord{BodyHash: hash, CreatedAt: time.Now().UTC()})
	if err != nil {
		return false, err
	}

	// Two rounds cover the race where a lock expires between the failed
	// SetNX and the Get that inspects the holder.
	for range 2 {
		created, err := m.store.SetNX(ctx, m.lockKey(key), record, m.ttl)
		if err != nil {
			return false, errors.Join(ErrStoreUnavailable, err)
		}
		if created {
			return true, nil
		}

		raw, found, err := m.store.Get(ctx, m.lockKey(key))
		if err != nil {
			return false, errors.Join(ErrStoreUnavailable, err)
		}
		if !found {
			continue
		}

		var existing lockRecord
		if err := json.Unmarshal(raw, &existing); err != nil {
			return false, errors.Join(ErrStoreUnavailable, err)
		}
		if existing.BodyHash != hash {
			return false, ErrConflict
		}
		return false, nil
	}

	return false, errors.Join(ErrStoreUnavailable, errors.New("lock state kept changing"))
}

// Check is the read-only lookup used to short-circuit before doing any work.
// It reports a cached result for a completed duplicate, an in-flight
// duplicate, a conflict, or nothing at all.
func (m *Manager) Check(ctx context.Context, key string, body []byte) (*CheckResult, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	hash := BodyHash(body)

	raw, found, err := m.store.Get(ctx, m.resultKey(key))
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if found {
		var stored resultRecord
		if err := json.Unmarshal(raw, &stored); err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		if stored.BodyHash != hash {
			return nil, ErrConflict
		}
		return &CheckResult{Duplicate: true, Result: stored.Result}, nil
	}

	raw, found, err = m.store.Get(ctx, m.lockKey(key))
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if found {
		var held lockRecord
		if err := json.Unmarshal(raw, &held); err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		if held.BodyHash != hash {
			return nil, ErrConflict
		}
		return &CheckResult{Duplicate: true, InFlight: true}, nil
	}

	return &CheckResult{}, nil
}

// StoreResult caches the outcome of a completed execution under the result
// key, independent of the lock, so duplicates can be served after release.
func (m *Manager) StoreResult(ctx context.Context, key string, result any, body []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	record, err := json.Marshal(resultRecord{
		BodyHash:  BodyHash(body),
		Result:    payload,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	// First writer wins: a result is produced exactly once per key, so an
	// existing record means a concurrent duplicate already stored it.
	if _, err := m.store.SetNX(ctx, m.resultKey(key), record, m.ttl); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// ReleaseLock frees the lock. Call only after StoreResult has succeeded;
// releasing with no stored result reopens the key to re-execution.
func (m *Manager) ReleaseLock(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, m.lockKey(key)); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Cleanup removes both the lock and the cached result.
func (m *Manager) Cleanup(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, m.lockKey(key), m.resultKey(key)); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

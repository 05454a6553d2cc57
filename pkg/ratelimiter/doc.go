// Package ratelimiter provides token-bucket admission control per subject
// (caller or workspace), backed by a shared atomic store.
//
// Refill is computed lazily at access time as elapsed seconds multiplied by
// the refill rate, capped at the bucket capacity, and never adjusted
// backward: time passing can only add tokens. Capacity is the sustained rate
// times a burst multiplier, so short bursts above the steady rate are
// tolerated without raising the sustained budget.
//
// When a request is denied, RetryAfter is the exact time until enough
// tokens accumulate, derived from the refill rate rather than a fixed
// constant, so callers can implement correct client-side backoff.
//
// All mutation is a single atomic store operation, so buckets are safe
// under concurrent access from multiple service instances when backed by
// the Redis store. The memory store serves tests and single-instance
// development.
package ratelimiter

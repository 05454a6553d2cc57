// Package idempotency deduplicates logical requests keyed by a
// caller-supplied idempotency key.
//
// Each key moves through a small state machine against a shared store with
// atomic conditional writes:
//
//	UNLOCKED -> LOCKED(bodyHash) -> COMPLETED(bodyHash, result)
//	                             -> UNLOCKED (after release)
//
// AcquireLock atomically claims a key for one in-flight execution. A second
// caller with the same key and the same request body observes a duplicate
// and is expected to fetch the prior result instead of executing again. A
// caller reusing the key with a different body is a conflict and is always
// rejected; silently accepting it would deliver the wrong request under a
// cached identity.
//
// Results are stored under a separate key with the same TTL, so a completed
// result can still be served after the lock is released. Callers must clean
// up only after the result is durably stored; releasing earlier loses dedup
// protection if the process crashes mid-work.
//
// Store failures are fatal for the request. Proceeding as if no lock existed
// would reintroduce duplicate sends, so every store error fails closed.
package idempotency

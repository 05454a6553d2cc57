// Package webhook signs, verifies, and delivers outbound event
// notifications.
//
// Signatures are HMAC-SHA256 over "timestamp.payload" and travel in the
// X-Requil-Signature and X-Requil-Timestamp headers, with X-Requil-ID
// carrying a unique event id. Verification recomputes the signature with a
// constant-time comparison and independently enforces a freshness window:
// an envelope older than the configured max age is rejected even when its
// signature is valid, which closes the replay hole. Both checks must pass.
//
// Delivery posts JSON payloads with bounded, backing-off retries from the
// retry package; HTTP 4xx responses are permanent failures and are not
// retried, everything else is treated as transient.
package webhook

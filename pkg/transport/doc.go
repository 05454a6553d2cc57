// Package transport abstracts the outbound mail-sending provider.
//
// The orchestrator hands a fully rendered Message to a Sender and receives
// a Receipt or an error classified as transient or permanent. Transient
// failures (provider outage, throttling) are retry-eligible under the
// orchestrator's backoff policy; permanent failures (invalid recipient,
// rejected content) are surfaced immediately. The classification lives
// here because only the provider adapter can interpret its own error
// codes.
//
// Two production adapters exist, Postmark and Resend, plus a development
// sender that writes messages to disk instead of delivering them.
package transport

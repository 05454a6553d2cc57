package redis

import "errors"

var (
	// ErrEmptyConnectionURL indicates the config carries no connection URL.
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")

	// ErrFailedToParseRedisConnString indicates the connection URL is not a
	// valid redis:// URL.
	ErrFailedToParseRedisConnString = errors.New("redis: failed to parse connection string")

	// ErrRedisNotReady indicates the server did not accept a connection
	// within the configured attempt budget.
	ErrRedisNotReady = errors.New("redis: server did not become ready in time")

	// ErrHealthcheckFailed indicates a ping on an established client failed.
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)

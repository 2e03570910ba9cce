// Package idempotency defines the key store behind the X-Idempotency-Key header.
package idempotency

import (
	"context"
	"time"
)

// DefaultTTL is how long completed keys are replayed.
const DefaultTTL = 24 * time.Hour

// StaleAfter is the age after which a pending key is considered abandoned.
const StaleAfter = time.Minute

// Status of an idempotent operation.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Replay is the cached HTTP response of a finished operation.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store manages idempotency keys.
type Store interface {
	// AcquireKey returns (nil, nil) when the caller owns the key, a Replay when
	// the operation already finished, or an Idempotency AppError when the key
	// is in flight or was used for a different request.
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error)

	// CompleteKey stores a successful response.
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error

	// FailKey stores an error response.
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error

	// ReleaseKey forgets a pending key so the next request with it runs again.
	// Used for outcomes a retry may change: conflicts and server errors.
	ReleaseKey(ctx context.Context, key string) error

	// CleanupExpired removes expired keys and returns how many were removed.
	CleanupExpired(ctx context.Context) (int64, error)
}

// NormalizeReplayStatus defaults a missing status to 200.
func NormalizeReplayStatus(status int) int {
	if status == 0 {
		return 200
	}
	return status
}

// NormalizeReplayContentType defaults a missing content type to JSON.
func NormalizeReplayContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}

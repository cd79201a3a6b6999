package repository

import (
	"context"
	"time"
)

// IdempotencyEntry is the cached outcome of a previously handled write
// request. Read-only after creation; removed on TTL expiry.
type IdempotencyEntry struct {
	Key          string
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
}

// IdempotencyStore holds keyed response replays for a bounded time.
// Get must treat an entry older than the store's TTL as absent even if it
// has not been swept yet; sweeping is memory hygiene, not correctness.
//
// The store takes no in-flight claim: two concurrent requests with the same
// unseen key both miss and both execute the underlying operation. Only
// post-completion replay is deduplicated.
type IdempotencyStore interface {
	// Get returns the entry for key, or nil when absent or expired.
	Get(ctx context.Context, key string) (*IdempotencyEntry, error)
	// Set stores the entry. Last writer wins on the same key.
	Set(ctx context.Context, entry *IdempotencyEntry) error
	// Sweep removes expired entries and reports how many were dropped.
	Sweep(ctx context.Context) (int, error)
}

package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/repository"
)

type idempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]*repository.IdempotencyEntry
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewIdempotencyStore creates an in-memory idempotency store with the given
// TTL. The store is constructed at startup and injected; it is not a
// package-level singleton.
func NewIdempotencyStore(ttl time.Duration, logger *zap.Logger) *idempotencyStore {
	return &idempotencyStore{
		entries: make(map[string]*repository.IdempotencyEntry),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *idempotencyStore) Get(ctx context.Context, key string) (*repository.IdempotencyEntry, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	// Expired entries are absent even before the sweeper removes them
	if s.now().Sub(entry.CreatedAt) > s.ttl {
		return nil, nil
	}
	return entry, nil
}

func (s *idempotencyStore) Set(ctx context.Context, entry *repository.IdempotencyEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.mu.Lock()
	s.entries[entry.Key] = entry
	s.mu.Unlock()
	return nil
}

func (s *idempotencyStore) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.CreatedAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// StartSweeper runs periodic sweeps until ctx is cancelled. Intended to be
// launched as a goroutine from main.
func (s *idempotencyStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, _ := s.Sweep(ctx)
			if removed > 0 {
				s.logger.Debug("Swept expired idempotency entries", zap.Int("removed", removed))
			}
		}
	}
}

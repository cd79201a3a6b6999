package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/repository"
)

type idempotencyStore struct {
	db     *sql.DB
	ttl    time.Duration
	logger *zap.Logger
}

// NewIdempotencyStore creates a Postgres-backed idempotency store. It
// implements the same contract as the memory store but survives restarts.
func NewIdempotencyStore(db *sql.DB, ttl time.Duration, logger *zap.Logger) *idempotencyStore {
	return &idempotencyStore{
		db:     db,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *idempotencyStore) Get(ctx context.Context, key string) (*repository.IdempotencyEntry, error) {
	query := `
		SELECT key, request_hash, status_code, response_body, created_at
		FROM idempotency_entries
		WHERE key = $1 AND created_at > $2
	`

	var entry repository.IdempotencyEntry

	err := s.db.QueryRowContext(ctx, query, key, time.Now().Add(-s.ttl)).Scan(
		&entry.Key,
		&entry.RequestHash,
		&entry.StatusCode,
		&entry.ResponseBody,
		&entry.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to get idempotency entry", zap.Error(err))
		return nil, err
	}

	return &entry, nil
}

func (s *idempotencyStore) Set(ctx context.Context, entry *repository.IdempotencyEntry) error {
	query := `
		INSERT INTO idempotency_entries (key, request_hash, status_code, response_body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE
		SET request_hash = EXCLUDED.request_hash,
		    status_code = EXCLUDED.status_code,
		    response_body = EXCLUDED.response_body,
		    created_at = EXCLUDED.created_at
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		entry.Key,
		entry.RequestHash,
		entry.StatusCode,
		entry.ResponseBody,
		entry.CreatedAt,
	)

	if err != nil {
		s.logger.Error("Failed to store idempotency entry", zap.Error(err))
		return err
	}

	return nil
}

func (s *idempotencyStore) Sweep(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM idempotency_entries WHERE created_at <= $1`,
		time.Now().Add(-s.ttl),
	)
	if err != nil {
		s.logger.Error("Failed to sweep idempotency entries", zap.Error(err))
		return 0, err
	}
	removed, _ := res.RowsAffected()
	return int(removed), nil
}

// StartSweeper runs periodic sweeps until ctx is cancelled
func (s *idempotencyStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep(ctx)
			if err == nil && removed > 0 {
				s.logger.Debug("Swept expired idempotency entries", zap.Int("removed", removed))
			}
		}
	}
}

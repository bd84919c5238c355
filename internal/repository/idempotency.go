package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shampooches/payments/internal/db"
	"github.com/shampooches/payments/internal/models"
)

// IdempotencyRepository stores responses of mutating API requests for replay
type IdempotencyRepository interface {
	Get(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error)
	Store(ctx context.Context, key *models.IdempotencyKey) error
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

type idempotencyRepository struct {
	db db.Querier
}

// NewIdempotencyRepository creates a new IdempotencyRepository
func NewIdempotencyRepository(q db.Querier) IdempotencyRepository {
	return &idempotencyRepository{db: q}
}

// Get returns the stored response, or nil when none exists.
func (r *idempotencyRepository) Get(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error) {
	query := `
		SELECT key, request_path, response_status, response_body, created_at
		FROM idempotency_keys
		WHERE key = $1 AND request_path = $2
	`

	var k models.IdempotencyKey
	err := r.db.QueryRowContext(ctx, query, key, requestPath).Scan(
		&k.Key,
		&k.RequestPath,
		&k.ResponseStatus,
		&k.ResponseBody,
		&k.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}

	return &k, nil
}

// Store saves a response. The first stored response for a key and path wins.
func (r *idempotencyRepository) Store(ctx context.Context, key *models.IdempotencyKey) error {
	createdAt := key.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO idempotency_keys (key, request_path, response_status, response_body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key, request_path) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, key.Key, key.RequestPath, key.ResponseStatus, key.ResponseBody, createdAt); err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}

	return nil
}

// DeleteOlderThan purges stored responses created before the cutoff
func (r *idempotencyRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete idempotency keys: %w", err)
	}

	return result.RowsAffected()
}

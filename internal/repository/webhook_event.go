package repository

import (
	"context"
	"fmt"

	"github.com/shampooches/payments/internal/db"
)

// WebhookEventRepository remembers which deliveries were already processed
type WebhookEventRepository interface {
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type webhookEventRepository struct {
	db db.Querier
}

// NewWebhookEventRepository creates a new WebhookEventRepository
func NewWebhookEventRepository(q db.Querier) WebhookEventRepository {
	return &webhookEventRepository{db: q}
}

// MarkProcessed records eventID and reports whether this is its first delivery.
func (r *webhookEventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	query := `
		INSERT INTO webhook_events (event_id, type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// Forget removes eventID so a redelivery is processed again.
func (r *webhookEventRepository) Forget(ctx context.Context, eventID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM webhook_events WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("failed to forget webhook event: %w", err)
	}
	return nil
}

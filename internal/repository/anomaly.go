package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shampooches/payments/internal/db"
	"github.com/shampooches/payments/internal/models"
)

// AnomalyRepository records conflicting terminal statuses for audit
type AnomalyRepository interface {
	Create(ctx context.Context, a *models.PaymentAnomaly) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.PaymentAnomaly, error)
}

type anomalyRepository struct {
	db db.Querier
}

// NewAnomalyRepository creates a new AnomalyRepository
func NewAnomalyRepository(q db.Querier) AnomalyRepository {
	return &anomalyRepository{db: q}
}

// Create inserts an anomaly
func (r *anomalyRepository) Create(ctx context.Context, a *models.PaymentAnomaly) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	query := `
		INSERT INTO payment_anomalies (id, booking_id, external_id, stored_status, incoming_status, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.BookingID, a.ExternalID, a.StoredStatus, a.IncomingStatus, a.Source,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record payment anomaly: %w", err)
	}

	return nil
}

// ListByBooking returns a booking's anomalies, oldest first
func (r *anomalyRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.PaymentAnomaly, error) {
	query := `
		SELECT id, booking_id, external_id, stored_status, incoming_status, source, created_at
		FROM payment_anomalies
		WHERE booking_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment anomalies: %w", err)
	}
	defer rows.Close()

	var anomalies []*models.PaymentAnomaly
	for rows.Next() {
		var a models.PaymentAnomaly
		if err := rows.Scan(&a.ID, &a.BookingID, &a.ExternalID, &a.StoredStatus, &a.IncomingStatus, &a.Source, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment anomaly: %w", err)
		}
		anomalies = append(anomalies, &a)
	}

	return anomalies, rows.Err()
}

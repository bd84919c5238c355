package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shampooches/payments/internal/db"
	"github.com/shampooches/payments/internal/models"
)

// PaymentRepository defines the interface for payment record access
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	FindByExternalID(ctx context.Context, externalID string) (*models.Payment, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error
}

type paymentRepository struct {
	db db.Querier
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(q db.Querier) PaymentRepository {
	return &paymentRepository{db: q}
}

const paymentColumns = `
	id, external_id, booking_id, type, amount_cents, currency, method, status,
	idempotency_key, processed_by, reason, created_at, updated_at`

// Create inserts a payment. A second payment with the same external id
// returns models.ErrDuplicateTransaction and leaves an enclosing
// transaction usable.
func (r *paymentRepository) Create(ctx context.Context, p *models.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := `
		INSERT INTO payments (
			id, external_id, booking_id, type, amount_cents, currency, method,
			status, idempotency_key, processed_by, reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.ExternalID,
		p.BookingID,
		p.Type,
		p.AmountCents,
		p.Currency,
		p.Method,
		p.Status,
		p.IdempotencyKey,
		p.ProcessedBy,
		p.Reason,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrDuplicateTransaction
	}
	if err != nil {
		err = mapWriteError(err)
		if errors.Is(err, models.ErrDuplicateTransaction) {
			return err
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// FindByExternalID retrieves a payment by its gateway id
func (r *paymentRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_id = $1`

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", externalID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return p, nil
}

// ListByBooking returns a booking's payments, oldest first
func (r *paymentRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, nil
}

// UpdateStatus sets the status of a payment
func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error {
	query := `UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("payment %s: %w", id, models.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID,
		&p.ExternalID,
		&p.BookingID,
		&p.Type,
		&p.AmountCents,
		&p.Currency,
		&p.Method,
		&p.Status,
		&p.IdempotencyKey,
		&p.ProcessedBy,
		&p.Reason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

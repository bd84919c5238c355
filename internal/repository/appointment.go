// Package repository provides data access layer implementations for the payments service.
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

// AppointmentRepository defines the interface for appointment payment record access
type AppointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	Update(ctx context.Context, appt *models.Appointment) error
}

type appointmentRepository struct {
	db db.Querier
}

// NewAppointmentRepository creates a new AppointmentRepository
func NewAppointmentRepository(q db.Querier) AppointmentRepository {
	return &appointmentRepository{db: q}
}

const appointmentColumns = `
	id, status, appointment_date, original_appointment_date,
	deposit_payment_id, deposit_amount, deposit_status, reschedule_count,
	final_payment_id, checkout_id, checkout_status,
	total_service_cost, remaining_balance, version, created_at, updated_at`

// Create inserts a new appointment record
func (r *appointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}

	query := `
		INSERT INTO appointments (
			id, status, appointment_date, deposit_amount, deposit_status,
			total_service_cost, remaining_balance
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING version, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		appt.ID,
		appt.Status,
		appt.AppointmentDate,
		appt.DepositAmount,
		appt.DepositStatus,
		appt.TotalServiceCost,
		appt.RemainingBalance,
	).Scan(&appt.Version, &appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", mapWriteError(err))
	}

	return nil
}

// FindByID retrieves an appointment by id
func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return r.find(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
}

// FindByIDForUpdate retrieves an appointment and locks the row until the
// transaction ends. Every write to a booking's payment state goes through it.
func (r *appointmentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return r.find(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
}

func (r *appointmentRepository) find(ctx context.Context, query string, id uuid.UUID) (*models.Appointment, error) {
	var a models.Appointment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.Status,
		&a.AppointmentDate,
		&a.OriginalAppointmentDate,
		&a.DepositPaymentID,
		&a.DepositAmount,
		&a.DepositStatus,
		&a.RescheduleCount,
		&a.FinalPaymentID,
		&a.CheckoutID,
		&a.CheckoutStatus,
		&a.TotalServiceCost,
		&a.RemainingBalance,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("appointment %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return &a, nil
}

// Update writes every mutable column and bumps the version. It fails with
// models.ErrVersionConflict when the row changed since appt was read.
func (r *appointmentRepository) Update(ctx context.Context, appt *models.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $3,
		    appointment_date = $4,
		    original_appointment_date = $5,
		    deposit_payment_id = $6,
		    deposit_status = $7,
		    reschedule_count = $8,
		    final_payment_id = $9,
		    checkout_id = $10,
		    checkout_status = $11,
		    total_service_cost = $12,
		    remaining_balance = $13,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		appt.ID,
		appt.Version,
		appt.Status,
		appt.AppointmentDate,
		appt.OriginalAppointmentDate,
		appt.DepositPaymentID,
		appt.DepositStatus,
		appt.RescheduleCount,
		appt.FinalPaymentID,
		appt.CheckoutID,
		appt.CheckoutStatus,
		appt.TotalServiceCost,
		appt.RemainingBalance,
	).Scan(&appt.Version, &appt.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("appointment %s: %w", appt.ID, models.ErrVersionConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	return nil
}

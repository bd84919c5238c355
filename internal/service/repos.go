package service

import (
	"context"
	"database/sql"

	"github.com/shampooches/payments/internal/db"
	"github.com/shampooches/payments/internal/repository"
)

// repos groups the repositories used inside one booking transaction
type repos struct {
	appointments repository.AppointmentRepository
	payments     repository.PaymentRepository
	anomalies    repository.AnomalyRepository
}

func newRepos(q db.Querier) repos {
	return repos{
		appointments: repository.NewAppointmentRepository(q),
		payments:     repository.NewPaymentRepository(q),
		anomalies:    repository.NewAnomalyRepository(q),
	}
}

// inBookingTx runs fn with repositories bound to one READ COMMITTED
// transaction. fn locks the appointment row first, which serializes all
// writers of the same booking.
func inBookingTx(ctx context.Context, database *db.DB, fn func(r repos) error) error {
	err := database.InTx(ctx, func(tx *sql.Tx) error {
		return fn(newRepos(tx))
	})
	if err != nil {
		return storeError(err, ErrCodeInternalError, "booking")
	}
	return nil
}

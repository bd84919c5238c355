package repository

import (
	"context"
	"io"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shampooches/payments/internal/config"
	"github.com/shampooches/payments/internal/db"
	"github.com/shampooches/payments/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Skipf("skipping database test: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		t.Skipf("skipping database test: %v", err)
	}

	require.NoError(t, db.ApplySchema(context.Background(), database), "failed to apply schema")

	return database
}

func cleanupTestDB(t *testing.T, database *db.DB) {
	t.Helper()
	if err := database.Close(); err != nil {
		log.Printf("failed to close test database: %v", err)
	}
}

func truncateTables(t *testing.T, database *db.DB) {
	t.Helper()

	_, err := database.ExecContext(context.Background(), `
		TRUNCATE TABLE payment_anomalies, payments, appointments, webhook_events, idempotency_keys CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func createAppointment(t *testing.T, database *db.DB, cost int64) *models.Appointment {
	t.Helper()

	appt := &models.Appointment{
		Status:           models.AppointmentStatusPending,
		AppointmentDate:  time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second),
		DepositAmount:    2500,
		DepositStatus:    models.DepositStatusPending,
		TotalServiceCost: cost,
		RemainingBalance: max(0, cost-2500),
	}
	require.NoError(t, NewAppointmentRepository(database).Create(context.Background(), appt))
	return appt
}

func strPtr(s string) *string {
	return &s
}

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shampooches/payments/internal/models"
)

func TestAppointmentRepository_CreateAndFind(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)
	truncateTables(t, database)

	created := createAppointment(t, database, 6000)
	repo := NewAppointmentRepository(database)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, models.DepositStatusPending, found.DepositStatus)
	assert.Equal(t, int64(6000), found.TotalServiceCost)
	assert.Equal(t, int64(3500), found.RemainingBalance)
	assert.Equal(t, int64(1), found.Version)
	assert.Nil(t, found.DepositPaymentID)
	assert.True(t, created.AppointmentDate.Equal(found.AppointmentDate))
}

func TestAppointmentRepository_FindByID_NotFound(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	_, err := NewAppointmentRepository(database).FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAppointmentRepository_Update_BumpsVersion(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)
	truncateTables(t, database)

	appt := createAppointment(t, database, 6000)
	repo := NewAppointmentRepository(database)

	original := appt.AppointmentDate
	appt.DepositPaymentID = strPtr("pay_1")
	appt.DepositStatus = models.DepositStatusApplied
	appt.RescheduleCount = 1
	appt.OriginalAppointmentDate = &original
	appt.AppointmentDate = original.Add(24 * time.Hour)

	require.NoError(t, repo.Update(context.Background(), appt))
	assert.Equal(t, int64(2), appt.Version)

	found, err := repo.FindByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", *found.DepositPaymentID)
	assert.Equal(t, models.DepositStatusApplied, found.DepositStatus)
	assert.Equal(t, 1, found.RescheduleCount)
	require.NotNil(t, found.OriginalAppointmentDate)
	assert.True(t, original.Equal(*found.OriginalAppointmentDate))
}

func TestAppointmentRepository_Update_StaleVersion(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)
	truncateTables(t, database)

	appt := createAppointment(t, database, 6000)
	repo := NewAppointmentRepository(database)

	stale := *appt
	require.NoError(t, repo.Update(context.Background(), appt))

	stale.DepositStatus = models.DepositStatusForfeited
	err := repo.Update(context.Background(), &stale)
	assert.ErrorIs(t, err, models.ErrVersionConflict)
}

func TestAppointmentRepository_FindByIDForUpdate_InTx(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)
	truncateTables(t, database)

	appt := createAppointment(t, database, 6000)

	err := database.InTx(context.Background(), func(tx *sql.Tx) error {
		repo := NewAppointmentRepository(tx)
		locked, err := repo.FindByIDForUpdate(context.Background(), appt.ID)
		if err != nil {
			return err
		}
		locked.TotalServiceCost = 9000
		locked.RemainingBalance = 6500
		return repo.Update(context.Background(), locked)
	})
	require.NoError(t, err)

	found, err := NewAppointmentRepository(database).FindByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6500), found.RemainingBalance)
}

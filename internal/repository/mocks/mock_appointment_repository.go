package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/shampooches/payments/internal/models"
)

// MockAppointmentRepository is a mock type for the AppointmentRepository type
type MockAppointmentRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, appt
func (_m *MockAppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	ret := _m.Called(ctx, appt)
	return ret.Error(0)
}

// FindByID provides a mock function with given fields: ctx, id
func (_m *MockAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Appointment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Appointment)
	}
	return r0, ret.Error(1)
}

// FindByIDForUpdate provides a mock function with given fields: ctx, id
func (_m *MockAppointmentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Appointment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Appointment)
	}
	return r0, ret.Error(1)
}

// Update provides a mock function with given fields: ctx, appt
func (_m *MockAppointmentRepository) Update(ctx context.Context, appt *models.Appointment) error {
	ret := _m.Called(ctx, appt)
	return ret.Error(0)
}

// NewMockAppointmentRepository creates a new instance of MockAppointmentRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockAppointmentRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAppointmentRepository {
	m := &MockAppointmentRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

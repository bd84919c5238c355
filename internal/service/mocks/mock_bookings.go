package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/shampooches/payments/internal/models"
	"github.com/shampooches/payments/internal/service"
	"github.com/shampooches/payments/internal/square"
)

// MockBookings is a mock type for the Bookings type
type MockBookings struct {
	mock.Mock
}

// CreateAppointment provides a mock function with given fields: ctx, appointmentDate, totalServiceCost
func (_m *MockBookings) CreateAppointment(ctx context.Context, appointmentDate time.Time, totalServiceCost int64) (*models.Appointment, error) {
	ret := _m.Called(ctx, appointmentDate, totalServiceCost)
	return appointment(ret), ret.Error(1)
}

// CollectDeposit provides a mock function with given fields: ctx, bookingID, sourceID
func (_m *MockBookings) CollectDeposit(ctx context.Context, bookingID uuid.UUID, sourceID string) (*models.Payment, error) {
	ret := _m.Called(ctx, bookingID, sourceID)
	return payment(ret), ret.Error(1)
}

// RequestDepositRefund provides a mock function with given fields: ctx, bookingID, reason, staffID
func (_m *MockBookings) RequestDepositRefund(ctx context.Context, bookingID uuid.UUID, reason, staffID string) (*models.Payment, error) {
	ret := _m.Called(ctx, bookingID, reason, staffID)
	return payment(ret), ret.Error(1)
}

// RescheduleAppointment provides a mock function with given fields: ctx, bookingID, newDate
func (_m *MockBookings) RescheduleAppointment(ctx context.Context, bookingID uuid.UUID, newDate time.Time) (*models.Appointment, error) {
	ret := _m.Called(ctx, bookingID, newDate)
	return appointment(ret), ret.Error(1)
}

// CancelAppointment provides a mock function with given fields: ctx, bookingID
func (_m *MockBookings) CancelAppointment(ctx context.Context, bookingID uuid.UUID) (*models.Appointment, error) {
	ret := _m.Called(ctx, bookingID)
	return appointment(ret), ret.Error(1)
}

// SetServiceCost provides a mock function with given fields: ctx, bookingID, totalServiceCost
func (_m *MockBookings) SetServiceCost(ctx context.Context, bookingID uuid.UUID, totalServiceCost int64) (*models.Appointment, error) {
	ret := _m.Called(ctx, bookingID, totalServiceCost)
	return appointment(ret), ret.Error(1)
}

// GetPaymentInfo provides a mock function with given fields: ctx, bookingID
func (_m *MockBookings) GetPaymentInfo(ctx context.Context, bookingID uuid.UUID) (*service.PaymentInfo, error) {
	ret := _m.Called(ctx, bookingID)

	var r0 *service.PaymentInfo
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.PaymentInfo)
	}
	return r0, ret.Error(1)
}

// ListGatewayPayments provides a mock function with given fields: ctx, begin, end
func (_m *MockBookings) ListGatewayPayments(ctx context.Context, begin, end time.Time) ([]square.Payment, error) {
	ret := _m.Called(ctx, begin, end)

	var r0 []square.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]square.Payment)
	}
	return r0, ret.Error(1)
}

func appointment(ret mock.Arguments) *models.Appointment {
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(*models.Appointment)
}

func payment(ret mock.Arguments) *models.Payment {
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(*models.Payment)
}

// NewMockBookings creates a new instance of MockBookings. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockBookings(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBookings {
	m := &MockBookings{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/shampooches/payments/internal/models"
	"github.com/shampooches/payments/internal/service"
	"github.com/shampooches/payments/internal/square"
)

// MockCheckouts is a mock type for the Checkouts type
type MockCheckouts struct {
	mock.Mock
}

// CreateTerminalCheckout provides a mock function with given fields: ctx, bookingID, amount, deviceID
func (_m *MockCheckouts) CreateTerminalCheckout(ctx context.Context, bookingID uuid.UUID, amount int64, deviceID string) (*models.Payment, error) {
	ret := _m.Called(ctx, bookingID, amount, deviceID)
	return payment(ret), ret.Error(1)
}

// GetCheckoutStatus provides a mock function with given fields: ctx, checkoutID
func (_m *MockCheckouts) GetCheckoutStatus(ctx context.Context, checkoutID string) (string, error) {
	ret := _m.Called(ctx, checkoutID)
	return ret.String(0), ret.Error(1)
}

// PollTerminalCheckoutStatus provides a mock function with given fields: ctx, checkoutID, onStatusUpdate
func (_m *MockCheckouts) PollTerminalCheckoutStatus(ctx context.Context, checkoutID string, onStatusUpdate func(status string)) (string, error) {
	ret := _m.Called(ctx, checkoutID, onStatusUpdate)
	return ret.String(0), ret.Error(1)
}

// CancelTerminalCheckout provides a mock function with given fields: ctx, checkoutID
func (_m *MockCheckouts) CancelTerminalCheckout(ctx context.Context, checkoutID string) (string, error) {
	ret := _m.Called(ctx, checkoutID)
	return ret.String(0), ret.Error(1)
}

// ReconcileCheckout provides a mock function with given fields: ctx, checkoutID
func (_m *MockCheckouts) ReconcileCheckout(ctx context.Context, checkoutID string) (*service.Reconciliation, error) {
	ret := _m.Called(ctx, checkoutID)

	var r0 *service.Reconciliation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.Reconciliation)
	}
	return r0, ret.Error(1)
}

// GetTerminalDevices provides a mock function with given fields: ctx
func (_m *MockCheckouts) GetTerminalDevices(ctx context.Context) ([]square.Device, error) {
	ret := _m.Called(ctx)

	var r0 []square.Device
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]square.Device)
	}
	return r0, ret.Error(1)
}

// NewMockCheckouts creates a new instance of MockCheckouts. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockCheckouts(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCheckouts {
	m := &MockCheckouts{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shampooches/payments/internal/square"
)

// MockGateway is a mock type for the Gateway type
type MockGateway struct {
	mock.Mock
}

// CreateDeposit provides a mock function with given fields: ctx, req
func (_m *MockGateway) CreateDeposit(ctx context.Context, req square.DepositRequest) (*square.Payment, error) {
	ret := _m.Called(ctx, req)

	var r0 *square.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*square.Payment)
	}
	return r0, ret.Error(1)
}

// CreateTerminalCheckout provides a mock function with given fields: ctx, req
func (_m *MockGateway) CreateTerminalCheckout(ctx context.Context, req square.CheckoutRequest) (*square.Checkout, error) {
	ret := _m.Called(ctx, req)

	var r0 *square.Checkout
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*square.Checkout)
	}
	return r0, ret.Error(1)
}

// GetCheckout provides a mock function with given fields: ctx, checkoutID
func (_m *MockGateway) GetCheckout(ctx context.Context, checkoutID string) (*square.Checkout, error) {
	ret := _m.Called(ctx, checkoutID)

	var r0 *square.Checkout
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*square.Checkout)
	}
	return r0, ret.Error(1)
}

// GetCheckoutStatus provides a mock function with given fields: ctx, checkoutID
func (_m *MockGateway) GetCheckoutStatus(ctx context.Context, checkoutID string) (string, error) {
	ret := _m.Called(ctx, checkoutID)
	return ret.String(0), ret.Error(1)
}

// CancelCheckout provides a mock function with given fields: ctx, checkoutID
func (_m *MockGateway) CancelCheckout(ctx context.Context, checkoutID string) (*square.Checkout, error) {
	ret := _m.Called(ctx, checkoutID)

	var r0 *square.Checkout
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*square.Checkout)
	}
	return r0, ret.Error(1)
}

// CreateRefund provides a mock function with given fields: ctx, req
func (_m *MockGateway) CreateRefund(ctx context.Context, req square.RefundRequest) (*square.Refund, error) {
	ret := _m.Called(ctx, req)

	var r0 *square.Refund
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*square.Refund)
	}
	return r0, ret.Error(1)
}

// GetPayment provides a mock function with given fields: ctx, paymentID
func (_m *MockGateway) GetPayment(ctx context.Context, paymentID string) (*square.Payment, error) {
	ret := _m.Called(ctx, paymentID)

	var r0 *square.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*square.Payment)
	}
	return r0, ret.Error(1)
}

// ListPayments provides a mock function with given fields: ctx, locationID, begin, end
func (_m *MockGateway) ListPayments(ctx context.Context, locationID string, begin, end time.Time) ([]square.Payment, error) {
	ret := _m.Called(ctx, locationID, begin, end)

	var r0 []square.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]square.Payment)
	}
	return r0, ret.Error(1)
}

// ListDevices provides a mock function with given fields: ctx, locationID
func (_m *MockGateway) ListDevices(ctx context.Context, locationID string) ([]square.Device, error) {
	ret := _m.Called(ctx, locationID)

	var r0 []square.Device
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]square.Device)
	}
	return r0, ret.Error(1)
}

// NewMockGateway creates a new instance of MockGateway. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGateway {
	m := &MockGateway{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

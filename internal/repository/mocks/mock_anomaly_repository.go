package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/shampooches/payments/internal/models"
)

// MockAnomalyRepository is a mock type for the AnomalyRepository type
type MockAnomalyRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, a
func (_m *MockAnomalyRepository) Create(ctx context.Context, a *models.PaymentAnomaly) error {
	ret := _m.Called(ctx, a)
	return ret.Error(0)
}

// ListByBooking provides a mock function with given fields: ctx, bookingID
func (_m *MockAnomalyRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.PaymentAnomaly, error) {
	ret := _m.Called(ctx, bookingID)

	var r0 []*models.PaymentAnomaly
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.PaymentAnomaly)
	}
	return r0, ret.Error(1)
}

// NewMockAnomalyRepository creates a new instance of MockAnomalyRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockAnomalyRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAnomalyRepository {
	m := &MockAnomalyRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/shampooches/payments/internal/models"
)

// MockPaymentRepository is a mock type for the PaymentRepository type
type MockPaymentRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, p
func (_m *MockPaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	ret := _m.Called(ctx, p)
	return ret.Error(0)
}

// FindByExternalID provides a mock function with given fields: ctx, externalID
func (_m *MockPaymentRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	ret := _m.Called(ctx, externalID)

	var r0 *models.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Payment)
	}
	return r0, ret.Error(1)
}

// ListByBooking provides a mock function with given fields: ctx, bookingID
func (_m *MockPaymentRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.Payment, error) {
	ret := _m.Called(ctx, bookingID)

	var r0 []*models.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.Payment)
	}
	return r0, ret.Error(1)
}

// UpdateStatus provides a mock function with given fields: ctx, id, status
func (_m *MockPaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error {
	ret := _m.Called(ctx, id, status)
	return ret.Error(0)
}

// NewMockPaymentRepository creates a new instance of MockPaymentRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockPaymentRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPaymentRepository {
	m := &MockPaymentRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

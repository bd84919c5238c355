package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shampooches/payments/internal/models"
)

// MockIdempotencyRepository is a mock type for the IdempotencyRepository type
type MockIdempotencyRepository struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, key, requestPath
func (_m *MockIdempotencyRepository) Get(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error) {
	ret := _m.Called(ctx, key, requestPath)

	var r0 *models.IdempotencyKey
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.IdempotencyKey)
	}
	return r0, ret.Error(1)
}

// Store provides a mock function with given fields: ctx, key
func (_m *MockIdempotencyRepository) Store(ctx context.Context, key *models.IdempotencyKey) error {
	ret := _m.Called(ctx, key)
	return ret.Error(0)
}

// DeleteOlderThan provides a mock function with given fields: ctx, before
func (_m *MockIdempotencyRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	ret := _m.Called(ctx, before)

	var r0 int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(int64)
	}
	return r0, ret.Error(1)
}

// NewMockIdempotencyRepository creates a new instance of MockIdempotencyRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockIdempotencyRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockIdempotencyRepository {
	m := &MockIdempotencyRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

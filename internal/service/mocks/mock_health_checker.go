package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockHealthChecker is a mock type for the HealthChecker type
type MockHealthChecker struct {
	mock.Mock
}

// PingContext provides a mock function with given fields: ctx
func (_m *MockHealthChecker) PingContext(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// NewMockHealthChecker creates a new instance of MockHealthChecker. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockHealthChecker(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockHealthChecker {
	m := &MockHealthChecker{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

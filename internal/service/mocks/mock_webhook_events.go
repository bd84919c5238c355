package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shampooches/payments/internal/webhook"
)

// MockWebhookEvents is a mock type for the WebhookEvents type
type MockWebhookEvents struct {
	mock.Mock
}

// Process provides a mock function with given fields: ctx, e
func (_m *MockWebhookEvents) Process(ctx context.Context, e *webhook.Event) (bool, error) {
	ret := _m.Called(ctx, e)
	return ret.Bool(0), ret.Error(1)
}

// NewMockWebhookEvents creates a new instance of MockWebhookEvents. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockWebhookEvents(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWebhookEvents {
	m := &MockWebhookEvents{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

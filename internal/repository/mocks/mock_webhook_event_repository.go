package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockWebhookEventRepository is a mock type for the WebhookEventRepository type
type MockWebhookEventRepository struct {
	mock.Mock
}

// MarkProcessed provides a mock function with given fields: ctx, eventID, eventType
func (_m *MockWebhookEventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	ret := _m.Called(ctx, eventID, eventType)
	return ret.Bool(0), ret.Error(1)
}

// Forget provides a mock function with given fields: ctx, eventID
func (_m *MockWebhookEventRepository) Forget(ctx context.Context, eventID string) error {
	ret := _m.Called(ctx, eventID)
	return ret.Error(0)
}

// NewMockWebhookEventRepository creates a new instance of MockWebhookEventRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockWebhookEventRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWebhookEventRepository {
	m := &MockWebhookEventRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

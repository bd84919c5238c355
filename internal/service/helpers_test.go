package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shampooches/payments/internal/repository/mocks"
)

var testNow = time.UnixMilli(1700000000000)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testRepos struct {
	appointments *mocks.MockAppointmentRepository
	payments     *mocks.MockPaymentRepository
	anomalies    *mocks.MockAnomalyRepository
}

func newTestRepos(t *testing.T) (repos, testRepos) {
	m := testRepos{
		appointments: mocks.NewMockAppointmentRepository(t),
		payments:     mocks.NewMockPaymentRepository(t),
		anomalies:    mocks.NewMockAnomalyRepository(t),
	}
	return repos{
		appointments: m.appointments,
		payments:     m.payments,
		anomalies:    m.anomalies,
	}, m
}

func testRetry() retryPolicy {
	return retryPolicy{logger: testLogger(), retries: 2}
}

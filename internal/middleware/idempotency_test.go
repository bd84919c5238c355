package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shampooches/payments/internal/models"
	"github.com/shampooches/payments/internal/repository/mocks"
)

const depositPath = "/api/v1/bookings/6f1c5a4e-3b5d-4f6a-9c1e-2d7b8a9e0f11/deposit"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body)) //nolint:errcheck // test helper
	})
}

func TestIdempotency_GETRequestsBypassed(t *testing.T) {
	repo := mocks.NewMockIdempotencyRepository(t)
	middleware := Idempotency(repo, testLogger())

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/terminal/checkouts/chk_1", nil)
	req.Header.Set("Idempotency-Key", "test-key")
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.True(t, handlerCalled, "handler should be called for GET requests")
	repo.AssertNotCalled(t, "Get")
	repo.AssertNotCalled(t, "Store")
}

func TestIdempotency_NonIdempotentPathBypassed(t *testing.T) {
	repo := mocks.NewMockIdempotencyRepository(t)
	middleware := Idempotency(repo, testLogger())

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/6f1c5a4e-3b5d-4f6a-9c1e-2d7b8a9e0f11/cancel", nil)
	req.Header.Set("Idempotency-Key", "test-key")
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.True(t, handlerCalled, "handler should be called for non-idempotent paths")
	repo.AssertNotCalled(t, "Get")
	repo.AssertNotCalled(t, "Store")
}

func TestIdempotency_MissingKeyPassesThrough(t *testing.T) {
	repo := mocks.NewMockIdempotencyRepository(t)
	middleware := Idempotency(repo, testLogger())

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, depositPath, nil)
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.True(t, handlerCalled, "handler should be called without idempotency key")
	repo.AssertNotCalled(t, "Get")
	repo.AssertNotCalled(t, "Store")
}

func TestIdempotency_FirstRequestCached(t *testing.T) {
	repo := mocks.NewMockIdempotencyRepository(t)
	repo.On("Get", mock.Anything, "unique-key-123", depositPath).Return(nil, nil)
	repo.On("Store", mock.Anything, mock.MatchedBy(func(k *models.IdempotencyKey) bool {
		return k.Key == "unique-key-123" &&
			k.RequestPath == depositPath &&
			k.ResponseStatus == http.StatusCreated &&
			k.ResponseBody == `{"status":"completed"}`
	})).Return(nil)

	middleware := Idempotency(repo, testLogger())
	handler := testHandler(http.StatusCreated, `{"status":"completed"}`)

	req := httptest.NewRequest(http.MethodPost, depositPath, nil)
	req.Header.Set("Idempotency-Key", "unique-key-123")
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"status":"completed"}`, rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Idempotent-Replayed"), "first request should not have replay header")
}

func TestIdempotency_SecondRequestReturnsCached(t *testing.T) {
	repo := mocks.NewMockIdempotencyRepository(t)

	cached := &models.IdempotencyKey{
		Key:            "duplicate-key",
		RequestPath:    depositPath,
		ResponseStatus: http.StatusCreated,
		ResponseBody:   `{"payment_id":"pay_1"}`,
	}
	repo.On("Get", mock.Anything, "duplicate-key", depositPath).Return(cached, nil)

	middleware := Idempotency(repo, testLogger())

	callCount := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, depositPath, nil)
	req.Header.Set("Idempotency-Key", "duplicate-key")
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.Equal(t, 0, callCount, "handler should not be called when cached")
	assert.Equal(t, "true", rec.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"payment_id":"pay_1"}`, rec.Body.String())
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestIdempotency_SameKeyDifferentPathsAreSeparate(t *testing.T) {
	repo := mocks.NewMockIdempotencyRepository(t)
	repo.On("Get", mock.Anything, "shared-key", mock.Anything).Return(nil, nil)
	repo.On("Store", mock.Anything, mock.AnythingOfType("*models.IdempotencyKey")).Return(nil)

	middleware := Idempotency(repo, testLogger())

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`)) //nolint:errcheck // test helper
	})

	req1 := httptest.NewRequest(http.MethodPost, depositPath, nil)
	req1.Header.Set("Idempotency-Key", "shared-key")
	rec1 := httptest.NewRecorder()
	middleware(handler).ServeHTTP(rec1, req1)

	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/terminal/checkouts", nil)
	req2.Header.Set("Idempotency-Key", "shared-key")
	rec2 := httptest.NewRecorder()
	middleware(handler).ServeHTTP(rec2, req2)

	assert.Contains(t, rec1.Body.String(), "deposit")
	assert.Contains(t, rec2.Body.String(), "checkouts")

	repo.AssertCalled(t, "Get", mock.Anything, "shared-key", depositPath)
	repo.AssertCalled(t, "Get", mock.Anything, "shared-key", "/api/v1/terminal/checkouts")
}

func TestIdempotency_ErrorResponsesNotCached(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusConflict, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			repo := mocks.NewMockIdempotencyRepository(t)
			repo.On("Get", mock.Anything, "error-key", depositPath).Return(nil, nil)

			middleware := Idempotency(repo, testLogger())

			req := httptest.NewRequest(http.MethodPost, depositPath, nil)
			req.Header.Set("Idempotency-Key", "error-key")
			rec := httptest.NewRecorder()

			middleware(testHandler(status, `{"error":"x"}`)).ServeHTTP(rec, req)

			assert.Equal(t, status, rec.Code)
			repo.AssertNotCalled(t, "Store")
		})
	}
}

func TestIdempotency_RepoGetErrorFailsOpen(t *testing.T) {
	repo := mocks.NewMockIdempotencyRepository(t)
	repo.On("Get", mock.Anything, "test-key", depositPath).Return(nil, errors.New("database connection failed"))

	middleware := Idempotency(repo, testLogger())

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, depositPath, nil)
	req.Header.Set("Idempotency-Key", "test-key")
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.True(t, handlerCalled, "handler should be called on repo.Get error (fail open)")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdempotency_RepoStoreErrorDoesNotAffectResponse(t *testing.T) {
	repo := mocks.NewMockIdempotencyRepository(t)
	repo.On("Get", mock.Anything, "test-key", depositPath).Return(nil, nil)
	repo.On("Store", mock.Anything, mock.AnythingOfType("*models.IdempotencyKey")).Return(errors.New("failed to store"))

	middleware := Idempotency(repo, testLogger())

	req := httptest.NewRequest(http.MethodPost, depositPath, nil)
	req.Header.Set("Idempotency-Key", "test-key")
	rec := httptest.NewRecorder()

	middleware(testHandler(http.StatusOK, `{"status":"success"}`)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"status":"success"}`, rec.Body.String())
}

func TestIdempotency_AllIdempotentPaths(t *testing.T) {
	paths := []string{
		"/api/v1/bookings",
		depositPath,
		"/api/v1/bookings/6f1c5a4e-3b5d-4f6a-9c1e-2d7b8a9e0f11/refund",
		"/api/v1/terminal/checkouts",
		"/api/v1/terminal/checkouts/",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			repo := mocks.NewMockIdempotencyRepository(t)
			repo.On("Get", mock.Anything, "test-key", normalizeRequestPath(path)).Return(nil, nil)
			repo.On("Store", mock.Anything, mock.AnythingOfType("*models.IdempotencyKey")).Return(nil)

			middleware := Idempotency(repo, testLogger())

			req := httptest.NewRequest(http.MethodPost, path, nil)
			req.Header.Set("Idempotency-Key", "test-key")
			rec := httptest.NewRecorder()

			middleware(testHandler(http.StatusOK, `{}`)).ServeHTTP(rec, req)

			repo.AssertCalled(t, "Store", mock.Anything, mock.AnythingOfType("*models.IdempotencyKey"))
		})
	}
}

func TestPurgeIdempotencyKeys(t *testing.T) {
	repo := mocks.NewMockIdempotencyRepository(t)
	ctx, cancel := context.WithCancel(context.Background())

	start := time.Now()
	repo.On("DeleteOlderThan", ctx, mock.MatchedBy(func(before time.Time) bool {
		return !before.After(start.Add(-time.Hour).Add(time.Minute))
	})).Return(int64(4), nil).Run(func(mock.Arguments) { cancel() }).Once()

	done := make(chan struct{})
	go func() {
		PurgeIdempotencyKeys(ctx, repo, time.Hour, time.Hour, testLogger())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("purge loop did not stop after cancellation")
	}
}

package terminal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shampooches/payments/internal/square"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type scriptedFetcher struct {
	mu      sync.Mutex
	script  []fetchResult
	repeat  fetchResult
	queries int
}

type fetchResult struct {
	err    error
	status string
}

func (f *scriptedFetcher) GetCheckoutStatus(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries++
	if len(f.script) > 0 {
		next := f.script[0]
		f.script = f.script[1:]
		return next.status, next.err
	}
	return f.repeat.status, f.repeat.err
}

func (f *scriptedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries
}

type recordingSleep struct {
	calls []time.Duration
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func newTestPoller(f StatusFetcher, s *recordingSleep, opts ...Option) *Poller {
	opts = append([]Option{WithSleep(s.sleep)}, opts...)
	return NewPoller(f, testLogger(), opts...)
}

func TestPoll_CompletesAfterInProgress(t *testing.T) {
	fetcher := &scriptedFetcher{script: []fetchResult{
		{status: "IN_PROGRESS"},
		{status: "IN_PROGRESS"},
		{status: "IN_PROGRESS"},
		{status: "COMPLETED"},
	}}
	sleeper := &recordingSleep{}
	poller := newTestPoller(fetcher, sleeper)

	var observed []string
	status, err := poller.Poll(context.Background(), "chk_1", func(s string) {
		observed = append(observed, s)
	})

	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", status)
	assert.Equal(t, 4, fetcher.count())
	assert.Equal(t, []string{"IN_PROGRESS", "IN_PROGRESS", "IN_PROGRESS", "COMPLETED"}, observed)
	assert.Len(t, sleeper.calls, 4)
	assert.Equal(t, DefaultInterval, sleeper.calls[0])
}

func TestPoll_TimesOutAfterExactlyMaxAttempts(t *testing.T) {
	fetcher := &scriptedFetcher{repeat: fetchResult{status: "IN_PROGRESS"}}
	poller := newTestPoller(fetcher, &recordingSleep{})

	observations := 0
	_, err := poller.Poll(context.Background(), "chk_1", func(string) { observations++ })

	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, DefaultMaxAttempts, fetcher.count())
	assert.Equal(t, DefaultMaxAttempts, observations)
}

func TestPoll_TerminatedStatuses(t *testing.T) {
	for _, terminal := range []string{"CANCELED", "FAILED"} {
		t.Run(terminal, func(t *testing.T) {
			fetcher := &scriptedFetcher{script: []fetchResult{
				{status: "PENDING"},
				{status: terminal},
			}}
			poller := newTestPoller(fetcher, &recordingSleep{})

			status, err := poller.Poll(context.Background(), "chk_1", nil)

			var terminated *CheckoutTerminatedError
			require.ErrorAs(t, err, &terminated)
			assert.Equal(t, terminal, terminated.Status)
			assert.Equal(t, terminal, status)
			assert.Equal(t, 2, fetcher.count())
		})
	}
}

func TestPoll_TransportErrorUsesAnAttempt(t *testing.T) {
	fetcher := &scriptedFetcher{script: []fetchResult{
		{status: "IN_PROGRESS"},
		{err: &square.TransportError{StatusCode: 503}},
		{status: "COMPLETED"},
	}}
	poller := newTestPoller(fetcher, &recordingSleep{}, WithMaxAttempts(3))

	var observed []string
	status, err := poller.Poll(context.Background(), "chk_1", func(s string) { observed = append(observed, s) })

	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", status)
	assert.Equal(t, []string{"IN_PROGRESS", "COMPLETED"}, observed)
	assert.Equal(t, 3, fetcher.count())
}

func TestPoll_TransportErrorsCountTowardTimeout(t *testing.T) {
	fetcher := &scriptedFetcher{repeat: fetchResult{err: &square.TransportError{StatusCode: 500}}}
	poller := newTestPoller(fetcher, &recordingSleep{}, WithMaxAttempts(5))

	_, err := poller.Poll(context.Background(), "chk_1", nil)

	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, 5, fetcher.count())
}

func TestPoll_NotFoundAborts(t *testing.T) {
	fetcher := &scriptedFetcher{repeat: fetchResult{err: square.ErrNotFound}}
	poller := newTestPoller(fetcher, &recordingSleep{})

	_, err := poller.Poll(context.Background(), "chk_missing", nil)

	assert.ErrorIs(t, err, square.ErrNotFound)
	assert.NotErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, 1, fetcher.count())
}

func TestPoll_CancelStopsImmediately(t *testing.T) {
	fetcher := &scriptedFetcher{repeat: fetchResult{status: "IN_PROGRESS"}}
	ctx, cancel := context.WithCancel(context.Background())
	poller := newTestPoller(fetcher, &recordingSleep{})

	_, err := poller.Poll(ctx, "chk_1", func(string) {
		if fetcher.count() == 2 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, ErrPollCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, 2, fetcher.count())
}

func TestPoll_RealSleepHonoursCancel(t *testing.T) {
	fetcher := &scriptedFetcher{repeat: fetchResult{status: "IN_PROGRESS"}}
	poller := NewPoller(fetcher, testLogger(), WithInterval(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := poller.Poll(ctx, "chk_1", nil)
	assert.ErrorIs(t, err, ErrPollCanceled)
	assert.Zero(t, fetcher.count())
}

func TestStatuses_StopsWhenConsumerBreaks(t *testing.T) {
	fetcher := &scriptedFetcher{repeat: fetchResult{status: "IN_PROGRESS"}}
	poller := newTestPoller(fetcher, &recordingSleep{})

	seen := 0
	for _, err := range poller.Statuses(context.Background(), "chk_1") {
		require.NoError(t, err)
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, fetcher.count())
}

func TestStatuses_IsRestartable(t *testing.T) {
	fetcher := &scriptedFetcher{repeat: fetchResult{status: "COMPLETED"}}
	poller := newTestPoller(fetcher, &recordingSleep{})
	seq := poller.Statuses(context.Background(), "chk_1")

	for range 2 {
		var got []string
		for status, err := range seq {
			require.NoError(t, err)
			got = append(got, status)
		}
		assert.Equal(t, []string{"COMPLETED"}, got)
	}
	assert.Equal(t, 2, fetcher.count())
}

func TestStateOf(t *testing.T) {
	tests := map[string]State{
		"PENDING":          StatePending,
		"IN_PROGRESS":      StateInProgress,
		"CANCEL_REQUESTED": StateInProgress,
		"COMPLETED":        StateCompleted,
		"CANCELED":         StateCanceled,
		"FAILED":           StateFailed,
		"SOMETHING_NEW":    StateInProgress,
	}
	for status, want := range tests {
		assert.Equal(t, want, StateOf(status), status)
	}
	assert.True(t, StateTimedOut.IsTerminal())
	assert.False(t, StatePending.IsTerminal())
}

func TestCheckoutTerminatedError(t *testing.T) {
	err := error(&CheckoutTerminatedError{Status: "FAILED"})
	assert.Equal(t, "terminal checkout ended with status FAILED", err.Error())
	assert.False(t, errors.Is(err, ErrPollTimeout))
}

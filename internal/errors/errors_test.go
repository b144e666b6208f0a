package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("load listing: %w", NewDatabaseError("get", cause))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, &AppError{Code: CodeStorage})
	assert.NotErrorIs(t, err, &AppError{Code: CodeState})
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHandler_UserMessages(t *testing.T) {
	h := NewHandler(nil, false)

	tests := []struct {
		name      string
		err       error
		message   string
		retryable bool
	}{
		{"storage", NewDatabaseError("set", stderrors.New("boom")), GenericUserMessage, true},
		{"session", NewSessionExpiredError("add-queue"), "Your session has expired, please send the listing link again.", false},
		{"unknown", stderrors.New("plain"), GenericUserMessage, false},
		{"rate", NewRateLimitError(7), "Too many requests. Try again in 7 seconds.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, retry := h.Handle(context.Background(), tt.err)
			assert.Equal(t, tt.message, msg)
			assert.Equal(t, tt.retryable, retry)
		})
	}

	msg, retry := h.Handle(context.Background(), nil)
	assert.Empty(t, msg)
	assert.False(t, retry)
}

func TestWithRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return NewValidationError("bad")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return NewDatabaseError("get", stderrors.New("timeout"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_CancelledContextReturnsLastError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		cancel()
		return NewDatabaseError("get", stderrors.New("timeout"))
	})

	assert.ErrorIs(t, err, &AppError{Code: CodeStorage})
	assert.Equal(t, 1, calls)
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	var transitions []string
	cb := NewCircuitBreaker(
		WithMinRequests(2),
		WithOpenTimeout(time.Second),
		WithOnStateChange(func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)
	cb.now = func() time.Time { return now }

	failing := stderrors.New("telegram down")
	for range 2 {
		assert.ErrorIs(t, cb.Call(func() error { return failing }), failing)
	}
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Call(func() error { return nil }), ErrCircuitOpen)

	now = now.Add(2 * time.Second)
	for range HalfOpenMaxRequests {
		require.NoError(t, cb.Call(func() error { return nil }))
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/queue-bot/internal/jobs"
	"github.com/Proton-105/queue-bot/internal/state"
)

type mockPromoter struct {
	mock.Mock
}

func (m *mockPromoter) Retry(ctx context.Context, listingID string, userID int64) error {
	return m.Called(listingID, userID).Error(0)
}

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) Sweep(ctx context.Context) (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func TestPromotionRetryHandler(t *testing.T) {
	task, err := jobs.NewPromotionRetryTask("L1", 7)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		p := &mockPromoter{}
		p.On("Retry", "L1", int64(7)).Return(nil).Once()

		require.NoError(t, NewPromotionRetryHandler(p, nil).ProcessTask(context.Background(), task))
		p.AssertExpectations(t)
	})

	t.Run("busy head is retried", func(t *testing.T) {
		p := &mockPromoter{}
		p.On("Retry", "L1", int64(7)).Return(state.ErrStateLocked).Once()

		err := NewPromotionRetryHandler(p, nil).ProcessTask(context.Background(), task)
		assert.ErrorIs(t, err, state.ErrStateLocked)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("malformed payload is not retried", func(t *testing.T) {
		p := &mockPromoter{}
		bad := asynq.NewTask(jobs.TaskTypePromotionRetry, []byte("{"))

		err := NewPromotionRetryHandler(p, nil).ProcessTask(context.Background(), bad)
		assert.ErrorIs(t, err, asynq.SkipRetry)
		p.AssertNotCalled(t, "Retry", mock.Anything, mock.Anything)
	})
}

func TestSessionSweepHandler(t *testing.T) {
	task, err := jobs.NewSessionSweepTask()
	require.NoError(t, err)

	s := &mockSweeper{}
	s.On("Sweep").Return(3, nil).Once()
	require.NoError(t, NewSessionSweepHandler(s, nil).ProcessTask(context.Background(), task))

	s.On("Sweep").Return(0, errors.New("redis down")).Once()
	assert.Error(t, NewSessionSweepHandler(s, nil).ProcessTask(context.Background(), task))
	s.AssertExpectations(t)
}

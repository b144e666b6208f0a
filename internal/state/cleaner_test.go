package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaner_Sweep(t *testing.T) {
	client, _ := setupTestRedis(t)
	storage := newInMemoryStorage()
	fsm := NewStateMachine(storage, testLogger(), client, WithLockWait(0))
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, storage.SetState(ctx, 1, &UserContext{UserID: 1, State: StateBuyerStatus, Data: BuyerStatusData{ListingID: "A"}, UpdatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, storage.SetState(ctx, 2, &UserContext{UserID: 2, State: StateBuyerStatus, Data: BuyerStatusData{ListingID: "A"}, UpdatedAt: now.Add(-time.Minute)}))
	require.NoError(t, storage.SetState(ctx, 3, &UserContext{UserID: 3, State: StateFAQSetup, Data: FAQSetupData{ListingID: "B"}, UpdatedAt: now.Add(-3 * time.Hour)}))

	// user 3 is busy with an event
	_, release, err := fsm.Lock(ctx, 3)
	require.NoError(t, err)
	defer release()

	cleaner := NewCleaner(fsm, testLogger(), time.Hour)
	cleaner.now = func() time.Time { return now }

	cleared, err := cleaner.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	uc, err := fsm.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, uc.IsNone())

	uc, err = fsm.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, StateBuyerStatus, uc.State)

	uc, err = fsm.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, StateFAQSetup, uc.State)
}

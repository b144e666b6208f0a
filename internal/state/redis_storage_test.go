package state

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStorage_SetAndGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	storage := NewRedisStorage(client, testLogger(), 30*time.Minute)

	ctx := context.Background()
	uc := &UserContext{
		UserID: 123,
		State:  StateFAQSetup,
		Data:   FAQSetupData{ListingID: "L1", QuestionsAnswered: 2},
	}

	require.NoError(t, storage.SetState(ctx, uc.UserID, uc))
	assert.Equal(t, 30*time.Minute, mr.TTL("user:state:123"))

	result, err := storage.GetState(ctx, uc.UserID)
	require.NoError(t, err)
	assert.Equal(t, uc.UserID, result.UserID)
	assert.Equal(t, StateFAQSetup, result.State)
	assert.Equal(t, FAQSetupData{ListingID: "L1", QuestionsAnswered: 2}, result.Data)
	assert.False(t, result.UpdatedAt.IsZero())
}

func TestRedisStorage_GetNotFound(t *testing.T) {
	client, _ := setupTestRedis(t)
	storage := NewRedisStorage(client, testLogger(), 0)

	uc, err := storage.GetState(context.Background(), 999)
	assert.Nil(t, uc)
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestRedisStorage_ClearAndScan(t *testing.T) {
	client, _ := setupTestRedis(t)
	storage := NewRedisStorage(client, testLogger(), 0)
	ctx := context.Background()

	require.NoError(t, storage.SetState(ctx, 1, &UserContext{UserID: 1, State: StateBuyerStatus, Data: BuyerStatusData{ListingID: "A"}}))
	require.NoError(t, storage.SetState(ctx, 2, &UserContext{UserID: 2, State: StateAcceptPrice, Data: OfferData{ListingID: "B"}}))

	all, err := storage.GetAllStates(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, storage.ClearState(ctx, 1))
	_, err = storage.GetState(ctx, 1)
	assert.ErrorIs(t, err, ErrStateNotFound)

	all, err = storage.GetAllStates(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, OfferData{ListingID: "B"}, all[0].Data)
}

func TestUserContext_JSONEnvelope(t *testing.T) {
	uc := UserContext{UserID: 4, State: StateCategorize, Data: CategorizeData{ListingID: "L9", Title: "Bike"}}

	raw, err := json.Marshal(uc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":4,"state":"categorize","data":{"listing_id":"L9","title":"Bike"},"updated_at":"0001-01-01T00:00:00Z"}`, string(raw))

	var decoded UserContext
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, uc.Data, decoded.Data)

	var bad UserContext
	assert.Error(t, json.Unmarshal([]byte(`{"user_id":4,"state":"dancing"}`), &bad))
}

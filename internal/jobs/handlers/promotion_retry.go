package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/queue-bot/internal/jobs"
)

// Promoter re-runs a promotion that could not take the head's lock.
type Promoter interface {
	Retry(ctx context.Context, listingID string, userID int64) error
}

type PromotionRetryHandler struct {
	promoter Promoter
	log      *slog.Logger
}

func NewPromotionRetryHandler(promoter Promoter, log *slog.Logger) *PromotionRetryHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PromotionRetryHandler{promoter: promoter, log: log}
}

// ProcessTask returns the promoter error so asynq retries with backoff while the
// head is still busy. Malformed payloads are not retried.
func (h *PromotionRetryHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.PromotionRetryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "promotion retry: failed to decode payload", slog.String("task_type", t.Type()), slog.Any("error", err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.promoter.Retry(ctx, payload.ListingID, payload.UserID); err != nil {
		return fmt.Errorf("retry promotion of %d on %s: %w", payload.UserID, payload.ListingID, err)
	}

	h.log.InfoContext(ctx, "promotion retried",
		slog.String("listing_id", payload.ListingID),
		slog.Int64("user_id", payload.UserID),
	)
	return nil
}

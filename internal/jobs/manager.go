package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Manager describes the minimal queue operations needed by the application.
type Manager interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	EnqueuePromotionRetry(ctx context.Context, listingID string, userID int64) error
	Close() error
}

type manager struct {
	client *asynq.Client
	log    *slog.Logger
}

// NewManager builds a Manager backed by an asynq client.
func NewManager(redisOpt asynq.RedisConnOpt, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		client: asynq.NewClient(redisOpt),
		log:    log,
	}
}

func (m *manager) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return m.client.EnqueueContext(ctx, task, opts...)
}

// EnqueuePromotionRetry schedules another promotion attempt. A retry already queued for
// the same listing and user is reused.
func (m *manager) EnqueuePromotionRetry(ctx context.Context, listingID string, userID int64) error {
	task, err := NewPromotionRetryTask(listingID, userID)
	if err != nil {
		return err
	}

	info, err := m.client.EnqueueContext(ctx, task, asynq.ProcessIn(promotionRetryDelay))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		m.log.DebugContext(ctx, "promotion retry already queued", slog.String("listing_id", listingID), slog.Int64("user_id", userID))
		return nil
	}
	if err != nil {
		return err
	}

	m.log.InfoContext(ctx, "promotion retry queued",
		slog.String("listing_id", listingID),
		slog.Int64("user_id", userID),
		slog.String("task_id", info.ID),
	)
	return nil
}

func (m *manager) Close() error {
	return m.client.Close()
}

package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypePromotionRetry = "promotion:retry"
	TaskTypeSessionSweep   = "session:sweep"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// DefaultQueues weights the asynq queues.
var DefaultQueues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

const promotionRetryDelay = 2 * time.Second

type PromotionRetryPayload struct {
	ListingID string `json:"listing_id"`
	UserID    int64  `json:"user_id"`
}

type SessionSweepPayload struct{}

func NewPromotionRetryTask(listingID string, userID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(PromotionRetryPayload{ListingID: listingID, UserID: userID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypePromotionRetry, payload,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
		asynq.TaskID(fmt.Sprintf("promotion:%s:%d", listingID, userID)),
	), nil
}

func NewSessionSweepTask() (*asynq.Task, error) {
	payload, err := json.Marshal(SessionSweepPayload{})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeSessionSweep, payload, asynq.Queue(QueueLow), asynq.MaxRetry(1)), nil
}

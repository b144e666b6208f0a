package handlers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Sweeper clears stale conversation contexts.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type SessionSweepHandler struct {
	sweeper Sweeper
	log     *slog.Logger
}

func NewSessionSweepHandler(sweeper Sweeper, log *slog.Logger) *SessionSweepHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SessionSweepHandler{sweeper: sweeper, log: log}
}

func (h *SessionSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	removed, err := h.sweeper.Sweep(ctx)
	if err != nil {
		return err
	}

	h.log.InfoContext(ctx, "session sweep finished", slog.String("task_type", t.Type()), slog.Int("removed", removed))
	return nil
}

package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

const defaultSweepCron = "*/15 * * * *"

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	sweepCron      string
	log            *slog.Logger
}

// NewScheduler registers periodic tasks. An empty sweepCron uses every 15 minutes.
func NewScheduler(redisOpt asynq.RedisConnOpt, sweepCron string, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if sweepCron == "" {
		sweepCron = defaultSweepCron
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		sweepCron:      sweepCron,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	task, err := NewSessionSweepTask()
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(s.sweepCron, task); err != nil {
		return err
	}

	s.log.InfoContext(context.Background(), "scheduler: registered session sweep task", slog.String("cron", s.sweepCron))

	return nil
}

func (s *scheduler) Run() {
	s.log.InfoContext(context.Background(), "scheduler: starting")

	go func() {
		if err := s.asynqScheduler.Run(); err != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", slog.Any("error", err))
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")
	s.asynqScheduler.Shutdown()
}

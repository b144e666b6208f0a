package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
)

var ErrShuttingDown = errors.New("shutting down")

// Shutdown runs named hooks in stages. Hooks of one stage run concurrently, stages
// run in registration order, so the bot stops taking updates before Redis closes.
type Shutdown struct {
	mu      sync.Mutex
	stages  [][]Hook
	log     *slog.Logger
	started atomic.Bool
}

func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log}
}

// Register adds hooks that run together in a new stage.
func (s *Shutdown) Register(hooks ...Hook) {
	stage := make([]Hook, 0, len(hooks))
	for _, h := range hooks {
		if h.Fn != nil {
			stage = append(stage, h)
		}
	}
	if len(stage) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, stage)
}

// Started reports whether Execute has been called.
func (s *Shutdown) Started() bool {
	return s.started.Load()
}

// Execute runs every stage and joins the hook errors. It runs at most once.
func (s *Shutdown) Execute(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	stages := append([][]Hook(nil), s.stages...)
	s.mu.Unlock()

	start := time.Now()
	s.log.InfoContext(ctx, "shutdown sequence started", slog.Int("stage_count", len(stages)))

	var (
		errMu sync.Mutex
		errs  []error
	)
	for _, stage := range stages {
		var wg conc.WaitGroup
		for _, h := range stage {
			wg.Go(func() {
				s.log.InfoContext(ctx, "running shutdown hook", slog.String("hook", h.Name))
				if err := h.Fn(ctx); err != nil {
					s.log.ErrorContext(ctx, "shutdown hook failed", slog.String("hook", h.Name), slog.Any("error", err))
					errMu.Lock()
					errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
					errMu.Unlock()
					return
				}
				s.log.InfoContext(ctx, "shutdown hook completed", slog.String("hook", h.Name))
			})
		}
		wg.Wait()
	}

	s.log.InfoContext(ctx, "shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))

	return errors.Join(errs...)
}

package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var checksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ratelimit_checks_total",
		Help: "Rate limit evaluations by backend and result",
	},
	[]string{"backend", "result"},
)

// FallbackLimiter consults the primary limiter and switches to the in-memory one
// while the primary keeps failing. After cooldown the primary is tried again.
type FallbackLimiter struct {
	primary  Limiter
	fallback *MemoryLimiter
	cooldown time.Duration
	log      *slog.Logger
	now      func() time.Time

	mu            sync.Mutex
	degradedUntil time.Time
}

var _ Limiter = (*FallbackLimiter)(nil)

func NewFallbackLimiter(primary Limiter, fallback *MemoryLimiter, cooldown time.Duration, log *slog.Logger) *FallbackLimiter {
	if log == nil {
		log = slog.Default()
	}
	if fallback == nil {
		fallback = NewMemoryLimiter(log)
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	return &FallbackLimiter{
		primary:  primary,
		fallback: fallback,
		cooldown: cooldown,
		log:      log,
		now:      time.Now,
	}
}

func (f *FallbackLimiter) Check(ctx context.Context, key string, rule Rule) (*Result, error) {
	if f.primary != nil && !f.degraded() {
		res, err := f.primary.Check(ctx, key, rule)
		if err == nil {
			checksTotal.WithLabelValues("primary", resultLabel(res)).Inc()
			return res, nil
		}

		f.log.WarnContext(ctx, "primary rate limiter failed, using in-memory limiter",
			slog.String("key", key),
			slog.Duration("cooldown", f.cooldown),
			slog.Any("error", err),
		)
		f.mu.Lock()
		f.degradedUntil = f.now().Add(f.cooldown)
		f.mu.Unlock()
	}

	res, err := f.fallback.Check(ctx, key, rule)
	if err != nil {
		return nil, err
	}
	checksTotal.WithLabelValues("memory", resultLabel(res)).Inc()
	return res, nil
}

// Degraded reports whether checks are currently served by the in-memory limiter.
func (f *FallbackLimiter) Degraded() bool {
	return f.degraded()
}

func (f *FallbackLimiter) degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now().Before(f.degradedUntil)
}

func resultLabel(res *Result) string {
	if res.Allowed {
		return "allowed"
	}
	return "rejected"
}

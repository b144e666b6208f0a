package lifecycle

import (
	"context"
	"log/slog"
	"net/http"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// ReadinessSource is usually *health.Checker.
type ReadinessSource interface {
	Ready(ctx context.Context) error
}

// Probes reports the process as live until shutdown starts and ready while its
// dependencies are reachable.
type Probes struct {
	deps     ReadinessSource
	shutdown *Shutdown
	log      *slog.Logger
}

func NewProbes(deps ReadinessSource, shutdown *Shutdown, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{deps: deps, shutdown: shutdown, log: log}
}

func (p *Probes) Liveness(context.Context) error {
	if p.shutdown != nil && p.shutdown.Started() {
		return ErrShuttingDown
	}
	return nil
}

func (p *Probes) Readiness(ctx context.Context) error {
	if err := p.Liveness(ctx); err != nil {
		return err
	}
	if p.deps == nil {
		return nil
	}
	return p.deps.Ready(ctx)
}

// LiveHandler and ReadyHandler answer 200 or 503 with the probe error as body.
func (p *Probes) LiveHandler() http.Handler {
	return probeHandler(p.Liveness, p.log)
}

func (p *Probes) ReadyHandler() http.Handler {
	return probeHandler(p.Readiness, p.log)
}

func probeHandler(probe func(context.Context) error, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := probe(r.Context()); err != nil {
			log.DebugContext(r.Context(), "probe failed", slog.String("path", r.URL.Path), slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
}

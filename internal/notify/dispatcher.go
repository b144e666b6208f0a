// Package notify delivers outbound messages. Delivery is attempted once; failures
// are logged and counted but never returned to the caller.
package notify

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/Proton-105/queue-bot/pkg/metrics"
)

const defaultConcurrency = 16

// Dispatcher sends messages through a Platform.
type Dispatcher struct {
	platform    Platform
	log         *slog.Logger
	concurrency int
}

func NewDispatcher(platform Platform, log *slog.Logger, concurrency int) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Dispatcher{platform: platform, log: log, concurrency: concurrency}
}

// Send delivers msgs to one recipient in order. A failed message does not stop the rest.
func (d *Dispatcher) Send(ctx context.Context, recipient int64, msgs ...Message) {
	for _, msg := range msgs {
		err := d.deliver(ctx, recipient, msg)

		status := "sent"
		if err != nil {
			status = "failed"
			d.log.WarnContext(ctx, "message delivery failed",
				slog.Int64("recipient", recipient),
				slog.String("kind", string(msg.Kind)),
				slog.Any("error", err),
			)
		}
		metrics.RecordNotification(string(msg.Kind), status)
	}
}

// FanOut sends each recipient the messages built for it, in parallel across
// recipients, and returns once every delivery was attempted.
func (d *Dispatcher) FanOut(ctx context.Context, recipients []int64, build func(recipient int64) []Message) {
	if len(recipients) == 0 {
		return
	}

	p := pool.New().WithMaxGoroutines(d.concurrency)
	for _, recipient := range recipients {
		p.Go(func() {
			d.Send(ctx, recipient, build(recipient)...)
		})
	}
	p.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, recipient int64, msg Message) error {
	switch msg.Kind {
	case KindQuickReplies:
		return d.platform.SendQuickReplies(ctx, recipient, msg.Text, msg.Replies)
	case KindTemplate:
		return d.platform.SendTemplate(ctx, recipient, msg.Template)
	default:
		return d.platform.SendText(ctx, recipient, msg.Text)
	}
}

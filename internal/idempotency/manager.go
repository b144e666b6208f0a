// Package idempotency makes sure a Telegram update is handled at most once, even when
// Telegram redelivers it after a webhook timeout or a restart.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

var ErrRequestInProgress = errors.New("request with this key is already in progress")

type Operation func(ctx context.Context) (interface{}, error)

type Result struct {
	Response  json.RawMessage
	FromCache bool
}

type Manager interface {
	Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error)
}

type manager struct {
	store   Store
	log     *slog.Logger
	lockTTL time.Duration
	poll    time.Duration
}

func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store:   store,
		log:     log,
		lockTTL: 5 * time.Minute,
		poll:    100 * time.Millisecond,
	}
}

// Execute runs fn unless a completed record for key exists. A failed fn leaves no
// record behind, so the update may be retried.
func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	for {
		record, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if res, err := fromRecord(record); res != nil || err != nil {
			return res, err
		}

		locked, err := m.store.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return nil, err
		}
		if locked {
			// The previous holder may have completed between Get and Lock.
			record, err := m.store.Get(ctx, key)
			if err != nil {
				_ = m.store.ReleaseLock(context.WithoutCancel(ctx), key)
				return nil, err
			}
			if res, err := fromRecord(record); res != nil || err != nil {
				_ = m.store.ReleaseLock(context.WithoutCancel(ctx), key)
				return res, err
			}
			return m.run(ctx, key, ttl, fn)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.poll):
		}
	}
}

func fromRecord(record *Record) (*Result, error) {
	switch {
	case record == nil:
		return nil, nil
	case record.Status == StatusProcessing:
		return nil, ErrRequestInProgress
	case record.Status == StatusCompleted:
		return &Result{Response: record.Response, FromCache: true}, nil
	default:
		return nil, nil
	}
}

func (m *manager) run(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	defer func() {
		if err := m.store.ReleaseLock(context.WithoutCancel(ctx), key); err != nil {
			m.log.WarnContext(ctx, "failed to release idempotency lock", slog.String("key", key), slog.Any("error", err))
		}
	}()

	if err := m.store.Set(ctx, key, &Record{Status: StatusProcessing}, m.lockTTL); err != nil {
		return nil, err
	}

	result, err := fn(ctx)
	if err != nil {
		if delErr := m.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			m.log.WarnContext(ctx, "failed to drop idempotency record", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, err
	}

	response, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	if err := m.store.Set(ctx, key, &Record{Status: StatusCompleted, Response: response}, ttl); err != nil {
		return nil, err
	}

	return &Result{Response: response}, nil
}

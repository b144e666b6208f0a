package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	userLockKeyPattern = "user:lock:%d"
	defaultLockTTL     = 10 * time.Second
	lockPollInterval   = 25 * time.Millisecond
)

var (
	// ErrInvalidTransition indicates that a requested transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that a user context record does not exist.
	ErrStateNotFound = errors.New("user state not found")
	// ErrStateLocked indicates that another event of the same user is still being handled.
	ErrStateLocked = errors.New("state is locked, try again later")
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// StateMachine is the only entry point to conversation contexts.
type StateMachine interface {
	// Get returns the user's context, or the None context when nothing is stored.
	Get(ctx context.Context, userID int64) (*UserContext, error)
	// Set replaces the context if the transition table allows it.
	Set(ctx context.Context, userID int64, data Payload) error
	// Force replaces the context without consulting the transition table.
	Force(ctx context.Context, userID int64, data Payload) error
	// Clear resets the context to None.
	Clear(ctx context.Context, userID int64) error
	// GetAllStates returns every stored context.
	GetAllStates(ctx context.Context) ([]*UserContext, error)
	// Lock serializes work for one user. The returned context marks the lock as held,
	// so nested calls with it do not block. The release func is idempotent.
	Lock(ctx context.Context, userID int64) (context.Context, func(), error)
}

// Option tunes the state machine.
type Option func(*machine)

// WithLockTTL bounds how long a crashed holder can keep a user locked.
func WithLockTTL(d time.Duration) Option {
	return func(m *machine) {
		if d > 0 {
			m.lockTTL = d
		}
	}
}

// WithLockWait sets how long Lock waits for a busy user. Zero means a single attempt.
func WithLockWait(d time.Duration) Option {
	return func(m *machine) {
		if d >= 0 {
			m.lockWait = d
		}
	}
}

type lockCtxKey struct {
	userID int64
}

type machine struct {
	storage     Storage
	log         *slog.Logger
	redisClient *redis.Client
	lockTTL     time.Duration
	lockWait    time.Duration
	now         func() time.Time
}

// NewStateMachine creates the context manager using storage for data and redisClient for locking.
func NewStateMachine(storage Storage, log *slog.Logger, redisClient *redis.Client, opts ...Option) StateMachine {
	if log == nil {
		log = slog.Default()
	}

	m := &machine{
		storage:     storage,
		log:         log,
		redisClient: redisClient,
		lockTTL:     defaultLockTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *machine) Get(ctx context.Context, userID int64) (*UserContext, error) {
	uc, err := m.storage.GetState(ctx, userID)
	if errors.Is(err, ErrStateNotFound) || (err == nil && uc == nil) {
		return None(userID), nil
	}
	if err != nil {
		return nil, err
	}
	if uc.Data == nil {
		uc.Data = NoneData{}
	}
	return uc, nil
}

func (m *machine) GetAllStates(ctx context.Context) ([]*UserContext, error) {
	return m.storage.GetAllStates(ctx)
}

func (m *machine) Set(ctx context.Context, userID int64, data Payload) error {
	return m.write(ctx, userID, data, true)
}

func (m *machine) Force(ctx context.Context, userID int64, data Payload) error {
	return m.write(ctx, userID, data, false)
}

func (m *machine) Clear(ctx context.Context, userID int64) error {
	return m.write(ctx, userID, NoneData{}, false)
}

func (m *machine) write(ctx context.Context, userID int64, data Payload, guarded bool) error {
	if data == nil {
		data = NoneData{}
	}

	ctx, release, err := m.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	current, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}

	next := data.State()
	if guarded && !IsTransitionAllowed(current.State, next) {
		m.log.WarnContext(ctx, "invalid state transition", "user_id", userID, "from", current.State, "to", next)
		return ErrInvalidTransition
	}

	if next == StateNone {
		if current.IsNone() {
			return nil
		}
		if err := m.storage.ClearState(ctx, userID); err != nil {
			return err
		}
	} else {
		uc := &UserContext{UserID: userID, State: next, Data: data, UpdatedAt: m.now().UTC()}
		if err := m.storage.SetState(ctx, userID, uc); err != nil {
			return err
		}
	}

	transitionRecorder(string(current.State), string(next))
	return nil
}

func (m *machine) Lock(ctx context.Context, userID int64) (context.Context, func(), error) {
	if ctx.Value(lockCtxKey{userID}) != nil {
		return ctx, func() {}, nil
	}

	if m.redisClient == nil {
		m.log.WarnContext(ctx, "redis client not configured for state locks; skipping", "user_id", userID)
		return context.WithValue(ctx, lockCtxKey{userID}, "local"), func() {}, nil
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	token := uuid.NewString()
	deadline := m.now().Add(m.lockWait)

	for {
		acquired, err := m.redisClient.SetNX(ctx, key, token, m.lockTTL).Result()
		if err != nil {
			m.log.ErrorContext(ctx, "failed to acquire user state lock", "user_id", userID, "error", err)
			return ctx, nil, err
		}
		if acquired {
			break
		}

		if !m.now().Before(deadline) {
			m.log.WarnContext(ctx, "user state lock already held", "user_id", userID)
			return ctx, nil, ErrStateLocked
		}

		select {
		case <-ctx.Done():
			return ctx, nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}

	release := sync.OnceFunc(func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, m.redisClient, []string{key}, token).Err(); err != nil {
			m.log.ErrorContext(ctx, "failed to release user state lock", "user_id", userID, "error", err)
		}
	})

	return context.WithValue(ctx, lockCtxKey{userID}, token), release, nil
}

package conversation

import (
	"context"
	"sync"

	"github.com/Proton-105/queue-bot/internal/state"
)

// handlerFunc handles one event and decides what happens to the sender's context.
type handlerFunc func(ctx context.Context, t *turn) (next, error)

// Dispatcher routes free text to the handler of the sender's current state.
type Dispatcher struct {
	mu            sync.RWMutex
	stateHandlers map[state.State]handlerFunc
}

func newDispatcher() *Dispatcher {
	return &Dispatcher{stateHandlers: make(map[state.State]handlerFunc)}
}

// register registers a handler for the provided state.
func (d *Dispatcher) register(s state.State, h handlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateHandlers[s] = h
}

func (d *Dispatcher) handler(s state.State) handlerFunc {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateHandlers[s]
}

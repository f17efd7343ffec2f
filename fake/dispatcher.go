// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake worker.Dispatcher, recording every enqueued payload for
// assertions instead of forwarding it to a real Transport.

package fake

import (
	"sync"

	"github.com/RLBot/cpp-interface/schema"
)

// Dispatcher is a fake worker.Dispatcher/runtime.Spawner collaborator:
// it just records every payload passed to EnqueueMessage.
type Dispatcher struct {
	mu       sync.Mutex
	Messages []schema.Payload
}

// NewDispatcher constructs an empty fake Dispatcher.
func NewDispatcher() *Dispatcher { return &Dispatcher{} }

func (d *Dispatcher) EnqueueMessage(p schema.Payload) {
	d.mu.Lock()
	d.Messages = append(d.Messages, p)
	d.mu.Unlock()
}

// Len reports how many messages have been enqueued so far.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Messages)
}

// Snapshot returns a copy of the messages enqueued so far.
func (d *Dispatcher) Snapshot() []schema.Payload {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]schema.Payload, len(d.Messages))
	copy(out, d.Messages)
	return out
}

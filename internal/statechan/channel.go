// Package statechan provides the read/write handle to the shared board state.
// The board never talks to the agent directly; it reads the latest snapshot
// and writes whole replacement snapshots through a Channel.
package statechan

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kingrea/todoboard/internal/todo"
)

// Channel is the shared state handle. Write replaces the value; delivery to
// whoever observes it on the other side is not acknowledged.
type Channel interface {
	Read() todo.State
	Write(todo.State)
}

// Watchable channels also push every new snapshot to subscribers.
type Watchable interface {
	Channel
	Subscribe() *Subscription
}

// Logger records diagnostic lines. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Snapshot is a revisioned state as it travels between processes.
type Snapshot struct {
	Revision int64       `json:"revision"`
	Origin   string      `json:"origin,omitempty"`
	Todos    []todo.Item `json:"todos"`
}

// NewSnapshot pairs a state with its revision.
func NewSnapshot(revision int64, state todo.State) Snapshot {
	todos := state.Clone().Todos
	return Snapshot{Revision: revision, Todos: todos}
}

// State returns the snapshot's todo list as a State.
func (s Snapshot) State() todo.State {
	return todo.State{Todos: s.Todos}.Clone()
}

// DecodeSnapshot parses and validates a snapshot frame.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var meta struct {
		Revision int64  `json:"revision"`
		Origin   string `json:"origin"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return Snapshot{}, fmt.Errorf("statechan: decode snapshot: %w", err)
	}
	state, err := todo.Decode(data)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Revision: meta.Revision, Origin: meta.Origin, Todos: state.Todos}, nil
}

// Local is an in-process channel: last write wins, and every write is
// visible to the next Read immediately.
type Local struct {
	mu       sync.RWMutex
	state    todo.State
	revision int64
	subs     map[*Subscription]struct{}
}

// NewLocal seeds a channel with its initial value.
func NewLocal(initial todo.State) *Local {
	return &Local{
		state: initial.Clone(),
		subs:  map[*Subscription]struct{}{},
	}
}

// Read returns the current snapshot.
func (l *Local) Read() todo.State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Clone()
}

// Write replaces the snapshot and notifies subscribers.
func (l *Local) Write(state todo.State) {
	l.write(state, "")
}

// WriteFrom is Write with an origin tag carried to subscribers, so a
// replica can recognise its own echo.
func (l *Local) WriteFrom(state todo.State, origin string) {
	l.write(state, origin)
}

func (l *Local) write(state todo.State, origin string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state.Clone()
	l.revision++
	snap := NewSnapshot(l.revision, l.state)
	snap.Origin = origin
	for sub := range l.subs {
		sub.deliver(snap)
	}
}

// Revision counts the writes applied so far.
func (l *Local) Revision() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}

// Snapshot returns the current value with its revision.
func (l *Local) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return NewSnapshot(l.revision, l.state)
}

// Subscribe registers for future snapshots. Slow readers only ever see the
// newest pending snapshot.
func (l *Local) Subscribe() *Subscription {
	sub := &Subscription{ch: make(chan Snapshot, 1)}
	sub.cancel = func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[sub]; !ok {
			return
		}
		delete(l.subs, sub)
		close(sub.ch)
	}
	l.mu.Lock()
	l.subs[sub] = struct{}{}
	l.mu.Unlock()
	return sub
}

// Subscription receives snapshots until closed.
type Subscription struct {
	ch     chan Snapshot
	cancel func()
	once   sync.Once
}

// Updates is closed when the subscription ends.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.ch
}

// Close stops delivery.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// deliver is called with the owner's lock held, so it is the only sender.
func (s *Subscription) deliver(snap Snapshot) {
	select {
	case s.ch <- snap:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}

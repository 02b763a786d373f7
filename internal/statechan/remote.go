package statechan

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kingrea/todoboard/internal/todo"
)

const (
	defaultMinBackoff   = 250 * time.Millisecond
	defaultMaxBackoff   = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// RemoteOption customizes Remote construction.
type RemoteOption func(*Remote)

// WithRemoteLogger injects a logger for connection diagnostics.
func WithRemoteLogger(logger Logger) RemoteOption {
	return func(r *Remote) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBackoff overrides the reconnect delay bounds.
func WithBackoff(minDelay, maxDelay time.Duration) RemoteOption {
	return func(r *Remote) {
		if minDelay > 0 {
			r.minBackoff = minDelay
		}
		if maxDelay >= r.minBackoff {
			r.maxBackoff = maxDelay
		}
	}
}

// WithDialer swaps the websocket dialer (tests, proxies).
func WithDialer(d *websocket.Dialer) RemoteOption {
	return func(r *Remote) {
		if d != nil {
			r.dialer = d
		}
	}
}

// Remote is a replica of a state hosted by a bridge server. Reads and writes
// hit the local replica; writes are also sent upstream, and snapshots pushed
// by the bridge replace the replica.
type Remote struct {
	url        string
	origin     string
	dialer     *websocket.Dialer
	logger     Logger
	minBackoff time.Duration
	maxBackoff time.Duration

	replica  *Local
	outbound chan todo.State

	mu        sync.Mutex
	connected bool
	lastSent  todo.State
}

// NewRemote prepares a replica of the state served at url (ws:// or wss://,
// normally ending in /state/stream).
func NewRemote(url string, initial todo.State, opts ...RemoteOption) *Remote {
	r := &Remote{
		url:        url,
		origin:     uuid.NewString(),
		dialer:     websocket.DefaultDialer,
		logger:     nopLogger{},
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
		replica:    NewLocal(initial),
		outbound:   make(chan todo.State, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Read returns the replica's snapshot.
func (r *Remote) Read() todo.State {
	return r.replica.Read()
}

// Write updates the replica immediately and queues the snapshot for the
// bridge. Only the newest unsent snapshot is kept.
func (r *Remote) Write(state todo.State) {
	r.replica.WriteFrom(state, r.origin)
	select {
	case r.outbound <- state.Clone():
		return
	default:
	}
	select {
	case <-r.outbound:
	default:
	}
	select {
	case r.outbound <- state.Clone():
	default:
	}
}

// Subscribe follows the replica.
func (r *Remote) Subscribe() *Subscription {
	return r.replica.Subscribe()
}

// Connected reports whether a websocket session is currently open.
func (r *Remote) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// Run keeps a session open until ctx ends, reconnecting with capped
// exponential backoff.
func (r *Remote) Run(ctx context.Context) error {
	delay := r.minBackoff
	for {
		err := r.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			r.logger.Printf("statechan: remote %s: %v (retry in %s)", r.url, err, delay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > r.maxBackoff {
			delay = r.maxBackoff
		}
	}
}

func (r *Remote) setConnected(v bool) {
	r.mu.Lock()
	r.connected = v
	r.mu.Unlock()
}

func (r *Remote) session(ctx context.Context) error {
	conn, resp, err := r.dialer.DialContext(ctx, r.url, http.Header{})
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	r.setConnected(true)
	defer r.setConnected(false)
	r.logger.Printf("statechan: connected to %s", r.url)

	// A write queued while offline supersedes the bridge's greeting frame.
	pending := len(r.outbound) > 0
	readErr := make(chan error, 1)
	go func() {
		readErr <- r.readLoop(conn, pending)
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return nil
		case err := <-readErr:
			return err
		case state := <-r.outbound:
			frame := NewSnapshot(0, state)
			frame.Origin = r.origin
			r.setLastSent(state)
			_ = conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				r.requeue(state)
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}

func (r *Remote) requeue(state todo.State) {
	select {
	case r.outbound <- state:
	default:
	}
}

func (r *Remote) setLastSent(state todo.State) {
	r.mu.Lock()
	r.lastSent = state
	r.mu.Unlock()
}

// adoptEcho reports whether our own snapshot coming back from the bridge
// should be applied: only the echo of the newest sent write, with nothing
// queued behind it, and only when the replica has drifted from it.
func (r *Remote) adoptEcho(state todo.State) bool {
	if len(r.outbound) > 0 {
		return false
	}
	r.mu.Lock()
	latest := state.Equal(r.lastSent)
	r.mu.Unlock()
	return latest && !state.Equal(r.replica.Read())
}

func (r *Remote) readLoop(conn *websocket.Conn, skipGreeting bool) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		snap, err := DecodeSnapshot(data)
		if err != nil {
			r.logger.Printf("statechan: rejected snapshot from %s: %v", r.url, err)
			continue
		}
		if skipGreeting {
			skipGreeting = false
			continue
		}
		state := snap.State()
		if snap.Origin == r.origin && !r.adoptEcho(state) {
			continue
		}
		r.replica.WriteFrom(state, snap.Origin)
	}
}

package eventbridge

import (
	"strings"
	"sync"
)

const (
	defaultSubscriberCapacity = 100
	defaultBacklogLimit       = 50
	defaultDedupeWindow       = 1024
)

// RouterOption customizes Router construction.
type RouterOption func(*Router)

// Router fans accepted bridge events out to activity feeds. Every feed sees
// every event whatever agent or thread sent it. Events that arrive while
// nobody listens wait in one bounded backlog, handed to the next subscriber.
type Router struct {
	mu           sync.Mutex
	feeds        map[*feed]struct{}
	backlog      []Event
	seen         *idWindow
	capacity     int
	backlogLimit int
	logger       Logger
}

// Subscription is one activity feed.
type Subscription struct {
	Events <-chan Event
	cancel func()
}

// Close detaches the feed and closes Events.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// NewRouter constructs a router with default bounds.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		feeds:        map[*feed]struct{}{},
		capacity:     defaultSubscriberCapacity,
		backlogLimit: defaultBacklogLimit,
		logger:       nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.seen == nil {
		r.seen = newIDWindow(defaultDedupeWindow)
	}
	return r
}

// RouterWithLogger injects a logger for drop messages.
func RouterWithLogger(logger Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// RouterWithSubscriberCapacity sets the buffered size of each feed.
func RouterWithSubscriberCapacity(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// RouterWithBacklogLimit bounds the events kept while nobody is subscribed.
func RouterWithBacklogLimit(limit int) RouterOption {
	return func(r *Router) {
		if limit > 0 {
			r.backlogLimit = limit
		}
	}
}

// RouterWithDedupeWindow sets how many recent event ids are remembered.
func RouterWithDedupeWindow(size int) RouterOption {
	return func(r *Router) {
		if size > 0 {
			r.seen = newIDWindow(size)
		}
	}
}

// Subscribe opens a feed. The backlog, if any, is delivered to it first.
func (r *Router) Subscribe() Subscription {
	f := newFeed(r.capacity, r.logger)
	r.mu.Lock()
	pending := r.backlog
	r.backlog = nil
	for _, evt := range pending {
		f.push(evt)
	}
	r.feeds[f] = struct{}{}
	r.mu.Unlock()
	return Subscription{
		Events: f.ch,
		cancel: func() {
			r.mu.Lock()
			delete(r.feeds, f)
			r.mu.Unlock()
			f.close()
		},
	}
}

// HandleEvent satisfies EventProcessor.
func (r *Router) HandleEvent(event Event) error {
	r.Route(event)
	return nil
}

// Route delivers event to every feed, or to the backlog when there is none.
// Events whose id was seen recently are dropped.
func (r *Router) Route(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.EventID != "" && r.seen.observe(event.EventID) {
		return
	}
	if len(r.feeds) == 0 {
		if len(r.backlog) >= r.backlogLimit {
			r.logger.Printf("eventbridge: backlog full (%d), dropped %s", r.backlogLimit, r.backlog[0].Type)
			r.backlog = append(r.backlog[:0], r.backlog[1:]...)
		}
		r.backlog = append(r.backlog, event)
		return
	}
	for f := range r.feeds {
		f.push(event)
	}
}

// idWindow remembers the last len(ring) ids.
type idWindow struct {
	ids  map[string]struct{}
	ring []string
	next int
}

func newIDWindow(size int) *idWindow {
	return &idWindow{ids: make(map[string]struct{}, size), ring: make([]string, size)}
}

// observe records id and reports whether it was already present.
func (w *idWindow) observe(id string) bool {
	if _, ok := w.ids[id]; ok {
		return true
	}
	if old := w.ring[w.next]; old != "" {
		delete(w.ids, old)
	}
	w.ring[w.next] = id
	w.ids[id] = struct{}{}
	w.next = (w.next + 1) % len(w.ring)
	return false
}

type feed struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
	logger Logger
}

func newFeed(capacity int, logger Logger) *feed {
	return &feed{ch: make(chan Event, capacity), logger: logger}
}

// push enqueues evt. When the feed is full the lower-ranked of evt and the
// oldest queued event is dropped; on a tie the oldest goes.
func (f *feed) push(evt Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for {
		select {
		case f.ch <- evt:
			return
		default:
		}
		select {
		case oldest := <-f.ch:
			if rank(evt.Type) < rank(oldest.Type) {
				f.ch <- oldest
				f.logger.Printf("eventbridge: feed full, dropped incoming %s", evt.Type)
				return
			}
			f.logger.Printf("eventbridge: feed full, dropped %s", oldest.Type)
		default:
		}
	}
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.ch)
}

// rank orders events for overflow: run outcomes are kept longest, streamed
// chunks are the first to go.
func rank(kind string) int {
	switch strings.ToUpper(strings.TrimSpace(kind)) {
	case "RUN_FINISHED", "RUN_ERROR":
		return 2
	case "TEXT_MESSAGE_CONTENT", "TOOL_CALL_ARGS":
		return 0
	}
	return 1
}

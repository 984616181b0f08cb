// Package notify holds transient user notifications that dismiss themselves
// after a fixed delay.
package notify

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 3 * time.Second

// Kind distinguishes success and error notifications.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a single transient message.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// IsError reports whether the notification reports a failure.
func (n Notification) IsError() bool {
	return n.Kind == KindError
}

// Listener receives the active notifications after every push or dismissal.
type Listener func(active []Notification)

// Notifier keeps the active notifications and removes each one after the TTL.
type Notifier struct {
	mu        sync.Mutex
	ttl       time.Duration
	active    []Notification
	timers    map[string]*time.Timer
	listeners map[int]Listener
	nextID    int
	closed    bool
	logger    *slog.Logger
}

// New creates a Notifier. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration, logger *slog.Logger) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{
		ttl:       ttl,
		timers:    make(map[string]*time.Timer),
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Success shows a success notification.
func (n *Notifier) Success(message string) Notification {
	return n.push(message, KindSuccess)
}

// Error shows an error notification.
func (n *Notifier) Error(message string) Notification {
	return n.push(message, KindError)
}

func (n *Notifier) push(message string, kind Kind) Notification {
	note := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return note
	}
	n.active = append(n.active, note)
	n.timers[note.ID] = time.AfterFunc(n.ttl, func() { n.Dismiss(note.ID) })
	snapshot, listeners := n.snapshotLocked()
	n.mu.Unlock()

	level := slog.LevelInfo
	if kind == KindError {
		level = slog.LevelWarn
	}
	n.logger.Log(context.Background(), level, "notification shown",
		slog.String("kind", string(kind)),
		slog.String("message", message),
	)

	notifyAll(listeners, snapshot)
	return note
}

// Dismiss removes a notification before its TTL. It reports whether the
// notification was still active.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	idx := -1
	for i, note := range n.active {
		if note.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		n.mu.Unlock()
		return false
	}
	n.active = slices.Delete(n.active, idx, idx+1)
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	snapshot, listeners := n.snapshotLocked()
	n.mu.Unlock()

	notifyAll(listeners, snapshot)
	return true
}

// Active returns the notifications currently visible, oldest first.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.active))
	copy(out, n.active)
	return out
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn Listener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// Close stops all pending dismissal timers and drops active notifications.
// Pushes after Close are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.active = nil
	n.closed = true
}

func (n *Notifier) snapshotLocked() ([]Notification, []Listener) {
	snapshot := make([]Notification, len(n.active))
	copy(snapshot, n.active)
	listeners := make([]Listener, 0, len(n.listeners))
	for _, l := range n.listeners {
		listeners = append(listeners, l)
	}
	return snapshot, listeners
}

func notifyAll(listeners []Listener, snapshot []Notification) {
	for _, l := range listeners {
		l(snapshot)
	}
}

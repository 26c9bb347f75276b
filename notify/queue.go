// Package notify holds the ephemeral, user-visible activity entries. Each
// entry lives for a fixed time and is removed by manual dismissal or by its
// own expiry timer, whichever fires first.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Kind classifies a notification for presentation.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

// DefaultTTL is the fixed visible lifetime of an entry.
const DefaultTTL = 4 * time.Second

// Notification is one visible activity entry.
type Notification struct {
	ID        string
	Kind      Kind
	Title     string
	Message   string
	CreatedAt time.Time
}

// Queue is an ordered-by-arrival collection of notifications with per-entry
// auto-dismissal.
type Queue struct {
	ttl time.Duration

	mu      sync.Mutex
	entries []Notification
	timers  map[string]*time.Timer
	closed  bool
}

// NewQueue constructs a Queue. ttl <= 0 selects DefaultTTL.
func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{ttl: ttl, timers: map[string]*time.Timer{}}
}

// Push appends an entry and schedules its automatic dismissal, returning the
// entry's id so callers can dismiss it early.
func (q *Queue) Push(kind Kind, title, message string) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ""
	}

	id := uuid.NewString()
	q.entries = append(q.entries, Notification{
		ID:        id,
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	})
	q.timers[id] = time.AfterFunc(q.ttl, func() { q.Dismiss(id) })
	log.Debug().Str("kind", string(kind)).Str("title", title).Msg("notification pushed")
	return id
}

// Dismiss removes the entry by id and cancels its expiry timer. Dismissing
// an unknown or already-removed id is a no-op: the timer may fire after a
// manual dismissal already happened.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.timers[id]
	if !ok {
		return
	}
	t.Stop()
	delete(q.timers, id)
	for i, n := range q.entries {
		if n.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
}

// Active returns the visible entries in arrival order.
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.entries))
	copy(out, q.entries)
	return out
}

// Close cancels every pending timer and drops all entries. Further pushes
// are no-ops.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.entries = nil
}

// Package store holds the client's authoritative in-memory snapshots. Each
// store is wholesale-replaced by a refresh: the latest full server snapshot
// is trusted entirely, discarding the prior one, so no field-level merging
// can retain stale data. A failed refresh leaves the prior snapshot intact.
package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/inboxfw/inboxfw/internal/coalesce"
	"github.com/inboxfw/inboxfw/internal/types"
)

// InboxFetcher returns the latest full inbox snapshot from the backend.
type InboxFetcher func(ctx context.Context) ([]types.EmailRecord, error)

// Inbox holds the user's email records keyed by id, ordered as the server
// returned them.
type Inbox struct {
	runner *coalesce.Runner
	fetch  InboxFetcher

	mu     sync.RWMutex
	emails []types.EmailRecord
	byID   map[string]int // id -> index into emails
	closed bool
}

// NewInbox constructs an Inbox refreshed through fetch. Refreshes are
// coalesced: at most one fetch is in flight at a time.
func NewInbox(cfg coalesce.Config, fetch InboxFetcher) *Inbox {
	s := &Inbox{fetch: fetch, byID: map[string]int{}}
	s.runner = coalesce.NewRunner("inbox", cfg, s.refresh)
	return s
}

// Refresh replaces the snapshot with the latest server state and blocks
// until the (possibly shared) fetch completes. On failure the prior
// snapshot is untouched.
func (s *Inbox) Refresh(ctx context.Context) error {
	return s.runner.Trigger(ctx)
}

// RefreshAsync triggers a refresh without waiting. Push-event dispatch uses
// this; a failure retains the prior snapshot and is not surfaced.
func (s *Inbox) RefreshAsync() {
	s.runner.TriggerAsync()
}

// Snapshot returns a copy of the current email records in server order.
func (s *Inbox) Snapshot() []types.EmailRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.EmailRecord, len(s.emails))
	copy(out, s.emails)
	return out
}

// Get returns the record for id, if present.
func (s *Inbox) Get(id string) (types.EmailRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return types.EmailRecord{}, false
	}
	return s.emails[i], true
}

// Len returns the number of records in the snapshot.
func (s *Inbox) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.emails)
}

// Close tears the store down: in-flight fetches are cancelled and any later
// refresh or snapshot application becomes a no-op.
func (s *Inbox) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.runner.Close()
}

func (s *Inbox) refresh(ctx context.Context) error {
	emails, err := s.fetch(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("inbox refresh failed, keeping prior snapshot")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.emails = emails
	s.byID = make(map[string]int, len(emails))
	for i, e := range emails {
		s.byID[e.ID] = i
	}
	log.Debug().Int("count", len(emails)).Msg("inbox snapshot replaced")
	return nil
}

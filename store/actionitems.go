package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/inboxfw/inboxfw/internal/coalesce"
	"github.com/inboxfw/inboxfw/internal/types"
)

// ActionItemFetcher returns the latest aggregate action-item view.
type ActionItemFetcher func(ctx context.Context) ([]types.ActionItemView, error)

// ActionItems holds the denormalized view of every action item across every
// email. It refreshes independently of the Inbox store; the two may
// transiently disagree between refreshes, which self-heals on the next one.
type ActionItems struct {
	runner *coalesce.Runner
	fetch  ActionItemFetcher

	mu     sync.RWMutex
	items  []types.ActionItemView
	closed bool
}

// NewActionItems constructs the aggregate store refreshed through fetch.
func NewActionItems(cfg coalesce.Config, fetch ActionItemFetcher) *ActionItems {
	s := &ActionItems{fetch: fetch}
	s.runner = coalesce.NewRunner("action_items", cfg, s.refresh)
	return s
}

// Refresh replaces the snapshot with the latest server state. Concurrent
// callers coalesce onto a single in-flight fetch.
func (s *ActionItems) Refresh(ctx context.Context) error {
	return s.runner.Trigger(ctx)
}

// RefreshAsync triggers a refresh without waiting for the result.
func (s *ActionItems) RefreshAsync() {
	s.runner.TriggerAsync()
}

// Snapshot returns a copy of the aggregate view in server order.
func (s *ActionItems) Snapshot() []types.ActionItemView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ActionItemView, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the item identified by (emailID, index), if present.
func (s *ActionItems) Get(emailID string, index int) (types.ActionItemView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.EmailID == emailID && it.Index == index {
			return it, true
		}
	}
	return types.ActionItemView{}, false
}

// Close tears the store down; later refreshes become no-ops.
func (s *ActionItems) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.runner.Close()
}

func (s *ActionItems) refresh(ctx context.Context) error {
	items, err := s.fetch(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("action item refresh failed, keeping prior snapshot")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.items = items
	log.Debug().Int("count", len(items)).Msg("action item snapshot replaced")
	return nil
}

package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inboxfw/inboxfw/internal/coalesce"
	"github.com/inboxfw/inboxfw/internal/types"
)

func emails(ids ...string) []types.EmailRecord {
	out := make([]types.EmailRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.EmailRecord{ID: id, Subject: "s-" + id})
	}
	return out
}

func TestInbox_RefreshReplacesWholesale(t *testing.T) {
	t.Parallel()

	snapshots := [][]types.EmailRecord{emails("a", "b"), emails("b", "c", "d")}
	var n int32
	s := NewInbox(coalesce.Config{}, func(ctx context.Context) ([]types.EmailRecord, error) {
		i := atomic.AddInt32(&n, 1) - 1
		return snapshots[i], nil
	})
	defer s.Close()

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", s.Len())
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	got := s.Snapshot()
	if !reflect.DeepEqual(got, snapshots[1]) {
		t.Fatalf("snapshot not replaced wholesale: %+v", got)
	}
	if _, ok := s.Get("a"); ok {
		t.Fatal("record a should have been discarded by the replace")
	}
	if _, ok := s.Get("d"); !ok {
		t.Fatal("record d should be present after the replace")
	}
}

func TestInbox_FailedRefreshKeepsPriorSnapshot(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	s := NewInbox(coalesce.Config{}, func(ctx context.Context) ([]types.EmailRecord, error) {
		if fail.Load() {
			return nil, errors.New("transient blip")
		}
		return emails("a", "b"), nil
	})
	defer s.Close()

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("seed refresh: %v", err)
	}
	before := s.Snapshot()

	fail.Store(true)
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Fatal("failed refresh must not mutate store content")
	}
}

func TestInbox_BurstTriggersCoalesce(t *testing.T) {
	t.Parallel()

	var inFlight, maxInFlight, calls int32
	s := NewInbox(coalesce.Config{}, func(ctx context.Context) ([]types.EmailRecord, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxInFlight)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, cur) {
				break
			}
		}
		atomic.AddInt32(&calls, 1)
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return emails("a"), nil
	})
	defer s.Close()

	// Three triggers within a burst window, like three push events in 50ms.
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		go func() {
			defer wg.Done()
			_ = s.Refresh(context.Background())
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&maxInFlight); got != 1 {
		t.Fatalf("expected at most one request in flight, saw %d", got)
	}
	if got := atomic.LoadInt32(&calls); got < 1 || got > 2 {
		t.Fatalf("expected the burst to coalesce into 1 (or a trailing 2nd) fetch, got %d", got)
	}
	if s.Len() != 1 {
		t.Fatalf("store should hold the completed response, len=%d", s.Len())
	}
}

func TestInbox_ClosedRefreshIsNoOp(t *testing.T) {
	t.Parallel()

	s := NewInbox(coalesce.Config{}, func(ctx context.Context) ([]types.EmailRecord, error) {
		return emails("a"), nil
	})
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	s.Close()

	if err := s.Refresh(context.Background()); !errors.Is(err, coalesce.ErrClosed) {
		t.Fatalf("expected ErrClosed after teardown, got %v", err)
	}
	// The last snapshot remains readable for consumers mid-teardown.
	if s.Len() != 1 {
		t.Fatalf("unexpected snapshot after close: len=%d", s.Len())
	}
}

func TestActionItems_RefreshAndGet(t *testing.T) {
	t.Parallel()

	view := []types.ActionItemView{
		{EmailID: "e1", Index: 0, Text: "reply", EmailSubject: "hi", SenderUsername: "bob"},
		{EmailID: "e1", Index: 1, Text: "book room", Done: true},
	}
	s := NewActionItems(coalesce.Config{}, func(ctx context.Context) ([]types.ActionItemView, error) {
		return view, nil
	})
	defer s.Close()

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	it, ok := s.Get("e1", 1)
	if !ok || !it.Done {
		t.Fatalf("expected (e1,1) done=true, got %+v ok=%v", it, ok)
	}
	if _, ok := s.Get("e2", 0); ok {
		t.Fatal("unexpected hit for absent item")
	}
}

func TestActionItems_FailedRefreshKeepsPriorSnapshot(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	s := NewActionItems(coalesce.Config{}, func(ctx context.Context) ([]types.ActionItemView, error) {
		if fail.Load() {
			return nil, errors.New("transient blip")
		}
		return []types.ActionItemView{{EmailID: "e1", Index: 0, Text: "reply"}}, nil
	})
	defer s.Close()

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("seed refresh: %v", err)
	}
	before := s.Snapshot()

	fail.Store(true)
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Fatal("failed refresh must not mutate store content")
	}
}

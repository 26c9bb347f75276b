package coalesce

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRunner_SingleFlightUnderBurst(t *testing.T) {
	t.Parallel()

	var calls int32
	release := make(chan struct{})
	started := make(chan struct{}, 8)

	r := NewRunner("inbox", Config{}, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		return nil
	})
	defer r.Close()

	const waiters = 3
	var wg sync.WaitGroup
	errs := make([]error, waiters)
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Trigger(context.Background())
		}(i)
	}

	// Wait until the single flight is actually running, then let the
	// remaining waiters attach before releasing it.
	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly one fetch in flight, got %d", got)
	}
	for i, err := range errs {
		if err != nil {
			t.Fatalf("waiter %d error: %v", i, err)
		}
	}
}

func TestRunner_ErrorReachesAllWaiters(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	release := make(chan struct{})
	started := make(chan struct{})

	r := NewRunner("inbox", Config{}, func(ctx context.Context) error {
		close(started)
		<-release
		return boom
	})
	defer r.Close()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Trigger(context.Background())
		}(i)
	}
	<-started
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, boom) {
			t.Fatalf("waiter %d: expected boom, got %v", i, err)
		}
	}
}

func TestRunner_SequentialTriggersFetchSeparately(t *testing.T) {
	t.Parallel()

	var calls int32
	r := NewRunner("inbox", Config{}, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	defer r.Close()

	for i := 0; i < 3; i++ {
		if err := r.Trigger(context.Background()); err != nil {
			t.Fatalf("trigger %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 sequential fetches, got %d", got)
	}
}

func TestRunner_ClosedRejectsTriggers(t *testing.T) {
	t.Parallel()

	r := NewRunner("inbox", Config{}, func(ctx context.Context) error { return nil })
	r.Close()
	r.Close() // idempotent

	if err := r.Trigger(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestRunner_CloseCancelsInFlightFetch(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	r := NewRunner("inbox", Config{}, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	go func() { _ = r.Trigger(context.Background()) }()
	<-started
	r.Close() // must not hang: lifecycle cancellation unblocks the fetch
}

func TestRunner_InFlightGaugeSurvivesSuccessorFlight(t *testing.T) {
	t.Parallel()

	// Unique resource label: the gauge is shared across runners by name.
	const name = "gauge_inbox"
	gauge := inFlight.WithLabelValues(name)

	release := make(chan struct{}, 1)
	started := make(chan struct{}, 2)
	r := NewRunner(name, Config{}, func(ctx context.Context) error {
		started <- struct{}{}
		<-release
		return nil
	})
	defer r.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- r.Trigger(context.Background()) }()
	<-started
	if got := testutil.ToFloat64(gauge); got != 1 {
		t.Fatalf("expected gauge 1 during flight, got %v", got)
	}

	// A finished flight must drop the gauge before its successor can raise
	// it, so back-to-back flights never report 0 while one is running.
	release <- struct{}{}
	if err := <-errCh; err != nil {
		t.Fatalf("first flight: %v", err)
	}
	go func() { errCh <- r.Trigger(context.Background()) }()
	<-started
	if got := testutil.ToFloat64(gauge); got != 1 {
		t.Fatalf("expected gauge 1 during successor flight, got %v", got)
	}

	release <- struct{}{}
	if err := <-errCh; err != nil {
		t.Fatalf("second flight: %v", err)
	}
	if got := testutil.ToFloat64(gauge); got != 0 {
		t.Fatalf("expected gauge 0 after flights drained, got %v", got)
	}
}

func TestRunner_CallerCancelDoesNotAbortFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	var completed int32

	r := NewRunner("inbox", Config{}, func(ctx context.Context) error {
		close(started)
		<-release
		atomic.StoreInt32(&completed, 1)
		return nil
	})
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Trigger(ctx) }()
	<-started
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// The flight keeps running for other (potential) waiters.
	close(release)
	if err := r.Trigger(context.Background()); err != nil {
		t.Fatalf("follow-up trigger: %v", err)
	}
	if atomic.LoadInt32(&completed) != 1 {
		t.Fatal("flight should have completed despite caller cancellation")
	}
}

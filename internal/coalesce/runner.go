// Package coalesce provides a per-resource refresh runner that collapses
// concurrent trigger bursts into a single in-flight fetch.
//
// **Contract**: at most one fetch is ever in flight per Runner. Callers
// arriving while a fetch is running attach to that flight's result instead
// of issuing a duplicate. Because only one request is in flight at a time,
// a stale response can never overwrite the result of a later-issued one.
package coalesce

import (
	"context"
	"sync"
	"time"
)

// flight is one in-flight fetch plus the waiters attached to it.
type flight struct {
	done chan struct{} // closed after err is set
	err  error
}

// Runner serializes refreshes of one resource. The fetch function is
// invoked on the runner's own lifecycle context so a single caller's
// cancellation cannot abort a flight other callers are attached to.
type Runner struct {
	name string
	fn   func(ctx context.Context) error
	cfg  Config

	mu     sync.Mutex
	cur    *flight
	closed bool

	lifecycle context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewRunner constructs a Runner for the named resource.
func NewRunner(name string, cfg Config, fn func(ctx context.Context) error) *Runner {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		name:      name,
		fn:        fn,
		cfg:       cfg,
		lifecycle: ctx,
		cancel:    cancel,
	}
}

// Trigger requests a refresh and waits for a result.
//
//   - If no fetch is in flight, one is started and its outcome returned.
//   - If a fetch is already in flight, the caller attaches to it and
//     receives that flight's outcome.
//   - Returns ErrClosed if the runner has been closed.
//   - Returns ctx.Err() if the caller's context is cancelled while waiting;
//     the flight itself keeps running for the other waiters.
func (r *Runner) Trigger(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}

	f := r.cur
	if f != nil {
		refreshesCoalescedTotal.WithLabelValues(r.name).Inc()
	} else {
		f = &flight{done: make(chan struct{})}
		r.cur = f
		refreshesStartedTotal.WithLabelValues(r.name).Inc()
		inFlight.WithLabelValues(r.name).Set(1)
		r.wg.Add(1)
		go r.run(f)
	}
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.done:
		return f.err
	}
}

// TriggerAsync requests a refresh without waiting for its result. Push-event
// handlers use this; errors are observed via metrics and the runner's own
// logging, never surfaced to the event loop.
func (r *Runner) TriggerAsync() {
	go func() { _ = r.Trigger(context.Background()) }()
}

// Close stops the runner: the lifecycle context is cancelled so an in-flight
// fetch unblocks promptly, and any later Trigger returns ErrClosed. Safe to
// call multiple times.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

// ------------------------- internals -------------------------

func (r *Runner) run(f *flight) {
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(r.lifecycle, r.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	err := r.fn(ctx)
	refreshDuration.WithLabelValues(r.name).Observe(time.Since(start).Seconds())

	// The gauge must drop inside the same critical section that clears the
	// flight, or a successor flight's Set(1) could be overwritten.
	r.mu.Lock()
	r.cur = nil
	inFlight.WithLabelValues(r.name).Set(0)
	r.mu.Unlock()

	if err != nil {
		refreshesFailedTotal.WithLabelValues(r.name).Inc()
	}

	f.err = err
	close(f.done)
}

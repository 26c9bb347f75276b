// Package stream maintains the one push-notification subscription per
// credential and maps incoming event tags to store refresh triggers.
//
// Lifecycle: Disconnected → Connecting → Open → {Reconnecting ⇄ Open} →
// Closed. A transport error never terminates the client; only Close (logout
// or teardown) moves it to Closed.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/inboxfw/inboxfw/internal/apierr"
	"github.com/inboxfw/inboxfw/internal/types"
)

// State is the subscription's lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Open
	Reconnecting
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Reconnecting:
		return "reconnecting"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Hooks are the client's reactions to stream activity. All of them must be
// non-blocking; refresh hooks fire coalesced async triggers.
type Hooks struct {
	// OnOpen runs every time the subscription (re)enters Open, covering any
	// activity missed while disconnected. Events are advisory-only and carry
	// no replay offsets, so this is a full refresh of both stores.
	OnOpen func()

	// RefreshInbox triggers an inbox refresh.
	RefreshInbox func()

	// RefreshActionItems triggers an aggregate action-item refresh.
	RefreshActionItems func()

	// OnNewEmail synthesizes a user-visible notification from the advisory
	// payload of an email.new event. The authoritative record arrives via
	// the refresh that fires alongside.
	OnNewEmail func(p types.NewEmailPayload)
}

// Config tunes the reconnect policy.
type Config struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client owns one subscription scoped to a single credential. Create a new
// Client per session; a credential change means teardown plus a new Client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	hooks   Hooks
	cfg     Config

	state atomic.Int32
	wg    sync.WaitGroup

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

// New constructs a stream client for the given credential. httpClient must
// not carry a global timeout: the subscription is long-lived by design.
func New(baseURL, token string, httpClient *http.Client, cfg Config, hooks Hooks) *Client {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    httpClient,
		hooks:   hooks,
		cfg:     cfg,
	}
}

// Start launches the subscription loop. It returns immediately; state moves
// through Connecting and, on success, Open. Starting an already-closed or
// already-started client is a no-op: teardown can race the deferred Start of
// a freshly built session, and a loop launched after Close would be
// unstoppable.
func (c *Client) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go c.run(ctx)
}

// State reports the current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Close tears the subscription down and waits for the loop to exit. This is
// the only path to the Closed state. Safe to call multiple times, and before
// Start, which then never launches.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.setState(Closed)
}

// ------------------------- internals -------------------------

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Client) run(ctx context.Context) {
	defer c.wg.Done()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialBackoff
	bo.Multiplier = 2
	bo.MaxInterval = c.cfg.MaxBackoff
	bo.MaxElapsedTime = 0 // retry until teardown
	bo.Reset()

	for {
		c.setState(Connecting)
		err := c.consume(ctx, bo)
		if ctx.Err() != nil {
			c.setState(Closed)
			return
		}

		// Transport drops are recoverable by definition; never surfaced.
		c.setState(Reconnecting)
		reconnectsTotal.Inc()
		wait := bo.NextBackOff()
		log.Warn().Err(&apierr.StreamError{Underlying: err}).Dur("retry_in", wait).Msg("push stream dropped, reconnecting")

		select {
		case <-ctx.Done():
			c.setState(Closed)
			return
		case <-time.After(wait):
		}
	}
}

// consume opens one subscription and dispatches its events until the
// transport fails or the context is cancelled.
func (c *Client) consume(ctx context.Context, bo *backoff.ExponentialBackOff) error {
	u := fmt.Sprintf("%s/events/stream/?token=%s", c.baseURL, url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("subscribe: status %d", resp.StatusCode)
	}

	c.setState(Open)
	bo.Reset()
	log.Debug().Msg("push stream open")
	if c.hooks.OnOpen != nil {
		c.hooks.OnOpen()
	}

	return readEvents(resp.Body, c.dispatch)
}

// dispatch maps one event tag to its refresh triggers. This is the single
// point every push notification flows through, so coalescing policy holds
// regardless of burst size. Unrecognized tags are ignored without error.
func (c *Client) dispatch(ev types.StreamEvent) {
	eventsTotal.WithLabelValues(tagLabel(ev.Type)).Inc()

	switch ev.Type {
	case "email.new":
		c.refreshInbox()
		if c.hooks.OnNewEmail != nil {
			var p types.NewEmailPayload
			_ = json.Unmarshal(ev.Data, &p) // advisory only, best-effort
			c.hooks.OnNewEmail(p)
		}

	case "email.action_items":
		c.refreshInbox()
		if c.hooks.RefreshActionItems != nil {
			c.hooks.RefreshActionItems()
		}

	case "email.spam_classified", "email.priority_assigned", "email.summary",
		"email.tone_analyzed", "email.url_scanned":
		c.refreshInbox()

	case "":
		// untagged default message: generic refresh trigger
		c.refreshInbox()

	case "connected":
		// subscription handshake, nothing to do

	default:
		log.Debug().Str("tag", ev.Type).Msg("ignoring unrecognized stream event")
	}
}

func (c *Client) refreshInbox() {
	if c.hooks.RefreshInbox != nil {
		c.hooks.RefreshInbox()
	}
}

// tagLabel keeps metric cardinality bounded to the recognized tag set.
func tagLabel(tag string) string {
	switch tag {
	case "email.new", "email.spam_classified", "email.priority_assigned",
		"email.summary", "email.action_items", "email.tone_analyzed",
		"email.url_scanned", "connected":
		return tag
	case "":
		return "untagged"
	default:
		return "unrecognized"
	}
}

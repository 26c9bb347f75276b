// Package inboxfw is the client-side synchronization engine for an
// AI-enriched mailbox backend. It keeps two in-memory snapshots (the inbox
// and the aggregate action-item view) consistent with the backend by
// reconciling push-stream events into coalesced full refreshes, and holds a
// bounded queue of ephemeral user-visible notifications.
package inboxfw

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inboxfw/inboxfw/internal/api"
	"github.com/inboxfw/inboxfw/internal/apierr"
	"github.com/inboxfw/inboxfw/internal/coalesce"
	"github.com/inboxfw/inboxfw/internal/credential"
	"github.com/inboxfw/inboxfw/internal/types"
	"github.com/inboxfw/inboxfw/notify"
	"github.com/inboxfw/inboxfw/store"
	"github.com/inboxfw/inboxfw/stream"
)

// ErrLoggedOut is returned by operations that require a session.
var ErrLoggedOut = errors.New("not logged in")

// session is the per-credential wiring: stores, subscription, token. It is
// created whole on login (or resume) and torn down whole on logout, so no
// component ever observes a half-switched credential.
type session struct {
	token   string
	inbox   *store.Inbox
	actions *store.ActionItems
	stream  *stream.Client
}

// Client is the synchronization engine. Construct with New; a persisted
// credential from an earlier run resumes the session automatically.
type Client struct {
	baseURL    string
	http       *http.Client // request/response endpoints
	streamHTTP *http.Client // long-lived subscription: no global timeout
	creds      *credential.Store
	notes      *notify.Queue

	coalesceCfg coalesce.Config
	streamCfg   stream.Config
	notifyTTL   time.Duration

	mu   sync.Mutex
	sess *session

	closedOnce uint32 // ensures Close is idempotent
}

// New constructs a Client against baseURL and resumes a persisted session
// if one exists. Additional options can be provided via functional
// arguments.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		panic("baseURL cannot be empty")
	}

	c := &Client{
		baseURL:    baseURL,
		http:       &http.Client{Timeout: 30 * time.Second},
		streamHTTP: &http.Client{},
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}

	if c.creds == nil {
		c.creds = credential.Open("")
	}
	if c.coalesceCfg == (coalesce.Config{}) {
		if cfg, err := coalesce.LoadConfig(); err == nil {
			c.coalesceCfg = cfg
		}
	}
	c.notes = notify.NewQueue(c.notifyTTL)

	// Wrap HTTP transport to add the bearer credential of the live session.
	c.wrapTransportWithBearer()

	c.resume()
	return c
}

// wrapTransportWithBearer wraps the HTTP client's transport to add the
// Authorization header from the current session, if any.
func (c *Client) wrapTransportWithBearer() {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.Transport = &bearerTransport{base: base, token: c.currentToken}
}

// bearerTransport wraps an http.RoundTripper to add the Authorization
// header when a credential exists.
type bearerTransport struct {
	base  http.RoundTripper
	token func() string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok := t.token()
	if tok == "" {
		return t.base.RoundTrip(req)
	}
	// Clone the request to avoid modifying the original.
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+tok)
	return t.base.RoundTrip(cloned)
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ""
	}
	return c.sess.token
}

// resume restores the session from the persisted credential, if present.
// Absence is the ordinary logged-out state, not an error.
func (c *Client) resume() {
	tok, err := c.creds.Token()
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			log.Warn().Err(err).Msg("could not read persisted credential")
		}
		return
	}
	c.startSession(tok)
	sessionsTotal.WithLabelValues("resume").Inc()
	log.Debug().Msg("session resumed from persisted credential")
}

// --------------------------------------------------------------------
// Session lifecycle
// --------------------------------------------------------------------

// Register creates an account and, on success, chains into Login.
func (c *Client) Register(ctx context.Context, username, password string) error {
	err := api.Register(ctx, c.http, c.baseURL, types.RegisterRequest{Username: username, Password: password})
	if err != nil {
		c.notes.Push(notify.Error, "Registration failed", authMessage(err))
		return err
	}
	return c.Login(ctx, username, password)
}

// Login exchanges the credentials for a bearer token, persists it, and
// starts the session: both stores fetch their initial snapshots and the
// push subscription opens.
func (c *Client) Login(ctx context.Context, username, password string) error {
	cred, err := api.Token(ctx, c.http, c.baseURL, types.TokenRequest{Username: username, Password: password})
	if err != nil {
		c.notes.Push(notify.Error, "Login failed", authMessage(err))
		return err
	}

	if err := c.creds.SetToken(cred.Token); err != nil {
		// The session still works for this process; it just won't survive a
		// restart.
		log.Warn().Err(err).Msg("could not persist credential")
	}

	c.startSession(cred.Token)
	sessionsTotal.WithLabelValues("login").Inc()
	c.notes.Push(notify.Success, "Logged in", username)
	return nil
}

// Logout erases the persisted credential, closes the push subscription, and
// tears down both stores. Pending refreshes become no-ops.
func (c *Client) Logout() error {
	err := c.creds.Clear()
	c.stopSession()
	sessionsTotal.WithLabelValues("logout").Inc()
	c.notes.Push(notify.Info, "Logged out", "")
	return err
}

// Authenticated reports whether a session is live.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

// StreamState reports the push subscription's lifecycle state, or
// Disconnected when logged out.
func (c *Client) StreamState() stream.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return stream.Disconnected
	}
	return c.sess.stream.State()
}

func (c *Client) startSession(token string) {
	c.mu.Lock()
	old := c.sess

	inbox := store.NewInbox(c.coalesceCfg, func(ctx context.Context) ([]types.EmailRecord, error) {
		return api.ListEmails(ctx, c.http, c.baseURL)
	})
	actions := store.NewActionItems(c.coalesceCfg, func(ctx context.Context) ([]types.ActionItemView, error) {
		return api.ListActionItems(ctx, c.http, c.baseURL)
	})

	s := &session{token: token, inbox: inbox, actions: actions}
	s.stream = stream.New(c.baseURL, token, c.streamHTTP, c.streamCfg, stream.Hooks{
		OnOpen: func() {
			inbox.RefreshAsync()
			actions.RefreshAsync()
		},
		RefreshInbox:       inbox.RefreshAsync,
		RefreshActionItems: actions.RefreshAsync,
		OnNewEmail: func(p types.NewEmailPayload) {
			c.notes.Push(notify.Info, "New email", newEmailMessage(p))
		},
	})
	c.sess = s
	c.mu.Unlock()

	if old != nil {
		teardown(old)
	}
	s.stream.Start()
}

func (c *Client) stopSession() {
	c.mu.Lock()
	old := c.sess
	c.sess = nil
	c.mu.Unlock()

	if old != nil {
		teardown(old)
	}
}

func teardown(s *session) {
	s.stream.Close()
	s.inbox.Close()
	s.actions.Close()
}

func (c *Client) session() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// Close tears down the session wiring without erasing the persisted
// credential, so the next start resumes authenticated. Safe to call
// multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	c.stopSession()
	c.notes.Close()
	return nil
}

// --------------------------------------------------------------------
// Store access
// --------------------------------------------------------------------

// Inbox returns the current email snapshot in server order; empty when
// logged out.
func (c *Client) Inbox() []types.EmailRecord {
	s := c.session()
	if s == nil {
		return nil
	}
	return s.inbox.Snapshot()
}

// Email returns one record by id from the inbox snapshot.
func (c *Client) Email(id string) (types.EmailRecord, bool) {
	s := c.session()
	if s == nil {
		return types.EmailRecord{}, false
	}
	return s.inbox.Get(id)
}

// ActionItems returns the aggregate action-item snapshot; empty when logged
// out.
func (c *Client) ActionItems() []types.ActionItemView {
	s := c.session()
	if s == nil {
		return nil
	}
	return s.actions.Snapshot()
}

// Refresh forces a full re-sync of both stores and waits for completion.
// Concurrent callers coalesce onto the same in-flight fetches.
func (c *Client) Refresh(ctx context.Context) error {
	s := c.session()
	if s == nil {
		return ErrLoggedOut
	}
	if err := s.inbox.Refresh(ctx); err != nil {
		return err
	}
	return s.actions.Refresh(ctx)
}

// Notifications returns the visible activity entries in arrival order.
func (c *Client) Notifications() []notify.Notification {
	return c.notes.Active()
}

// DismissNotification removes an entry early; unknown ids are a no-op.
func (c *Client) DismissNotification(id string) {
	c.notes.Dismiss(id)
}

// --------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------

// ToggleActionItem flips the done flag of (emailID, index) on the backend,
// then re-syncs both stores: the item is denormalized into both, so both
// must be refreshed before the toggle is visible. There is no optimistic
// local flip and no rollback; on failure both stores are untouched.
func (c *Client) ToggleActionItem(ctx context.Context, emailID string, index int) error {
	s := c.session()
	if s == nil {
		return ErrLoggedOut
	}

	if err := api.ToggleActionItem(ctx, c.http, c.baseURL, emailID, index); err != nil {
		mutationsTotal.WithLabelValues("error").Inc()
		c.notes.Push(notify.Error, "Action item update failed", mutationMessage(err))
		return err
	}
	mutationsTotal.WithLabelValues("ok").Inc()

	// A failed post-write refresh just leaves the view stale until the next
	// trigger; the write itself succeeded.
	if err := s.inbox.Refresh(ctx); err != nil {
		log.Debug().Err(err).Msg("post-toggle inbox refresh failed")
	}
	if err := s.actions.Refresh(ctx); err != nil {
		log.Debug().Err(err).Msg("post-toggle action item refresh failed")
	}
	return nil
}

// SendEmail submits a new outgoing message. The outcome is surfaced on the
// notification queue either way.
func (c *Client) SendEmail(ctx context.Context, recipient, subject, body string) error {
	if !c.Authenticated() {
		return ErrLoggedOut
	}
	err := api.SendEmail(ctx, c.http, c.baseURL, types.SendEmailRequest{
		RecipientUsername: recipient,
		Subject:           subject,
		Body:              body,
	})
	if err != nil {
		c.notes.Push(notify.Error, "Send failed", err.Error())
		return err
	}
	c.notes.Push(notify.Success, "Message sent", "to "+recipient)
	return nil
}

// --------------------------------------------------------------------
// Notification copy
// --------------------------------------------------------------------

func authMessage(err error) string {
	var ae *apierr.AuthError
	if errors.As(err, &ae) {
		return ae.Kind.String()
	}
	return err.Error()
}

func mutationMessage(err error) string {
	var me *apierr.MutationError
	if errors.As(err, &me) {
		return me.Kind.String()
	}
	return err.Error()
}

func newEmailMessage(p types.NewEmailPayload) string {
	switch {
	case p.SenderUsername != "" && p.Subject != "":
		return "from " + p.SenderUsername + ": " + p.Subject
	case p.SenderUsername != "":
		return "from " + p.SenderUsername
	default:
		return "a new message arrived"
	}
}

// Package apierr provides the client's error taxonomy and HTTP error
// classification. Classification decides whether the stream layer may retry
// a failure; the typed errors decide what, if anything, is shown to the user.
package apierr

import (
	"errors"
	"fmt"
)

// Category determines how errors should be handled by retry logic.
type Category int

const (
	// Recoverable errors may be retried with exponential backoff.
	// Examples: 500 Internal Server Error, network timeouts, dropped streams.
	Recoverable Category = iota

	// Irrecoverable errors fail immediately without retry.
	// Examples: 401 Unauthorized, 403 Forbidden, 400 Bad Request.
	Irrecoverable
)

// String returns a human-readable representation of the category.
func (c Category) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ------------------------------
// AuthError
// ------------------------------

// AuthKind distinguishes the user-facing causes of an authentication failure.
type AuthKind int

const (
	AuthInvalidCredentials AuthKind = iota
	AuthUsernameTaken
	AuthUnreachable
)

func (k AuthKind) String() string {
	switch k {
	case AuthInvalidCredentials:
		return "invalid credentials"
	case AuthUsernameTaken:
		return "username taken"
	case AuthUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// AuthError reports a login or registration failure.
type AuthError struct {
	Kind       AuthKind
	StatusCode int // 0 for network-level failures
	Underlying error
}

func (e *AuthError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("auth: %s (HTTP %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Underlying)
}

func (e *AuthError) Unwrap() error { return e.Underlying }

// ------------------------------
// FetchError
// ------------------------------

// FetchError reports a failed snapshot fetch. Background refreshes swallow
// these by design; the prior store snapshot is retained.
type FetchError struct {
	Op         string // "list emails", "list action items"
	Category   Category
	StatusCode int // 0 for network-level failures
	Underlying error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: [%s] HTTP %d", e.Op, e.Category, e.StatusCode)
	}
	return fmt.Sprintf("%s: [%s] %v", e.Op, e.Category, e.Underlying)
}

func (e *FetchError) Unwrap() error { return e.Underlying }

// ------------------------------
// MutationError
// ------------------------------

// MutationKind distinguishes the causes of a failed action-item toggle.
type MutationKind int

const (
	MutationNotFound MutationKind = iota
	MutationUnreachable
)

func (k MutationKind) String() string {
	switch k {
	case MutationNotFound:
		return "item not found"
	case MutationUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MutationError reports a failed toggle. Stores are untouched on failure.
type MutationError struct {
	Kind       MutationKind
	StatusCode int
	Underlying error
}

func (e *MutationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("toggle: %s (HTTP %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("toggle: %s: %v", e.Kind, e.Underlying)
}

func (e *MutationError) Unwrap() error { return e.Underlying }

// ------------------------------
// StreamError
// ------------------------------

// StreamError reports a transport-level drop of the push stream. It is
// always recoverable and never surfaced to the user; the reconnect state
// machine consumes it internally.
type StreamError struct {
	Underlying error
}

func (e *StreamError) Error() string { return fmt.Sprintf("stream: %v", e.Underlying) }

func (e *StreamError) Unwrap() error { return e.Underlying }

// ------------------------------
// Helpers
// ------------------------------

// IsAuth reports whether err is an AuthError of the given kind.
func IsAuth(err error, kind AuthKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == kind
}

// IsMutation reports whether err is a MutationError of the given kind.
func IsMutation(err error, kind MutationKind) bool {
	var me *MutationError
	return errors.As(err, &me) && me.Kind == kind
}

// IsIrrecoverable reports whether err carries an Irrecoverable category.
func IsIrrecoverable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Category == Irrecoverable
	}
	return false
}

package inboxfw

import "github.com/inboxfw/inboxfw/internal/apierr"

// Re-export the error taxonomy so callers can match against a single
// package. AuthError and MutationError are surfaced to the user as
// notifications; FetchError during a background refresh is swallowed by
// design (the prior snapshot is retained); StreamError never leaves the
// reconnect machinery.
type (
	AuthError     = apierr.AuthError
	FetchError    = apierr.FetchError
	MutationError = apierr.MutationError
	StreamError   = apierr.StreamError

	AuthKind     = apierr.AuthKind
	MutationKind = apierr.MutationKind
)

const (
	AuthInvalidCredentials = apierr.AuthInvalidCredentials
	AuthUsernameTaken      = apierr.AuthUsernameTaken
	AuthUnreachable        = apierr.AuthUnreachable

	MutationNotFound    = apierr.MutationNotFound
	MutationUnreachable = apierr.MutationUnreachable
)

// IsAuth reports whether err is an AuthError of the given kind.
func IsAuth(err error, kind AuthKind) bool { return apierr.IsAuth(err, kind) }

// IsMutation reports whether err is a MutationError of the given kind.
func IsMutation(err error, kind MutationKind) bool { return apierr.IsMutation(err, kind) }

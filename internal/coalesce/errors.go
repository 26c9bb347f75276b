package coalesce

import "errors"

// ErrClosed reports a permanent condition: the runner has been closed and
// will accept no further triggers.
var ErrClosed = errors.New("refresh runner closed")

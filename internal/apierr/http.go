package apierr

import "fmt"

// CategoryForStatus maps HTTP status codes to retry categories:
// 4xx client errors (except 408/429) are irrecoverable, 5xx server errors
// and network-level failures are recoverable.
func CategoryForStatus(statusCode int) Category {
	switch {
	case statusCode >= 400 && statusCode < 500:
		switch statusCode {
		case 408: // Request Timeout
			return Recoverable
		case 429: // Too Many Requests
			return Recoverable
		default:
			return Irrecoverable
		}
	case statusCode >= 500 && statusCode < 600:
		return Recoverable
	default:
		// Unexpected status codes: be conservative and retry.
		return Recoverable
	}
}

// NewFetchHTTP creates a FetchError for a non-success status.
func NewFetchHTTP(op string, statusCode int) *FetchError {
	return &FetchError{
		Op:         op,
		Category:   CategoryForStatus(statusCode),
		StatusCode: statusCode,
		Underlying: fmt.Errorf("%s failed: HTTP %d", op, statusCode),
	}
}

// NewFetchNetwork creates a FetchError for a network-level failure.
// Network errors are always recoverable as they may be transient.
func NewFetchNetwork(op string, err error) *FetchError {
	return &FetchError{
		Op:         op,
		Category:   Recoverable,
		Underlying: fmt.Errorf("%s network error: %w", op, err),
	}
}

package types

import "encoding/json"

// ------------------------------
// Response payloads
// ------------------------------

// TokenResponse is returned by POST /auth/token/ on success.
type TokenResponse struct {
	Access string `json:"access"`
}

// ErrorBody is the backend's error envelope. Detail is best-effort; some
// endpoints return {"error": ...} instead.
type ErrorBody struct {
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Message returns whichever error field the backend populated.
func (e ErrorBody) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error
}

// StreamEvent is one named event from the push stream. Payload is advisory
// only: it may seed a user-facing notification but is never trusted as
// authoritative email or action-item state.
type StreamEvent struct {
	Type string
	Data json.RawMessage
}

// NewEmailPayload is the advisory payload of an email.new event.
type NewEmailPayload struct {
	ID             string `json:"id"`
	SenderUsername string `json:"sender_username"`
	Subject        string `json:"subject"`
}

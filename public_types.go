package inboxfw

import "github.com/inboxfw/inboxfw/internal/types"

// Public type aliases so SDK consumers can import only the inboxfw package.
type (
	// Domain entities
	Credential     = types.Credential
	EmailRecord    = types.EmailRecord
	ActionItem     = types.ActionItem
	ActionItemView = types.ActionItemView

	// Stream payloads
	StreamEvent     = types.StreamEvent
	NewEmailPayload = types.NewEmailPayload
)

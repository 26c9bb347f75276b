package types

import "time"

// ------------------------------
// Core Domain Entities
// ------------------------------

// Credential is the opaque bearer token proving authentication. Absence of a
// credential is a valid state (logged out) and gates everything else.
type Credential struct {
	Token string `json:"token"`
}

// EmailRecord is one email as returned by GET /emails/. The enrichment
// fields stay null until the backend pipeline computes them; a refresh
// always replaces the whole record, never patches individual fields.
type EmailRecord struct {
	ID                string    `json:"id"`
	SenderUsername    string    `json:"sender_username"`
	RecipientUsername string    `json:"recipient_username"`
	Subject           string    `json:"subject"`
	Body              string    `json:"body"`
	CreatedAt         time.Time `json:"created_at"`

	SpamLabel      *string      `json:"spam_label"`
	Priority       *string      `json:"priority"`
	PriorityReason *string      `json:"priority_reason"`
	Summary        *string      `json:"summary"`
	ActionItems    []ActionItem `json:"action_items"`

	ToneEmotion     *string  `json:"tone_emotion"`
	ToneConfidence  *float64 `json:"tone_confidence"`
	ToneExplanation *string  `json:"tone_explanation"`

	URLScanVerdict         *string `json:"url_scan_verdict"`
	URLScanThreatLevel     *string `json:"url_scan_threat_level"`
	URLScanMaliciousCount  int     `json:"url_scan_malicious_count"`
	URLScanSuspiciousCount int     `json:"url_scan_suspicious_count"`
	URLScanSummary         *string `json:"url_scan_summary"`
	URLScanDetails         *string `json:"url_scan_details"`
}

// ActionItem is one item inside an email's action_items sequence. Done is
// the only field the client ever mutates; everything else is
// backend-authoritative.
type ActionItem struct {
	Text     string `json:"text"`
	Done     bool   `json:"done"`
	Due      string `json:"due,omitempty"`
	Assignee string `json:"assignee,omitempty"`
}

// ActionItemView is the aggregate form returned by GET /action-items/:
// every item across every email, denormalized with its owner's identity so
// the consumer needs no join. (EmailID, Index) is the identity pair.
type ActionItemView struct {
	EmailID        string `json:"email_id"`
	Index          int    `json:"index"`
	Text           string `json:"text"`
	Done           bool   `json:"done"`
	Due            string `json:"due,omitempty"`
	Assignee       string `json:"assignee,omitempty"`
	EmailSubject   string `json:"email_subject"`
	SenderUsername string `json:"sender_username"`
}

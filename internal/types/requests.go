package types

// ------------------------------
// Request payloads
// ------------------------------

// RegisterRequest is the payload for POST /auth/register/.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenRequest is the payload for POST /auth/token/.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SendEmailRequest is the payload for POST /emails/.
type SendEmailRequest struct {
	RecipientUsername string `json:"recipient_username"`
	Subject           string `json:"subject"`
	Body              string `json:"body"`
}

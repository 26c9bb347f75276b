package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/inboxfw/inboxfw/internal/apierr"
	"github.com/inboxfw/inboxfw/internal/types"
)

// Register creates a new account via POST /auth/register/. A conflicting
// username is reported as AuthUsernameTaken so callers can stop before
// attempting the follow-up login.
func Register(ctx context.Context, httpClient *http.Client, baseURL string, req types.RegisterRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/auth/register/", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return &apierr.AuthError{Kind: apierr.AuthUnreachable, Underlying: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	underlying := decodeErrorBody(resp)
	switch resp.StatusCode {
	case http.StatusConflict, http.StatusBadRequest:
		return &apierr.AuthError{Kind: apierr.AuthUsernameTaken, StatusCode: resp.StatusCode, Underlying: underlying}
	default:
		return &apierr.AuthError{Kind: apierr.AuthUnreachable, StatusCode: resp.StatusCode, Underlying: underlying}
	}
}

// Token exchanges username/password for a bearer credential via
// POST /auth/token/.
func Token(ctx context.Context, httpClient *http.Client, baseURL string, req types.TokenRequest) (*types.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/auth/token/", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &apierr.AuthError{Kind: apierr.AuthUnreachable, Underlying: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		underlying := decodeErrorBody(resp)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusBadRequest, http.StatusForbidden:
			return nil, &apierr.AuthError{Kind: apierr.AuthInvalidCredentials, StatusCode: resp.StatusCode, Underlying: underlying}
		default:
			return nil, &apierr.AuthError{Kind: apierr.AuthUnreachable, StatusCode: resp.StatusCode, Underlying: underlying}
		}
	}

	var tr types.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &apierr.AuthError{Kind: apierr.AuthUnreachable, StatusCode: resp.StatusCode, Underlying: err}
	}
	return &types.Credential{Token: tr.Access}, nil
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/inboxfw/inboxfw/internal/apierr"
	"github.com/inboxfw/inboxfw/internal/types"
)

// ListEmails fetches the full inbox snapshot via GET /emails/.
// The Authorization header is added by the transport layer.
func ListEmails(ctx context.Context, httpClient *http.Client, baseURL string) ([]types.EmailRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/emails/", nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, apierr.NewFetchNetwork("list emails", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.NewFetchHTTP("list emails", resp.StatusCode)
	}

	var emails []types.EmailRecord
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return nil, &apierr.FetchError{Op: "list emails", Category: apierr.Recoverable, Underlying: err}
	}
	return emails, nil
}

// SendEmail submits a new outgoing email via POST /emails/. The backend
// assigns the id and schedules enrichment; the record arrives through the
// recipient's push stream and refresh, never through this response.
func SendEmail(ctx context.Context, httpClient *http.Client, baseURL string, req types.SendEmailRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/emails/", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return apierr.NewFetchNetwork("send email", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		if underlying := decodeErrorBody(resp); underlying != nil {
			return &apierr.FetchError{
				Op:         "send email",
				Category:   apierr.CategoryForStatus(resp.StatusCode),
				StatusCode: resp.StatusCode,
				Underlying: underlying,
			}
		}
		return apierr.NewFetchHTTP("send email", resp.StatusCode)
	}
	return nil
}

// decodeErrorBody extracts the backend's error envelope, if any.
func decodeErrorBody(resp *http.Response) error {
	var eb types.ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
		return errors.New(http.StatusText(resp.StatusCode))
	}
	if msg := eb.Message(); msg != "" {
		return fmt.Errorf("%s", msg)
	}
	return errors.New(http.StatusText(resp.StatusCode))
}

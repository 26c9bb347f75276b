package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/inboxfw/inboxfw/internal/apierr"
	"github.com/inboxfw/inboxfw/internal/types"
)

// ListActionItems fetches the denormalized aggregate view via
// GET /action-items/.
func ListActionItems(ctx context.Context, httpClient *http.Client, baseURL string) ([]types.ActionItemView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/action-items/", nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, apierr.NewFetchNetwork("list action items", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.NewFetchHTTP("list action items", resp.StatusCode)
	}

	var items []types.ActionItemView
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, &apierr.FetchError{Op: "list action items", Category: apierr.Recoverable, Underlying: err}
	}
	return items, nil
}

// ToggleActionItem flips an item's done flag via
// PATCH /action-items/{email_id}/{index}/toggle/. The response body is not
// trusted; callers re-sync both stores after a success.
func ToggleActionItem(ctx context.Context, httpClient *http.Client, baseURL, emailID string, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	url := fmt.Sprintf("%s/action-items/%s/%d/toggle/", baseURL, emailID, index)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return &apierr.MutationError{Kind: apierr.MutationUnreachable, Underlying: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return &apierr.MutationError{Kind: apierr.MutationNotFound, StatusCode: resp.StatusCode, Underlying: decodeErrorBody(resp)}
	default:
		return &apierr.MutationError{Kind: apierr.MutationUnreachable, StatusCode: resp.StatusCode, Underlying: decodeErrorBody(resp)}
	}
}

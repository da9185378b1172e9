package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// get makes an authenticated GET request to the API and decodes the
// JSON response into v.
//
// It handles:
// - Attaching current auth headers (obtaining a token first)
// - On 401: clearing the token, refreshing, and retrying exactly once
// - Mapping non-2xx responses to *Error
//
// The 401 handling is deliberately a bounded two-step sequence, not a
// loop: a persistently invalid credential costs each request one wasted
// round-trip and then fails.
func (c *Client) get(ctx context.Context, path string, query url.Values, v interface{}) error {
	resp, err := c.do(ctx, path, query)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		c.logDebugf("spotify: 401 on %s, refreshing token and retrying once", path)
		c.tokens.Clear()

		resp, err = c.do(ctx, path, query)
		if err != nil {
			return err
		}
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response for %s: %w", path, err)
	}

	return nil
}

// do issues a single authenticated request. The caller owns the
// response body.
func (c *Client) do(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	headers, err := c.tokens.AuthHeaders(ctx)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	return resp, nil
}

// apiError builds an *Error from a non-2xx response, consuming the
// body.
func apiError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	var payload struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	message := ""
	if body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
		if jsonErr := json.Unmarshal(body, &payload); jsonErr == nil {
			message = payload.Error.Message
		}
	}

	return &Error{StatusCode: resp.StatusCode, Message: message}
}

// drain discards and closes a response body so the connection can be
// reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// pageOffset converts a 1-based page number to the API's offset
// parameter.
func pageOffset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * PageSize
}

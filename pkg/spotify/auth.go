package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// expiryMargin is how long before actual expiry a token is treated as
// expired. Refreshing early avoids racing the server clock on requests
// issued just before the deadline.
const expiryMargin = 5 * time.Minute

// storedToken is a bearer token with its absolute expiry time.
type storedToken struct {
	accessToken string
	tokenType   string
	expiresAt   time.Time
}

// TokenSource obtains and caches a bearer token via the OAuth2
// client-credentials grant.
//
// The token is held in memory only and replaced wholesale on refresh.
// TokenSource is the sole owner of the token; the transport reads it
// through Token and discards it through Clear.
type TokenSource struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client

	mu    sync.Mutex
	token *storedToken

	// now is swappable for tests.
	now func() time.Time
}

// Token returns a valid access token, exchanging credentials for a new
// one if none is held or the held token expires within five minutes.
//
// Exchange failures are returned wrapped in ErrAuthFailed. The method
// does not retry; retry-on-failure is the transport's responsibility.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.valid() {
		return ts.token.accessToken, nil
	}

	token, err := ts.exchange(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	ts.token = token
	return token.accessToken, nil
}

// Clear discards the held token unconditionally. It is idempotent; the
// next Token call performs a fresh exchange.
func (ts *TokenSource) Clear() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = nil
}

// AuthHeaders returns the headers to attach to an API request,
// obtaining a valid token first.
func (ts *TokenSource) AuthHeaders(ctx context.Context) (map[string]string, error) {
	accessToken, err := ts.Token(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"Authorization": "Bearer " + accessToken,
		"Content-Type":  "application/json",
	}, nil
}

// valid reports whether the held token is usable. Must be called with
// the lock held.
func (ts *TokenSource) valid() bool {
	if ts.token == nil {
		return false
	}
	return ts.clock().Add(expiryMargin).Before(ts.token.expiresAt)
}

func (ts *TokenSource) clock() time.Time {
	if ts.now != nil {
		return ts.now()
	}
	return time.Now()
}

// exchange performs the client-credentials exchange against the token
// endpoint. Must be called with the lock held.
func (ts *TokenSource) exchange(ctx context.Context) (*storedToken, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", ts.clientID)
	form.Set("client_secret", ts.clientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("no access token in response")
	}

	return &storedToken{
		accessToken: tr.AccessToken,
		tokenType:   tr.TokenType,
		expiresAt:   ts.clock().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

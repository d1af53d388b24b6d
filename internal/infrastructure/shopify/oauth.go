package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoAccessToken indicates a 2xx token-exchange response without an
// access_token field.
var ErrNoAccessToken = errors.New("oauth response contained no access token")

// ExchangeError carries the upstream status and body of a failed token
// exchange so the boundary can pass the detail through for diagnostics.
type ExchangeError struct {
	Status int
	Body   string
	Err    error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed: status %d: %s", e.Status, e.Body)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// OAuthClient builds install URLs and exchanges authorization codes for
// access tokens via the shop-specific token endpoint.
type OAuthClient struct {
	apiKey     string
	apiSecret  string
	scopes     string
	appURL     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewOAuthClient creates an OAuth client. appURL is the externally
// reachable base of this service, used to derive the redirect URI.
func NewOAuthClient(apiKey, apiSecret, scopes, appURL string, timeout time.Duration, logger zerolog.Logger) *OAuthClient {
	return &OAuthClient{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		scopes:     scopes,
		appURL:     appURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WithBaseURL overrides the https://{shop} endpoint base, so the exchange
// can be pointed at a stub server.
func (c *OAuthClient) WithBaseURL(base string) *OAuthClient {
	c.baseURL = base
	return c
}

func (c *OAuthClient) tokenURL(shop string) string {
	if c.baseURL != "" {
		return c.baseURL + "/admin/oauth/access_token"
	}
	return fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
}

// AuthorizeURL builds the merchant consent URL for the install redirect.
func (c *OAuthClient) AuthorizeURL(shop string, state string) string {
	redirectURI := c.appURL + "/auth/callback"
	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		c.apiKey,
		url.QueryEscape(c.scopes),
		url.QueryEscape(redirectURI),
		url.QueryEscape(state),
	)
}

// Exchange trades an authorization code for a permanent access token. The
// caller persists the token; nothing is stored here.
func (c *OAuthClient) Exchange(ctx context.Context, shop string, code string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     c.apiKey,
		"client_secret": c.apiSecret,
		"code":          code,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(shop), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ExchangeError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ExchangeError{Status: resp.StatusCode, Body: string(body)}
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		return "", &ExchangeError{Status: resp.StatusCode, Body: string(body), Err: err}
	}
	if tokenResponse.AccessToken == "" {
		return "", ErrNoAccessToken
	}

	c.logger.Info().Str("shop", shop).Str("scope", tokenResponse.Scope).Msg("exchanged authorization code for access token")
	return tokenResponse.AccessToken, nil
}

// Package canva integrates with the Canva Connect OAuth 2.0 API using the
// authorization-code flow with PKCE.
package canva

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xtralabs/xtra-server/internal/domain"
	"github.com/xtralabs/xtra-server/internal/pkce"
)

// Default Canva endpoints.
const (
	DefaultAuthURL  = "https://www.canva.com/api/oauth/authorize"
	DefaultTokenURL = "https://api.canva.com/rest/v1/oauth/token"
)

// Scopes requested for the integration. The list is fixed: the app reads
// design metadata and content, writes assets and design content, and reads
// brand templates and the user profile.
var Scopes = []string{
	"design:meta:read",
	"asset:write",
	"design:content:read",
	"asset:read",
	"brandtemplate:meta:read",
	"design:content:write",
	"brandtemplate:content:read",
	"profile:read",
}

// ExchangeError reports a failed token exchange. The provider's HTTP
// status and response body are preserved as diagnostic detail; nothing
// is synthesized in their place.
type ExchangeError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Client performs the OAuth exchanges against the Canva token endpoint.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	authURL      string
	tokenURL     string
	httpClient   *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithEndpoints overrides the authorize and token endpoints, for tests.
func WithEndpoints(authURL, tokenURL string) Option {
	return func(c *Client) {
		c.authURL = authURL
		c.tokenURL = tokenURL
	}
}

// WithTimeout bounds outbound exchange calls. Exchanges must never hang
// the redirect handler.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Canva OAuth client.
func NewClient(clientID, clientSecret, redirectURI string, opts ...Option) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		authURL:      DefaultAuthURL,
		tokenURL:     DefaultTokenURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AuthorizationURL builds the consent URL the user is redirected to.
// Pure function of the triple; the caller is responsible for recording
// state against verifier before handing the URL out.
func (c *Client) AuthorizationURL(triple pkce.Triple) string {
	q := url.Values{}
	q.Set("code_challenge_method", "s256")
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("scope", strings.Join(Scopes, " "))
	q.Set("code_challenge", triple.Challenge)
	q.Set("state", triple.State)
	return c.authURL + "?" + q.Encode()
}

// ExchangeCode trades an authorization code and its PKCE verifier for a
// token set. The verifier (not the challenge) goes to the provider so it
// can re-derive and compare.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*domain.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code_verifier", verifier)
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)
	return c.postToken(ctx, form)
}

// Refresh trades a refresh token for a fresh token set.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.postToken(ctx, form)
}

// postToken performs a form-encoded POST to the token endpoint with HTTP
// Basic auth. Failures are never retried here; retry policy belongs to
// the caller.
func (c *Client) postToken(ctx context.Context, form url.Values) (*domain.TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokens domain.TokenSet
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Body: string(body), Err: fmt.Errorf("malformed token response: %w", err)}
	}
	if tokens.AccessToken == "" {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Body: string(body), Err: fmt.Errorf("token response missing access_token")}
	}

	return &tokens, nil
}

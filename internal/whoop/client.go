// Package whoop is a minimal client for the WHOOP developer API. It wraps
// every call with the credential manager and recovers from exactly one class
// of failure: a server-side token rejection triggers one forced refresh and
// one retry. There is no further retry, rate-limiting, or backoff policy.
package whoop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the WHOOP developer API root.
const DefaultBaseURL = "https://api.prod.whoop.com/developer"

// DefaultTokenURL is WHOOP's OAuth2 token endpoint.
const DefaultTokenURL = "https://api.prod.whoop.com/oauth/oauth2/token"

// DefaultAuthURL is WHOOP's OAuth2 authorization endpoint, used only by the
// interactive setup flow.
const DefaultAuthURL = "https://api.prod.whoop.com/oauth/oauth2/auth"

// APIError is returned for any non-success API response, including a 401
// that survived the single refresh-and-retry attempt.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whoop api request failed: status %d: %s", e.Status, e.Body)
}

// TokenProvider supplies bearer tokens for outbound calls. Implemented by
// credentials.Manager.
type TokenProvider interface {
	// AccessToken returns a token the local clock considers valid.
	AccessToken(ctx context.Context) (string, error)

	// ForceRefresh refreshes regardless of local expiry, for when the
	// server rejected a token the clock still trusted.
	ForceRefresh(ctx context.Context) (string, error)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for API calls.
// Defaults to http.DefaultClient.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// Client performs authenticated GET requests against the WHOOP API.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
}

// NewClient creates a Client rooted at baseURL.
func NewClient(baseURL string, tokens TokenProvider, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if tokens == nil {
		return nil, fmt.Errorf("missing token provider")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Get performs a bearer-authenticated GET of path (e.g. "/v2/cycle") with
// the given query parameters. On a 401 it forces one token refresh and
// retries once; the server, not the local clock, is the authority on token
// validity. Any other non-success response, or a failed retry, is returned
// as an *APIError.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(ctx, path, query, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		token, err = c.tokens.ForceRefresh(ctx)
		if err != nil {
			return nil, err
		}
		status, body, err = c.do(ctx, path, query, token)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status > 299 {
		return nil, &APIError{Status: status, Body: string(body)}
	}

	return body, nil
}

func (c *Client) do(ctx context.Context, path string, query url.Values, token string) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("calling %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response from %s: %w", path, err)
	}

	return resp.StatusCode, body, nil
}

// RangeParams selects a time window of a paged collection endpoint.
// Zero-valued fields are omitted from the query.
type RangeParams struct {
	Start     time.Time
	End       time.Time
	Limit     int
	NextToken string
}

func (p RangeParams) values() url.Values {
	q := url.Values{}
	if !p.Start.IsZero() {
		q.Set("start", p.Start.UTC().Format(time.RFC3339))
	}
	if !p.End.IsZero() {
		q.Set("end", p.End.UTC().Format(time.RFC3339))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.NextToken != "" {
		q.Set("nextToken", p.NextToken)
	}
	return q
}

// Profile fetches the user's basic profile.
func (c *Client) Profile(ctx context.Context) (*UserProfile, error) {
	return getJSON[UserProfile](ctx, c, "/v2/user/profile/basic", nil)
}

// BodyMeasurement fetches the user's latest body measurements.
func (c *Client) BodyMeasurement(ctx context.Context) (*BodyMeasurement, error) {
	return getJSON[BodyMeasurement](ctx, c, "/v2/user/measurement/body", nil)
}

// Cycles fetches physiological cycles in the given range, newest first.
func (c *Client) Cycles(ctx context.Context, p RangeParams) (*Collection[Cycle], error) {
	return getJSON[Collection[Cycle]](ctx, c, "/v2/cycle", p.values())
}

// Recoveries fetches recovery scores in the given range, newest first.
func (c *Client) Recoveries(ctx context.Context, p RangeParams) (*Collection[Recovery], error) {
	return getJSON[Collection[Recovery]](ctx, c, "/v2/recovery", p.values())
}

// Sleeps fetches sleep activities in the given range, newest first.
func (c *Client) Sleeps(ctx context.Context, p RangeParams) (*Collection[Sleep], error) {
	return getJSON[Collection[Sleep]](ctx, c, "/v2/activity/sleep", p.values())
}

// Workouts fetches workout activities in the given range, newest first.
func (c *Client) Workouts(ctx context.Context, p RangeParams) (*Collection[Workout], error) {
	return getJSON[Collection[Workout]](ctx, c, "/v2/activity/workout", p.values())
}

func getJSON[T any](ctx context.Context, c *Client, path string, query url.Values) (*T, error) {
	body, err := c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return &out, nil
}

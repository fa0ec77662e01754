package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// bootstrapValidity is the assumed lifetime of tokens seeded from
// configuration. WHOOP does not report a validity window for them; if the
// real token is shorter-lived the first API call hits a 401 and is healed by
// the gateway's refresh-and-retry path.
const bootstrapValidity = time.Hour

var (
	// ErrCredentialsUnavailable means no record could be obtained from the
	// in-memory cache, the store, or bootstrap configuration. The user has
	// to run the initial setup.
	ErrCredentialsUnavailable = errors.New("no WHOOP credentials available")

	// ErrMissingClientCredentials means a refresh was attempted without a
	// configured client id/secret. This is a configuration problem, not an
	// authentication one.
	ErrMissingClientCredentials = errors.New("WHOOP client id/secret not configured")

	// ErrRefreshUnavailable means a refresh was attempted but the current
	// record carries no refresh token. The user has to re-authenticate.
	ErrRefreshUnavailable = errors.New("no refresh token available")
)

// RefreshError is returned when WHOOP's token endpoint rejects a refresh
// call, typically because the presented refresh token was rotated out or
// revoked. Status and Body are preserved for diagnostics.
type RefreshError struct {
	Status int
	Body   string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh rejected: status %d: %s", e.Status, e.Body)
}

// ManagerConfig carries the immutable collaborator configuration for a
// Manager. ClientID/ClientSecret are required for any refresh; the initial
// tokens are optional seeds used only when the store holds no record.
type ManagerConfig struct {
	ClientID     string
	ClientSecret string

	InitialAccessToken  string
	InitialRefreshToken string

	TokenURL string
	Scopes   []string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithHTTPClient sets the HTTP client used for token endpoint calls.
// Defaults to http.DefaultClient.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager resolves a valid access token on demand: in-memory cache first,
// then the durable store, then bootstrap tokens from configuration,
// refreshing through the token endpoint when the record has expired.
//
// A single Manager instance owns the process-wide credential record.
// All resolution and refreshing happens under one mutex, so at most one
// refresh is in flight at a time and concurrent callers that raced on an
// expired record observe the shared result instead of each presenting the
// same (rotated, single-use) refresh token.
type Manager struct {
	store      Store
	cfg        ManagerConfig
	httpClient *http.Client
	now        func() time.Time

	mu     sync.Mutex
	record *Record
}

// NewManager creates a Manager backed by the given store.
// No I/O is performed until the first AccessToken call.
func NewManager(store Store, cfg ManagerConfig, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("missing credential store")
	}
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("missing token endpoint URL")
	}

	m := &Manager{
		store:      store,
		cfg:        cfg,
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// AccessToken returns a non-expired access token, loading the stored record
// or seeding one from bootstrap configuration on first use and refreshing
// when the cached record has expired.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureRecordLocked(ctx); err != nil {
		return "", err
	}

	// Expiry is checked under the lock: a caller that queued behind a
	// refresh sees the fresh record here and returns it as-is.
	if m.record.ExpiredAt(m.now()) {
		return m.refreshLocked(ctx)
	}

	return m.record.AccessToken, nil
}

// ForceRefresh refreshes unconditionally, bypassing the expiry check. The
// gateway calls this after the server rejected a token the local clock still
// considered valid.
func (m *Manager) ForceRefresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureRecordLocked(ctx); err != nil {
		return "", err
	}

	return m.refreshLocked(ctx)
}

// ensureRecordLocked populates m.record from the store or, failing that,
// from bootstrap configuration. Caller must hold m.mu.
func (m *Manager) ensureRecordLocked(ctx context.Context) error {
	if m.record != nil {
		return nil
	}

	rec, ok, err := m.store.Load(ctx)
	if err != nil {
		// Unreadable store is treated like an absent one so the
		// bootstrap path still has a chance.
		slog.WarnContext(ctx, "credential store read failed", "error", err)
	}
	if ok {
		m.record = &rec
		return nil
	}

	at, rt := m.cfg.InitialAccessToken, m.cfg.InitialRefreshToken
	if at != "" && rt != "" {
		seeded := NewRecord(at, rt, m.now().Add(bootstrapValidity))
		if err := m.store.Save(ctx, seeded); err != nil {
			slog.ErrorContext(ctx, "failed to persist bootstrap credentials", "error", err)
		}
		m.record = &seeded
		return nil
	}
	if at != "" || rt != "" {
		slog.WarnContext(ctx, "ignoring partial bootstrap tokens, access and refresh token are required together")
	}

	return ErrCredentialsUnavailable
}

// tokenResponse is the success payload of WHOOP's token endpoint.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

// refreshLocked exchanges the current refresh token for a new record,
// replaces the cache wholesale, and persists it. Persistence failure is
// logged but never surfaced: the refreshed token stays usable for the rest
// of the process lifetime. Caller must hold m.mu.
func (m *Manager) refreshLocked(ctx context.Context) (string, error) {
	if m.record.RefreshToken == "" {
		return "", ErrRefreshUnavailable
	}
	if m.cfg.ClientID == "" || m.cfg.ClientSecret == "" {
		return "", ErrMissingClientCredentials
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {m.cfg.ClientID},
		"client_secret": {m.cfg.ClientSecret},
		"scope":         {strings.Join(m.cfg.Scopes, " ")},
		"refresh_token": {m.record.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	refreshedAt := m.now()

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling token endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RefreshError{Status: resp.StatusCode, Body: string(body)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	rec := NewRecord(tok.AccessToken, tok.RefreshToken, refreshedAt.Add(time.Duration(tok.ExpiresIn)*time.Second))
	m.record = &rec

	if err := m.store.Save(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to persist refreshed credentials", "error", err)
	}

	slog.DebugContext(ctx, "access token refreshed", "expires_at", rec.ExpiresAt)

	return rec.AccessToken, nil
}

// Package auth implements the Spotify OAuth session lifecycle.
//
// [Manager] owns the token pair and user profile for the single in-memory
// session. States: unconfigured (no client credentials), unauthenticated,
// authenticated, and expired. Tokens never persist; a process restart
// requires a fresh login.
//
// Concurrent requests (multiple browser tabs) share the session, so token
// mutation during refresh is serialized behind a mutex.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/rdelgatto/spindle/internal/models"
	"github.com/rdelgatto/spindle/internal/shared"
	"golang.org/x/oauth2"
)

// Endpoint describes Spotify's OAuth2 endpoints.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.spotify.com/authorize",
	TokenURL: "https://accounts.spotify.com/api/token",
}

var scopes = []string{
	"user-library-read",
	"playlist-read-private",
	"playlist-modify-private",
	"playlist-modify-public",
}

// State names the session lifecycle states.
type State string

const (
	StateUnconfigured    State = "unconfigured"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
	StateExpired         State = "expired"
)

// ProbeFunc fetches the user profile with an explicit access token.
// Used both as the post-exchange profile fetch and as the session
// liveness probe. SpotifyService.ProbeProfile satisfies this.
type ProbeFunc func(ctx context.Context, accessToken string) (*models.UserProfile, error)

// Manager owns the OAuth token pair and user profile for the session.
type Manager struct {
	mu      sync.Mutex
	config  *oauth2.Config
	token   *oauth2.Token
	profile *models.UserProfile
	state   string
	probe   ProbeFunc
	logger  *log.Logger
}

// NewManager creates a session manager from the configured credentials.
//
// Missing client ID or secret leaves the manager unconfigured: AuthURL
// and Authenticate fail with [shared.ErrMissingCredentials] until the
// process restarts with credentials present.
func NewManager(cfg shared.SpotifyConfig, probe ProbeFunc, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	m := &Manager{probe: probe, logger: logger}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return m
	}

	redirect := cfg.RedirectURI
	if redirect == "" {
		redirect = "http://127.0.0.1:3000/callback"
	}

	m.config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       scopes,
		Endpoint:     Endpoint,
	}

	return m
}

// Configured reports whether client credentials are present.
func (m *Manager) Configured() bool {
	return m.config != nil
}

// AuthURL builds the authorization redirect URL for the user's browser.
//
// A fresh state token is generated per call and checked by VerifyState
// when the callback arrives.
func (m *Manager) AuthURL() (string, error) {
	if !m.Configured() {
		return "", fmt.Errorf("%w: Spotify client ID and secret", shared.ErrMissingCredentials)
	}

	m.mu.Lock()
	m.state = shared.GenerateID()
	state := m.state
	m.mu.Unlock()

	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// VerifyState checks a callback's state parameter against the issued one.
// Callbacks without an issued state (direct code submission via CLI) pass.
func (m *Manager) VerifyState(state string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == "" || state == m.state
}

// Authenticate exchanges a one-time authorization code for a token pair
// and fetches the user profile.
//
// Any failure clears both token and profile; the session falls back to
// unauthenticated and the caller sees a wrapped [shared.ErrAuthFailed].
func (m *Manager) Authenticate(ctx context.Context, code string) error {
	if !m.Configured() {
		return fmt.Errorf("%w: Spotify client ID and secret", shared.ErrMissingCredentials)
	}

	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		m.clear()
		return fmt.Errorf("%w: code exchange: %v", shared.ErrAuthFailed, err)
	}

	profile, err := m.probe(ctx, token.AccessToken)
	if err != nil {
		m.clear()
		return fmt.Errorf("%w: profile fetch: %v", shared.ErrAuthFailed, err)
	}

	m.mu.Lock()
	m.token = token
	m.profile = profile
	m.mu.Unlock()

	m.logger.Info("authenticated", "user", profile.ID)
	return nil
}

// CheckToken reports whether the session is usable, refreshing an expired
// token when a refresh token is available.
//
// An expired token without a refresh token is unrecoverable: no refresh is
// attempted and false is returned. A valid token is confirmed server-side
// with a liveness probe; probe failure demotes the session WITHOUT
// clearing the token, so a transient provider outage does not force a full
// re-login (probe failure is distinguished from expiry, not conflated).
func (m *Manager) CheckToken(ctx context.Context) bool {
	m.mu.Lock()
	if m.token == nil {
		m.mu.Unlock()
		return false
	}

	if expired(m.token) {
		if m.token.RefreshToken == "" {
			m.mu.Unlock()
			return false
		}
		if err := m.refreshLocked(ctx); err != nil {
			m.token = nil
			m.profile = nil
			m.mu.Unlock()
			m.logger.Warn("token refresh failed", "err", err)
			return false
		}
	}

	access := m.token.AccessToken
	m.mu.Unlock()

	profile, err := m.probe(ctx, access)
	if err != nil {
		m.logger.Warn("session liveness probe failed, token retained", "err", err)
		return false
	}

	m.mu.Lock()
	m.profile = profile
	m.mu.Unlock()

	return true
}

// AccessToken returns a live access token, refreshing first when expired.
// Implements services.TokenGetter.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == nil {
		return "", fmt.Errorf("%w: no session", shared.ErrNotAuthenticated)
	}

	if expired(m.token) {
		if m.token.RefreshToken == "" {
			return "", fmt.Errorf("%w: token expired without refresh token", shared.ErrNotAuthenticated)
		}
		if err := m.refreshLocked(ctx); err != nil {
			return "", err
		}
	}

	return m.token.AccessToken, nil
}

// refreshLocked replaces the token via the provider's refresh endpoint.
// The provider may rotate the refresh token or omit it; an omitted refresh
// token keeps the previous one. Callers hold m.mu.
func (m *Manager) refreshLocked(ctx context.Context) error {
	ts := m.config.TokenSource(ctx, m.token)
	newTok, err := ts.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if newTok.RefreshToken == "" {
		newTok.RefreshToken = m.token.RefreshToken
	}
	m.token = newTok

	return nil
}

// Logout clears the token and profile unconditionally. Idempotent.
func (m *Manager) Logout() {
	m.clear()
	m.logger.Info("logged out")
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.token = nil
	m.profile = nil
	m.mu.Unlock()
}

// Profile returns a copy of the last fetched user profile, or nil.
func (m *Manager) Profile() *models.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.profile == nil {
		return nil
	}
	p := *m.profile
	return &p
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.config == nil:
		return StateUnconfigured
	case m.token == nil:
		return StateUnauthenticated
	case expired(m.token):
		return StateExpired
	default:
		return StateAuthenticated
	}
}

// expired reports whether a present token is past its expiry.
func expired(t *oauth2.Token) bool {
	return t.AccessToken != "" && !t.Valid()
}

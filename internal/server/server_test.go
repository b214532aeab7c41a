package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rdelgatto/spindle/internal/auth"
	"github.com/rdelgatto/spindle/internal/models"
	"github.com/rdelgatto/spindle/internal/shared"
)

// stubSession is a scriptable Session for handler tests.
type stubSession struct {
	configured      bool
	authURL         string
	authURLErr      error
	verifyOK        bool
	authenticateErr error
	alive           bool
	profile         *models.UserProfile
	state           auth.State
	logouts         int
	lastCode        string
}

func (s *stubSession) Configured() bool              { return s.configured }
func (s *stubSession) AuthURL() (string, error)      { return s.authURL, s.authURLErr }
func (s *stubSession) VerifyState(state string) bool { return s.verifyOK }
func (s *stubSession) Authenticate(ctx context.Context, code string) error {
	s.lastCode = code
	return s.authenticateErr
}
func (s *stubSession) CheckToken(ctx context.Context) bool { return s.alive }
func (s *stubSession) Logout()                             { s.logouts++ }
func (s *stubSession) Profile() *models.UserProfile        { return s.profile }
func (s *stubSession) State() auth.State                   { return s.state }

// stubLibrary is a scriptable Library for handler tests.
type stubLibrary struct {
	playlists    []models.PlaylistSummary
	playlistsErr error
	tracks       []models.TrackRecord
	tracksErr    error
	lastHint     int
	invalidated  []string
	features     *models.AudioFeatureVector
	featuresErr  error
	addErr       error
	lastURIs     []string
	related      *models.RelatedArtists
	relatedErr   error
	lastLimit    int
}

func (l *stubLibrary) FetchPlaylists(ctx context.Context) ([]models.PlaylistSummary, error) {
	return l.playlists, l.playlistsErr
}
func (l *stubLibrary) FetchTracks(ctx context.Context, playlistID string, totalHint int) ([]models.TrackRecord, error) {
	l.lastHint = totalHint
	return l.tracks, l.tracksErr
}
func (l *stubLibrary) Invalidate(playlistID string) {
	l.invalidated = append(l.invalidated, playlistID)
}
func (l *stubLibrary) TrackFeatures(ctx context.Context, trackID string) (*models.AudioFeatureVector, error) {
	return l.features, l.featuresErr
}
func (l *stubLibrary) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	l.lastURIs = uris
	return l.addErr
}
func (l *stubLibrary) RelatedArtists(ctx context.Context, primary string, displayLimit int) (*models.RelatedArtists, error) {
	l.lastLimit = displayLimit
	return l.related, l.relatedErr
}

func doRequest(t *testing.T, s *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeErrorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("error body did not decode: %v", err)
	}
	return body.Error.Kind
}

func TestLoginRedirect(t *testing.T) {
	t.Run("redirects to consent URL", func(t *testing.T) {
		s := NewServer(&stubSession{authURL: "https://accounts.example/authorize?state=x"}, &stubLibrary{}, nil)

		rec := doRequest(t, s, http.MethodGet, "/login", "")
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "https://accounts.example/authorize?state=x" {
			t.Errorf("unexpected redirect target %q", got)
		}
	})

	t.Run("unconfigured reports 503", func(t *testing.T) {
		s := NewServer(&stubSession{authURLErr: shared.ErrMissingCredentials}, &stubLibrary{}, nil)

		rec := doRequest(t, s, http.MethodGet, "/login", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		if kind := decodeErrorKind(t, rec); kind != "configuration" {
			t.Errorf("expected configuration kind, got %q", kind)
		}
	})
}

func TestCallback(t *testing.T) {
	t.Run("success page", func(t *testing.T) {
		sess := &stubSession{verifyOK: true, profile: &models.UserProfile{DisplayName: "User One"}}
		s := NewServer(sess, &stubLibrary{}, nil)

		rec := doRequest(t, s, http.MethodGet, "/callback?code=abc&state=x", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if sess.lastCode != "abc" {
			t.Errorf("code not passed through, got %q", sess.lastCode)
		}
		if !strings.Contains(rec.Body.String(), "User One") {
			t.Error("success page should greet the user")
		}
	})

	t.Run("missing code page", func(t *testing.T) {
		sess := &stubSession{verifyOK: true}
		s := NewServer(sess, &stubLibrary{}, nil)

		rec := doRequest(t, s, http.MethodGet, "/callback", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "No Code Received") {
			t.Error("expected the no-code page")
		}
		if sess.lastCode != "" {
			t.Error("no exchange may be attempted without a code")
		}
	})

	t.Run("state mismatch page", func(t *testing.T) {
		sess := &stubSession{verifyOK: false}
		s := NewServer(sess, &stubLibrary{}, nil)

		rec := doRequest(t, s, http.MethodGet, "/callback?code=abc&state=forged", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if sess.lastCode != "" {
			t.Error("no exchange may be attempted on a state mismatch")
		}
	})

	t.Run("failed exchange page", func(t *testing.T) {
		sess := &stubSession{verifyOK: true, authenticateErr: shared.ErrAuthFailed}
		s := NewServer(sess, &stubLibrary{}, nil)

		rec := doRequest(t, s, http.MethodGet, "/callback?code=bad", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Failed") {
			t.Error("expected the failure page")
		}
	})
}

func TestLogout(t *testing.T) {
	sess := &stubSession{}
	s := NewServer(sess, &stubLibrary{}, nil)

	for i := 0; i < 2; i++ {
		rec := doRequest(t, s, http.MethodPost, "/logout", "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	}
	if sess.logouts != 2 {
		t.Errorf("expected 2 logout calls, got %d", sess.logouts)
	}
}

func TestSessionEndpoint(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		sess := &stubSession{
			alive:   true,
			state:   auth.StateAuthenticated,
			profile: &models.UserProfile{ID: "user1", DisplayName: "User One"},
		}
		s := NewServer(sess, &stubLibrary{}, nil)

		rec := doRequest(t, s, http.MethodGet, "/api/session", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp sessionResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if !resp.Authenticated || resp.User == nil || resp.User.ID != "user1" {
			t.Errorf("unexpected session %+v", resp)
		}
	})

	t.Run("expired session hides the profile", func(t *testing.T) {
		sess := &stubSession{
			alive:   false,
			state:   auth.StateExpired,
			profile: &models.UserProfile{ID: "user1"},
		}
		s := NewServer(sess, &stubLibrary{}, nil)

		rec := doRequest(t, s, http.MethodGet, "/api/session", "")
		var resp sessionResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp.Authenticated || resp.User != nil {
			t.Errorf("unexpected session %+v", resp)
		}
		if resp.State != string(auth.StateExpired) {
			t.Errorf("expected expired state, got %q", resp.State)
		}
	})
}

func TestPlaylistsEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		lib := &stubLibrary{playlists: []models.PlaylistSummary{{ID: "pl1", Name: "Mix"}}}
		s := NewServer(&stubSession{}, lib, nil)

		rec := doRequest(t, s, http.MethodGet, "/api/playlists", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "pl1") {
			t.Error("playlist missing from response")
		}
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := []struct {
			name   string
			err    error
			status int
			kind   string
		}{
			{"unauthenticated", shared.ErrNotAuthenticated, http.StatusUnauthorized, "authentication"},
			{"not found", shared.ErrPlaylistNotFound, http.StatusNotFound, "not_found"},
			{"permission", shared.ErrPermissionDenied, http.StatusForbidden, "permission_denied"},
			{"bad shape", shared.ErrBadRequestShape, http.StatusBadRequest, "invalid_request"},
			{"upstream", shared.ErrAPIRequest, http.StatusBadGateway, "transient"},
			{"missing creds", shared.ErrMissingCredentials, http.StatusServiceUnavailable, "configuration"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				lib := &stubLibrary{playlistsErr: fmt.Errorf("wrapped: %w", tc.err)}
				s := NewServer(&stubSession{}, lib, nil)

				rec := doRequest(t, s, http.MethodGet, "/api/playlists", "")
				if rec.Code != tc.status {
					t.Errorf("expected %d, got %d", tc.status, rec.Code)
				}
				if kind := decodeErrorKind(t, rec); kind != tc.kind {
					t.Errorf("expected kind %q, got %q", tc.kind, kind)
				}
			})
		}
	})
}

func TestPlaylistTracksEndpoint(t *testing.T) {
	t.Run("passes total hint through", func(t *testing.T) {
		lib := &stubLibrary{tracks: []models.TrackRecord{{ID: "t1"}}}
		s := NewServer(&stubSession{}, lib, nil)

		rec := doRequest(t, s, http.MethodGet, "/api/playlists/pl1/tracks?total=42", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if lib.lastHint != 42 {
			t.Errorf("expected hint 42, got %d", lib.lastHint)
		}
		if len(lib.invalidated) != 0 {
			t.Error("plain fetch must not invalidate")
		}
	})

	t.Run("refresh invalidates first", func(t *testing.T) {
		lib := &stubLibrary{}
		s := NewServer(&stubSession{}, lib, nil)

		doRequest(t, s, http.MethodGet, "/api/playlists/pl1/tracks?total=10&refresh=1", "")
		if len(lib.invalidated) != 1 || lib.invalidated[0] != "pl1" {
			t.Errorf("expected pl1 invalidated, got %v", lib.invalidated)
		}
	})

	t.Run("non-integer total is rejected", func(t *testing.T) {
		s := NewServer(&stubSession{}, &stubLibrary{}, nil)

		rec := doRequest(t, s, http.MethodGet, "/api/playlists/pl1/tracks?total=lots", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAddTracksEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		lib := &stubLibrary{}
		s := NewServer(&stubSession{}, lib, nil)

		rec := doRequest(t, s, http.MethodPost, "/api/playlists/pl1/tracks", `{"uris":["spotify:track:a"]}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if len(lib.lastURIs) != 1 {
			t.Errorf("uris not passed through: %v", lib.lastURIs)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		s := NewServer(&stubSession{}, &stubLibrary{}, nil)
		rec := doRequest(t, s, http.MethodPost, "/api/playlists/pl1/tracks", `{not json`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("empty uris", func(t *testing.T) {
		s := NewServer(&stubSession{}, &stubLibrary{}, nil)
		rec := doRequest(t, s, http.MethodPost, "/api/playlists/pl1/tracks", `{"uris":[]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTrackFeaturesEndpoint(t *testing.T) {
	lib := &stubLibrary{features: models.FallbackFeatures()}
	s := NewServer(&stubSession{}, lib, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/tracks/t1/features", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var vector models.AudioFeatureVector
	json.NewDecoder(rec.Body).Decode(&vector)
	if !vector.Fallback || vector.Tempo != 120 {
		t.Errorf("unexpected vector %+v", vector)
	}
}

func TestSimilarArtistsEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		lib := &stubLibrary{related: &models.RelatedArtists{
			Artists: []models.SimilarArtist{{Name: "Thom Yorke", Match: 0.95}},
		}}
		s := NewServer(&stubSession{}, lib, nil)

		rec := doRequest(t, s, http.MethodGet, "/api/artists/similar?name=Radiohead&limit=3", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if lib.lastLimit != 3 {
			t.Errorf("expected limit 3, got %d", lib.lastLimit)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		s := NewServer(&stubSession{}, &stubLibrary{}, nil)
		rec := doRequest(t, s, http.MethodGet, "/api/artists/similar", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		s := NewServer(&stubSession{}, &stubLibrary{}, nil)
		for _, raw := range []string{"0", "-3", "many"} {
			rec := doRequest(t, s, http.MethodGet, "/api/artists/similar?name=X&limit="+raw, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit %q: expected 400, got %d", raw, rec.Code)
			}
		}
	})
}

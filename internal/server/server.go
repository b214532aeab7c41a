// package server contains the HTTP surface consumed by the browser UI
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rdelgatto/spindle/internal/auth"
	"github.com/rdelgatto/spindle/internal/models"
	"github.com/rdelgatto/spindle/internal/shared"
)

// Session defines the auth operations the HTTP layer consumes.
// Implemented by [auth.Manager].
type Session interface {
	Configured() bool
	AuthURL() (string, error)
	VerifyState(state string) bool
	Authenticate(ctx context.Context, code string) error
	CheckToken(ctx context.Context) bool
	Logout()
	Profile() *models.UserProfile
	State() auth.State
}

// Library defines the pipeline operations the HTTP layer consumes.
// Implemented by pipeline.Library.
type Library interface {
	FetchPlaylists(ctx context.Context) ([]models.PlaylistSummary, error)
	FetchTracks(ctx context.Context, playlistID string, totalHint int) ([]models.TrackRecord, error)
	Invalidate(playlistID string)
	TrackFeatures(ctx context.Context, trackID string) (*models.AudioFeatureVector, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) error
	RelatedArtists(ctx context.Context, primary string, displayLimit int) (*models.RelatedArtists, error)
}

// Server holds the dependencies for all HTTP handlers.
type Server struct {
	session Session
	library Library
	logger  *log.Logger
}

// NewServer creates a Server around a session manager and pipeline.
func NewServer(session Session, library Library, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Server{session: session, library: library, logger: shared.WithLogger(logger, "component", "server")}
}

// Router builds the chi router with middleware and all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/login", s.handleLogin)
	r.Get("/callback", s.handleCallback)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Get("/playlists", s.handlePlaylists)
		r.Get("/playlists/{id}/tracks", s.handlePlaylistTracks)
		r.Post("/playlists/{id}/tracks", s.handleAddTracks)
		r.Get("/tracks/{id}/features", s.handleTrackFeatures)
		r.Get("/artists/similar", s.handleSimilarArtists)
	})

	return r
}

// ListenAndServe runs the HTTP server until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requestLogger logs each request with a generated request ID.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := shared.GenerateID()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeError maps the shared error taxonomy onto HTTP statuses and a
// machine-readable kind, so the presentation layer can render each error
// class differently instead of collapsing everything to "no results".
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := "transient"
	status := http.StatusBadGateway

	switch {
	case errors.Is(err, shared.ErrMissingCredentials), errors.Is(err, shared.ErrMissingConfig), errors.Is(err, shared.ErrInvalidConfig):
		kind, status = "configuration", http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrAuthFailed),
		errors.Is(err, shared.ErrRefreshFailed), errors.Is(err, shared.ErrNoRefreshToken),
		errors.Is(err, shared.ErrTokenExpired):
		kind, status = "authentication", http.StatusUnauthorized
	case errors.Is(err, shared.ErrPermissionDenied):
		kind, status = "permission_denied", http.StatusForbidden
	case errors.Is(err, shared.ErrPlaylistNotFound), errors.Is(err, shared.ErrArtistNotFound):
		kind, status = "not_found", http.StatusNotFound
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrBadRequestShape):
		kind, status = "invalid_request", http.StatusBadRequest
	case errors.Is(err, shared.ErrServiceUnavailable):
		kind, status = "configuration", http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: fmt.Sprintf("%v", err)}})
}

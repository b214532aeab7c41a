package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rdelgatto/spindle/internal/models"
	"github.com/rdelgatto/spindle/internal/shared"
)

type sessionResponse struct {
	State         string              `json:"state"`
	Authenticated bool                `json:"authenticated"`
	User          *models.UserProfile `json:"user,omitempty"`
}

// handleSession reports the current session state. Calling it performs a
// liveness check, so an expired session is demoted before being reported.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ok := s.session.CheckToken(r.Context())
	resp := sessionResponse{
		State:         string(s.session.State()),
		Authenticated: ok,
	}
	if ok {
		resp.User = s.session.Profile()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.library.FetchPlaylists(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

func (s *Server) handlePlaylistTracks(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "id")

	totalHint := 0
	if raw := r.URL.Query().Get("total"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: total must be an integer", shared.ErrInvalidInput))
			return
		}
		totalHint = parsed
	}

	if r.URL.Query().Get("refresh") == "1" {
		s.library.Invalidate(playlistID)
	}

	tracks, err := s.library.FetchTracks(r.Context(), playlistID, totalHint)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks, "count": len(tracks)})
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

func (s *Server) handleAddTracks(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "id")

	var req addTracksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body", shared.ErrInvalidInput))
		return
	}
	if len(req.URIs) == 0 {
		s.writeError(w, fmt.Errorf("%w: uris", shared.ErrMissingArgument))
		return
	}

	if err := s.library.AddTracks(r.Context(), playlistID, req.URIs); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"added": len(req.URIs)})
}

func (s *Server) handleTrackFeatures(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "id")

	features, err := s.library.TrackFeatures(r.Context(), trackID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, features)
}

func (s *Server) handleSimilarArtists(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.writeError(w, fmt.Errorf("%w: name", shared.ErrMissingArgument))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, fmt.Errorf("%w: limit must be a positive integer", shared.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	related, err := s.library.RelatedArtists(r.Context(), name, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, related)
}

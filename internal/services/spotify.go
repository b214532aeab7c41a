// Spotify API implementation of [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rdelgatto/spindle/internal/models"
	"github.com/rdelgatto/spindle/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// playlistPageCeiling is the provider's page-size ceiling for playlist listings.
	playlistPageCeiling = 50

	// trackPageSize is the page size used by the track pagination loop.
	trackPageSize = 100

	// maxTrackPages caps the pagination loop so a provider returning
	// non-decreasing counts forever cannot spin it unbounded.
	maxTrackPages = 50

	defaultRequestTimeout = 15 * time.Second
)

// Field selections for playlist track pages. The rich set is requested
// first; the minimal set is the one-shot fallback when the provider
// rejects the rich shape.
const (
	richTrackFields    = "items(added_at,track(id,name,uri,duration_ms,external_urls,artists(id,name),album(name,images))),total"
	minimalTrackFields = "items(track(id,name,uri,duration_ms)),total"
)

type followers struct {
	Total int `json:"total"`
}

type spotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Followers   followers `json:"followers"`
}

type spotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

type spotifyPlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Owner       spotifyOwner      `json:"owner"`
	Public      bool              `json:"public"`
	Tracks      playlistTracksRef `json:"tracks"`
	Images      []models.Image    `json:"images"`
}

type paginatedPlaylists struct {
	Items  []spotifyPlaylist `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

// TrackArtist is an artist reference on a raw track payload.
type TrackArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TrackAlbum is an album reference on a raw track payload.
type TrackAlbum struct {
	Name   string         `json:"name"`
	Images []models.Image `json:"images"`
}

// TrackPayload is the raw track object inside a playlist item.
type TrackPayload struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	URI          string            `json:"uri"`
	DurationMS   int               `json:"duration_ms"`
	Artists      []TrackArtist     `json:"artists"`
	Album        TrackAlbum        `json:"album"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// PlaylistTrackItem is one raw entry in a playlist track page.
// Track is nil for removed or unavailable entries; normalization drops those.
type PlaylistTrackItem struct {
	AddedAt string        `json:"added_at"`
	Track   *TrackPayload `json:"track"`
}

type paginatedTracks struct {
	Items []PlaylistTrackItem `json:"items"`
	Total int                 `json:"total"`
}

type audioFeaturesPayload struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
}

type spotifyArtist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ExternalURLs map[string]string `json:"external_urls"`
	Images       []models.Image    `json:"images"`
}

type artistSearchResponse struct {
	Artists struct {
		Items []spotifyArtist `json:"items"`
	} `json:"artists"`
}

// SpotifyService implements [Catalog] over one authenticated session handle.
//
// The service itself is stateless; tokens come from the [TokenGetter] on
// every request so refreshes in the auth layer are picked up transparently.
type SpotifyService struct {
	tokens     TokenGetter
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

// NewSpotifyService creates a Spotify catalog client.
//
// The HTTP client defaults to one with a per-call timeout; the upstream
// sets none, so a slow provider would otherwise block a request forever.
func NewSpotifyService(tokens TokenGetter, httpClient *http.Client, logger *log.Logger) *SpotifyService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SpotifyService{
		tokens:     tokens,
		httpClient: httpClient,
		baseURL:    spotifyBaseURL,
		logger:     logger,
	}
}

// SetTokens installs the token source after construction. The auth
// manager needs [SpotifyService.ProbeProfile] at construction time and
// the service needs the manager for tokens, so one side is wired late.
func (s *SpotifyService) SetTokens(tokens TokenGetter) {
	s.tokens = tokens
}

// Name returns the provider name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated request against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.tokens == nil {
		return fmt.Errorf("%w: no token source configured", shared.ErrNotAuthenticated)
	}

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	return s.doRequestWithToken(ctx, token, method, endpoint, body, result)
}

// doRequestWithToken performs a request with an explicit bearer token.
// The auth layer uses this directly for liveness probes on freshly
// refreshed tokens.
func (s *SpotifyService) doRequestWithToken(ctx context.Context, token, method, endpoint string, body, result any) error {
	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// statusError maps provider status codes to the shared error taxonomy.
// The distinctions matter downstream: 400 drives the one-shot field-set
// fallback, 403 drives the audio-feature substitute vector.
func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusBadRequest:
		return fmt.Errorf("%w: status %d", shared.ErrBadRequestShape, code)
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", shared.ErrNotAuthenticated, code)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", shared.ErrPermissionDenied, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", shared.ErrPlaylistNotFound, code)
	default:
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, code)
	}
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	var user spotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &models.UserProfile{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// ProbeProfile fetches the profile with an explicit access token.
//
// Implements the auth manager's liveness probe without routing through the
// token getter, which would re-enter the manager mid-refresh.
func (s *SpotifyService) ProbeProfile(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	var user spotifyUser
	if err := s.doRequestWithToken(ctx, accessToken, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &models.UserProfile{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// ListPlaylists retrieves one page of the user's playlists.
//
// The limit is clamped to the provider's page-size ceiling.
func (s *SpotifyService) ListPlaylists(ctx context.Context, limit, offset int) ([]models.PlaylistSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > playlistPageCeiling {
		limit = playlistPageCeiling
	}
	if offset < 0 {
		offset = 0
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var page paginatedPlaylists
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}

	summaries := make([]models.PlaylistSummary, 0, len(page.Items))
	for _, pl := range page.Items {
		summaries = append(summaries, summarizePlaylist(pl))
	}

	return summaries, nil
}

// summarizePlaylist normalizes a raw playlist payload.
// Missing images default to an empty URL; a missing tracks object
// defaults the count to zero.
func summarizePlaylist(pl spotifyPlaylist) models.PlaylistSummary {
	summary := models.PlaylistSummary{
		ID:          pl.ID,
		Name:        pl.Name,
		Description: pl.Description,
		Owner:       pl.Owner.DisplayName,
		TrackCount:  pl.Tracks.Total,
		Public:      pl.Public,
	}
	if len(pl.Images) > 0 {
		summary.ImageURL = pl.Images[0].URL
	}
	return summary
}

// ListPlaylistTracks retrieves one page of playlist items.
//
// The rich field selection is requested first. Only a request-shape
// rejection (HTTP 400) triggers the one-shot minimal-field retry; auth
// expiry and transport errors propagate unretried.
func (s *SpotifyService) ListPlaylistTracks(ctx context.Context, playlistID string, limit, offset int) ([]PlaylistTrackItem, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = trackPageSize
	}
	if offset < 0 {
		offset = 0
	}

	page, err := s.fetchTrackPage(ctx, playlistID, limit, offset, richTrackFields)
	if errors.Is(err, shared.ErrBadRequestShape) {
		s.logger.Warn("rich field selection rejected, retrying with minimal fields", "playlist", playlistID)
		page, err = s.fetchTrackPage(ctx, playlistID, limit, offset, minimalTrackFields)
	}
	if err != nil {
		return nil, err
	}

	return page.Items, nil
}

func (s *SpotifyService) fetchTrackPage(ctx context.Context, playlistID string, limit, offset int, fields string) (*paginatedTracks, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d&fields=%s",
		url.PathEscape(playlistID), limit, offset, url.QueryEscape(fields))

	var page paginatedTracks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// ListAllPlaylistTracks drives the pagination loop over ListPlaylistTracks.
//
// The loop stops when totalHint items are fetched, a page comes back
// shorter than requested, or maxTrackPages is hit. A totalHint of zero or
// less performs no fetches at all.
func (s *SpotifyService) ListAllPlaylistTracks(ctx context.Context, playlistID string, totalHint int) ([]PlaylistTrackItem, error) {
	items := []PlaylistTrackItem{}
	if totalHint <= 0 {
		return items, nil
	}

	offset := 0
	for pages := 0; pages < maxTrackPages; pages++ {
		page, err := s.ListPlaylistTracks(ctx, playlistID, trackPageSize, offset)
		if err != nil {
			return nil, err
		}

		items = append(items, page...)

		if len(items) >= totalHint || len(page) < trackPageSize {
			break
		}
		offset += trackPageSize
	}

	return items, nil
}

// AudioFeatures fetches a track's audio-feature vector.
//
// A permission-denied response substitutes the fixed mid-range vector so
// the caller always has displayable numbers; the vector's Fallback field
// records the substitution. Other failures propagate.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackID string) (*models.AudioFeatureVector, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track ID", shared.ErrMissingArgument)
	}

	endpoint := "/audio-features/" + url.PathEscape(trackID)

	var payload audioFeaturesPayload
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		if errors.Is(err, shared.ErrPermissionDenied) {
			s.logger.Warn("audio features denied, substituting fallback vector", "track", trackID)
			return models.FallbackFeatures(), nil
		}
		return nil, err
	}

	return &models.AudioFeatureVector{
		Danceability:     payload.Danceability,
		Energy:           payload.Energy,
		Acousticness:     payload.Acousticness,
		Instrumentalness: payload.Instrumentalness,
		Liveness:         payload.Liveness,
		Valence:          payload.Valence,
		Speechiness:      payload.Speechiness,
		Tempo:            payload.Tempo,
	}, nil
}

// SearchArtist returns the top search hit for an artist name, or nil when
// the catalog has no match. Multiple same-named artists are not disambiguated.
func (s *SpotifyService) SearchArtist(ctx context.Context, name string) (*Artist, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=artist&limit=1", url.QueryEscape(name))

	var result artistSearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}

	if len(result.Artists.Items) == 0 {
		return nil, nil
	}

	hit := result.Artists.Items[0]
	artist := &Artist{
		ID:     hit.ID,
		Name:   hit.Name,
		URL:    hit.ExternalURLs["spotify"],
		Images: hit.Images,
	}
	if artist.Images == nil {
		artist.Images = []models.Image{}
	}

	return artist, nil
}

// AddTracks appends tracks to a playlist by URI. The provider treats the
// append as idempotent for duplicate URIs within a request.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}
	if len(uris) == 0 {
		return fmt.Errorf("%w: track URIs", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string][]string{"uris": uris}

	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

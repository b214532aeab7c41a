// Last.fm API implementation of [Recommender]
//
// Uses the artist.getSimilar method of the Last.fm 2.0 JSON API.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/rdelgatto/spindle/internal/models"
	"github.com/rdelgatto/spindle/internal/shared"
)

const lastfmBaseURL = "https://ws.audioscrobbler.com/2.0/"

// lastfmImage entries carry the URL under "#text".
type lastfmImage struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

type lastfmSimilarArtist struct {
	Name  string        `json:"name"`
	MBID  string        `json:"mbid"`
	Match string        `json:"match"`
	URL   string        `json:"url"`
	Image []lastfmImage `json:"image"`
}

type similarArtistsResponse struct {
	SimilarArtists struct {
		Artist []lastfmSimilarArtist `json:"artist"`
	} `json:"similarartists"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// LastFMService implements [Recommender] for the Last.fm API.
type LastFMService struct {
	apiKey       string
	sharedSecret string
	httpClient   *http.Client
	baseURL      string
	logger       *log.Logger
}

// NewLastFMService creates a Last.fm recommendation client.
//
// Missing credentials leave the service unconfigured rather than failing;
// the pipeline degrades to its static fallback in that case.
func NewLastFMService(apiKey, sharedSecret string, httpClient *http.Client, logger *log.Logger) *LastFMService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &LastFMService{
		apiKey:       apiKey,
		sharedSecret: sharedSecret,
		httpClient:   httpClient,
		baseURL:      lastfmBaseURL,
		logger:       logger,
	}
}

// Name returns the provider name.
func (l *LastFMService) Name() string {
	return "Last.fm"
}

// Configured reports whether API credentials are present.
func (l *LastFMService) Configured() bool {
	return l.apiKey != "" && l.sharedSecret != ""
}

// SimilarArtists returns up to limit artists similar to artistName,
// in the provider's ranking order.
//
// Match scores are clamped to [0,1] locally; the provider claims that
// range but it is not re-validated upstream.
func (l *LastFMService) SimilarArtists(ctx context.Context, artistName string, limit int) ([]models.SimilarArtist, error) {
	if !l.Configured() {
		return nil, fmt.Errorf("%w: Last.fm API key or shared secret", shared.ErrMissingCredentials)
	}
	if artistName == "" {
		return nil, fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("method", "artist.getsimilar")
	params.Set("artist", artistName)
	params.Set("api_key", l.apiKey)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("autocorrect", "1")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload similarArtistsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Last.fm reports API-level failures as 200 with an error envelope.
	if payload.Error != 0 {
		return nil, fmt.Errorf("%w: lastfm error %d: %s", shared.ErrAPIRequest, payload.Error, payload.Message)
	}

	artists := make([]models.SimilarArtist, 0, len(payload.SimilarArtists.Artist))
	for _, raw := range payload.SimilarArtists.Artist {
		artists = append(artists, models.SimilarArtist{
			ID:     raw.MBID,
			Name:   raw.Name,
			Match:  clampMatch(raw.Match),
			URL:    raw.URL,
			Images: convertLastFMImages(raw.Image),
		})
	}

	return artists, nil
}

// clampMatch parses the provider's string-encoded score and clamps it to [0,1].
// Unparseable scores become 0.
func clampMatch(raw string) float64 {
	match, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	if match < 0 {
		return 0
	}
	if match > 1 {
		return 1
	}
	return match
}

func convertLastFMImages(raw []lastfmImage) []models.Image {
	images := []models.Image{}
	for _, img := range raw {
		if img.URL == "" {
			continue
		}
		images = append(images, models.Image{URL: img.URL})
	}
	return images
}

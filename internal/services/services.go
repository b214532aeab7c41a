// package services defines clients for the upstream HTTP APIs
//
// Spotify (catalog), Last.fm (recommendations)
package services

import (
	"context"

	"github.com/rdelgatto/spindle/internal/models"
)

// Catalog defines the interface for the streaming-catalog provider (Spotify).
type Catalog interface {
	// CurrentUser retrieves the authenticated user's profile.
	// Also used by the auth layer as a session liveness probe.
	CurrentUser(ctx context.Context) (*models.UserProfile, error)

	// ListPlaylists fetches a single page of the user's playlists.
	ListPlaylists(ctx context.Context, limit, offset int) ([]models.PlaylistSummary, error)

	// ListPlaylistTracks fetches a single page of playlist items.
	// Items may lack a track payload; normalization happens downstream.
	ListPlaylistTracks(ctx context.Context, playlistID string, limit, offset int) ([]PlaylistTrackItem, error)

	// ListAllPlaylistTracks drives ListPlaylistTracks until totalHint items
	// are fetched, a short page arrives, or the page cap is reached.
	ListAllPlaylistTracks(ctx context.Context, playlistID string, totalHint int) ([]PlaylistTrackItem, error)

	// AudioFeatures fetches a track's feature vector. A permission-denied
	// response yields the fixed fallback vector instead of an error.
	AudioFeatures(ctx context.Context, trackID string) (*models.AudioFeatureVector, error)

	// SearchArtist returns the top artist search hit, or nil when no hit exists.
	SearchArtist(ctx context.Context, name string) (*Artist, error)

	// AddTracks appends tracks to a playlist by URI.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// Name returns the provider name (e.g. "Spotify")
	Name() string
}

// Recommender defines the interface for the tagging/recommendation provider (Last.fm).
type Recommender interface {
	// SimilarArtists returns a ranked list of artists similar to the named one.
	SimilarArtists(ctx context.Context, artistName string, limit int) ([]models.SimilarArtist, error)

	// Configured reports whether provider credentials are present.
	Configured() bool

	// Name returns the provider name (e.g. "Last.fm")
	Name() string
}

// TokenGetter supplies a live access token for catalog requests.
// The auth manager implements this, refreshing expired tokens as needed.
type TokenGetter interface {
	AccessToken(ctx context.Context) (string, error)
}

// Artist is a catalog artist search hit, used to cross-reference
// recommendation results against the catalog.
type Artist struct {
	ID     string
	Name   string
	URL    string
	Images []models.Image
}

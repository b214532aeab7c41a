// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"sync"

	"github.com/rdelgatto/spindle/internal/models"
	"github.com/rdelgatto/spindle/internal/services"
)

// MockCatalog is a configurable test double for [services.Catalog].
//
// Each method delegates to the corresponding Fn field when set and
// otherwise returns a zero value. Call counts are recorded per method.
type MockCatalog struct {
	mu    sync.Mutex
	calls map[string]int

	CurrentUserFn           func(ctx context.Context) (*models.UserProfile, error)
	ListPlaylistsFn         func(ctx context.Context, limit, offset int) ([]models.PlaylistSummary, error)
	ListPlaylistTracksFn    func(ctx context.Context, playlistID string, limit, offset int) ([]services.PlaylistTrackItem, error)
	ListAllPlaylistTracksFn func(ctx context.Context, playlistID string, totalHint int) ([]services.PlaylistTrackItem, error)
	AudioFeaturesFn         func(ctx context.Context, trackID string) (*models.AudioFeatureVector, error)
	SearchArtistFn          func(ctx context.Context, name string) (*services.Artist, error)
	AddTracksFn             func(ctx context.Context, playlistID string, uris []string) error
}

func (m *MockCatalog) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[method]++
}

// Calls returns the number of times the named method was invoked.
func (m *MockCatalog) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockCatalog) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	m.record("CurrentUser")
	if m.CurrentUserFn != nil {
		return m.CurrentUserFn(ctx)
	}
	return &models.UserProfile{ID: "mock_user", DisplayName: "Mock User"}, nil
}

func (m *MockCatalog) ListPlaylists(ctx context.Context, limit, offset int) ([]models.PlaylistSummary, error) {
	m.record("ListPlaylists")
	if m.ListPlaylistsFn != nil {
		return m.ListPlaylistsFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockCatalog) ListPlaylistTracks(ctx context.Context, playlistID string, limit, offset int) ([]services.PlaylistTrackItem, error) {
	m.record("ListPlaylistTracks")
	if m.ListPlaylistTracksFn != nil {
		return m.ListPlaylistTracksFn(ctx, playlistID, limit, offset)
	}
	return nil, nil
}

func (m *MockCatalog) ListAllPlaylistTracks(ctx context.Context, playlistID string, totalHint int) ([]services.PlaylistTrackItem, error) {
	m.record("ListAllPlaylistTracks")
	if m.ListAllPlaylistTracksFn != nil {
		return m.ListAllPlaylistTracksFn(ctx, playlistID, totalHint)
	}
	return nil, nil
}

func (m *MockCatalog) AudioFeatures(ctx context.Context, trackID string) (*models.AudioFeatureVector, error) {
	m.record("AudioFeatures")
	if m.AudioFeaturesFn != nil {
		return m.AudioFeaturesFn(ctx, trackID)
	}
	return models.FallbackFeatures(), nil
}

func (m *MockCatalog) SearchArtist(ctx context.Context, name string) (*services.Artist, error) {
	m.record("SearchArtist")
	if m.SearchArtistFn != nil {
		return m.SearchArtistFn(ctx, name)
	}
	return nil, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	m.record("AddTracks")
	if m.AddTracksFn != nil {
		return m.AddTracksFn(ctx, playlistID, uris)
	}
	return nil
}

func (m *MockCatalog) Name() string { return "mock" }

// MockRecommender is a configurable test double for [services.Recommender].
type MockRecommender struct {
	mu    sync.Mutex
	calls int

	SimilarArtistsFn func(ctx context.Context, artistName string, limit int) ([]models.SimilarArtist, error)
	ConfiguredValue  bool
}

func (m *MockRecommender) SimilarArtists(ctx context.Context, artistName string, limit int) ([]models.SimilarArtist, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.SimilarArtistsFn != nil {
		return m.SimilarArtistsFn(ctx, artistName, limit)
	}
	return nil, nil
}

func (m *MockRecommender) Configured() bool { return m.ConfiguredValue }

func (m *MockRecommender) Name() string { return "mock" }

// Calls returns the number of SimilarArtists invocations.
func (m *MockRecommender) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}


// package pipeline orchestrates fetch, normalization, and merge operations
// over the catalog and recommendation clients.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/rdelgatto/spindle/internal/models"
	"github.com/rdelgatto/spindle/internal/services"
	"github.com/rdelgatto/spindle/internal/shared"
)

const (
	// maxPlaylistPages caps the playlist listing loop.
	maxPlaylistPages = 20

	playlistPageSize = 50

	defaultRelatedLimit = 5
)

// fallbackArtists is the last-resort related-artists list, substituted
// only when the recommendation/catalog merge yields zero results or the
// recommender has no credentials. Results carrying it are flagged so the
// presentation layer can label them.
var fallbackArtists = []models.SimilarArtist{
	{Name: "Queen", URL: "https://www.last.fm/music/Queen", Images: []models.Image{}},
	{Name: "David Bowie", URL: "https://www.last.fm/music/David+Bowie", Images: []models.Image{}},
	{Name: "Radiohead", URL: "https://www.last.fm/music/Radiohead", Images: []models.Image{}},
	{Name: "Stevie Wonder", URL: "https://www.last.fm/music/Stevie+Wonder", Images: []models.Image{}},
	{Name: "Fleetwood Mac", URL: "https://www.last.fm/music/Fleetwood+Mac", Images: []models.Image{}},
}

// Library drives the fetch/normalize pipeline over one catalog client and
// one recommendation client, with a bounded cache of normalized track
// sequences.
type Library struct {
	catalog     services.Catalog
	recommender services.Recommender
	cache       *trackCache
	logger      *log.Logger

	flightMu sync.Mutex
	inflight map[string]chan struct{}
}

// NewLibrary creates a Library. cacheCapacity bounds the playlist track
// cache; zero or negative selects the default.
func NewLibrary(catalog services.Catalog, recommender services.Recommender, cacheCapacity int, logger *log.Logger) *Library {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Library{
		catalog:     catalog,
		recommender: recommender,
		cache:       newTrackCache(cacheCapacity),
		logger:      shared.WithLogger(logger, "component", "pipeline"),
		inflight:    make(map[string]chan struct{}),
	}
}

// FetchPlaylists retrieves all of the user's playlists as normalized
// summaries. Errors propagate so callers can distinguish an empty library
// from a broken fetch.
func (l *Library) FetchPlaylists(ctx context.Context) ([]models.PlaylistSummary, error) {
	if l.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrServiceUnavailable)
	}

	playlists := []models.PlaylistSummary{}
	offset := 0

	for pages := 0; pages < maxPlaylistPages; pages++ {
		page, err := l.catalog.ListPlaylists(ctx, playlistPageSize, offset)
		if err != nil {
			return nil, err
		}

		playlists = append(playlists, page...)

		if len(page) < playlistPageSize {
			break
		}
		offset += playlistPageSize
	}

	return playlists, nil
}

// FetchTracks returns the normalized track sequence for a playlist.
//
// A cache hit returns the stored sequence with zero upstream calls.
// Concurrent misses for the same playlist collapse into a single upstream
// fetch; followers wait for the leader and re-read the cache. Only a
// complete, successful fetch with a positive hint is cached; a failed,
// partial, or hint-less fetch leaves the cache untouched.
func (l *Library) FetchTracks(ctx context.Context, playlistID string, totalHint int) ([]models.TrackRecord, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}
	if l.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrServiceUnavailable)
	}

	for {
		if tracks, ok := l.cache.Get(playlistID); ok {
			return tracks, nil
		}

		l.flightMu.Lock()
		if ch, ok := l.inflight[playlistID]; ok {
			l.flightMu.Unlock()
			select {
			case <-ch:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			// Leader finished; re-read the cache. A leader failure leaves
			// the cache empty and this caller becomes the next leader.
			continue
		}

		ch := make(chan struct{})
		l.inflight[playlistID] = ch
		l.flightMu.Unlock()

		// A non-positive hint performs zero upstream fetches, so its empty
		// result is a no-op, not the playlist's real sequence. Caching it
		// would permanently shadow later calls with a correct hint.
		tracks, err := l.fetchTracks(ctx, playlistID, totalHint)
		if err == nil && totalHint > 0 {
			l.cache.Put(playlistID, tracks)
		}

		l.flightMu.Lock()
		delete(l.inflight, playlistID)
		close(ch)
		l.flightMu.Unlock()

		return tracks, err
	}
}

func (l *Library) fetchTracks(ctx context.Context, playlistID string, totalHint int) ([]models.TrackRecord, error) {
	items, err := l.catalog.ListAllPlaylistTracks(ctx, playlistID, totalHint)
	if err != nil {
		return nil, err
	}

	records := NormalizeTracks(items)
	if dropped := len(items) - len(records); dropped > 0 {
		l.logger.Debug("dropped payloadless playlist items", "playlist", playlistID, "dropped", dropped)
	}

	return records, nil
}

// Invalidate evicts one playlist's cached tracks. The refresh action in
// the presentation layer calls this before refetching.
func (l *Library) Invalidate(playlistID string) {
	l.cache.Invalidate(playlistID)
}

// TrackFeatures fetches a track's audio-feature vector through the catalog.
func (l *Library) TrackFeatures(ctx context.Context, trackID string) (*models.AudioFeatureVector, error) {
	if l.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrServiceUnavailable)
	}
	return l.catalog.AudioFeatures(ctx, trackID)
}

// AddTracks appends tracks to a playlist and invalidates its cached sequence.
func (l *Library) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if l.catalog == nil {
		return fmt.Errorf("%w: catalog client not initialized", shared.ErrServiceUnavailable)
	}

	if err := l.catalog.AddTracks(ctx, playlistID, uris); err != nil {
		return err
	}

	l.cache.Invalidate(playlistID)
	return nil
}

// RelatedArtists builds the related-artists view for a primary artist.
//
// The recommender is over-fetched at twice the display limit to survive
// catalog misses. Each candidate is cross-referenced against the catalog's
// artist search by exact name; candidates without a catalog hit are
// dropped. The first displayLimit matches are kept in the recommender's
// ranking order. Zero matches, or a recommender without credentials,
// substitutes the static fallback list with its provenance flag set.
func (l *Library) RelatedArtists(ctx context.Context, primary string, displayLimit int) (*models.RelatedArtists, error) {
	if primary == "" {
		return nil, fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}
	if displayLimit <= 0 {
		displayLimit = defaultRelatedLimit
	}

	if l.recommender == nil || !l.recommender.Configured() {
		l.logger.Warn("recommendation service not configured, using fallback artists")
		return fallbackResult(displayLimit), nil
	}

	candidates, err := l.recommender.SimilarArtists(ctx, primary, 2*displayLimit)
	if err != nil {
		return nil, err
	}

	matched := make([]models.SimilarArtist, 0, displayLimit)
	for _, candidate := range candidates {
		if len(matched) == displayLimit {
			break
		}

		hit, err := l.catalog.SearchArtist(ctx, candidate.Name)
		if err != nil {
			l.logger.Warn("artist cross-reference failed", "artist", candidate.Name, "err", err)
			continue
		}
		// The merge is keyed by exact name: a fuzzy top hit for some other
		// artist must not be adopted. Case is the only tolerated variance.
		if hit == nil || !strings.EqualFold(hit.Name, candidate.Name) {
			continue
		}

		merged := candidate
		merged.ID = hit.ID
		merged.Images = hit.Images
		if merged.URL == "" {
			merged.URL = hit.URL
		}
		matched = append(matched, merged)
	}

	if len(matched) == 0 {
		l.logger.Warn("related-artists merge produced no catalog matches, using fallback artists", "artist", primary)
		return fallbackResult(displayLimit), nil
	}

	return &models.RelatedArtists{Artists: matched}, nil
}

func fallbackResult(limit int) *models.RelatedArtists {
	artists := fallbackArtists
	if limit < len(artists) {
		artists = artists[:limit]
	}

	out := make([]models.SimilarArtist, len(artists))
	copy(out, artists)

	return &models.RelatedArtists{Artists: out, Fallback: true}
}

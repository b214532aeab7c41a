package pipeline

import (
	"github.com/rdelgatto/spindle/internal/models"
	"github.com/rdelgatto/spindle/internal/services"
)

const trackURLPrefix = "https://open.spotify.com/track/"

// NormalizeTracks converts raw playlist items into presentation-ready
// records. Items with no track payload at all are dropped; every record
// that survives has non-nil artists, non-nil album images, and an
// external URL (synthesized from the track ID when the provider omits it).
func NormalizeTracks(items []services.PlaylistTrackItem) []models.TrackRecord {
	records := make([]models.TrackRecord, 0, len(items))
	for _, item := range items {
		if item.Track == nil {
			continue
		}
		records = append(records, normalizeTrack(item.Track))
	}
	return records
}

func normalizeTrack(raw *services.TrackPayload) models.TrackRecord {
	artists := make([]models.ArtistRef, 0, len(raw.Artists))
	for _, a := range raw.Artists {
		artists = append(artists, models.ArtistRef{ID: a.ID, Name: a.Name})
	}

	images := raw.Album.Images
	if images == nil {
		images = []models.Image{}
	}

	external := raw.ExternalURLs["spotify"]
	if external == "" && raw.ID != "" {
		external = trackURLPrefix + raw.ID
	}

	return models.TrackRecord{
		ID:          raw.ID,
		Name:        raw.Name,
		URI:         raw.URI,
		DurationMS:  raw.DurationMS,
		Artists:     artists,
		Album:       models.AlbumRef{Name: raw.Album.Name, Images: images},
		ExternalURL: external,
	}
}

// package models defines the data model for the playlist browser service
package models

// UserProfile is a read-only snapshot of the authenticated user,
// fetched once per successful authentication or refresh.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Image represents an image resource from either provider.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// PlaylistSummary represents one playlist in the user's library.
//
// Missing images default to an empty ImageURL and missing track payloads
// default TrackCount to 0; construction never fails on partial payloads.
type PlaylistSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner"`
	ImageURL    string `json:"image_url,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// ArtistRef is a lightweight artist reference on a track.
type ArtistRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// AlbumRef is a lightweight album reference on a track.
type AlbumRef struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// TrackRecord represents one playlist track after normalization.
//
// Invariants: Artists and Album.Images are never nil (possibly empty),
// and ExternalURL is synthesized from the track ID when the provider
// omits it. Raw items with no track payload at all are dropped before a
// TrackRecord is ever built.
type TrackRecord struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	URI         string      `json:"uri"`
	DurationMS  int         `json:"duration_ms"`
	Artists     []ArtistRef `json:"artists"`
	Album       AlbumRef    `json:"album"`
	ExternalURL string      `json:"external_url"`
}

// AudioFeatureVector holds a track's audio features.
//
// All fields are in [0,1] except Tempo (BPM). Fallback marks the fixed
// mid-range vector substituted on a permission-denied response, so
// consumers can distinguish real data from the placeholder.
type AudioFeatureVector struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
	Fallback         bool    `json:"fallback,omitempty"`
}

// FallbackFeatures returns the fixed mid-range vector substituted when
// the provider denies access to a track's audio features.
func FallbackFeatures() *AudioFeatureVector {
	return &AudioFeatureVector{
		Danceability:     0.5,
		Energy:           0.5,
		Acousticness:     0.5,
		Instrumentalness: 0.5,
		Liveness:         0.5,
		Valence:          0.5,
		Speechiness:      0.5,
		Tempo:            120,
		Fallback:         true,
	}
}

// SimilarArtist is one entry in a related-artists view.
//
// Match is the recommendation provider's similarity score, clamped to
// [0,1]. ID and Images come from cross-referencing the catalog's artist
// search; ID may be empty for fallback entries.
type SimilarArtist struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Match  float64 `json:"match"`
	URL    string  `json:"url,omitempty"`
	Images []Image `json:"images"`
}

// RelatedArtists is the merged related-artists result.
//
// Fallback is true when the static last-resort list was substituted
// because the merge produced zero catalog matches.
type RelatedArtists struct {
	Artists  []SimilarArtist `json:"artists"`
	Fallback bool            `json:"fallback"`
}

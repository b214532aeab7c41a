// Package pipeline implements the fetch/normalize layer between the API
// clients and the presentation surface.
//
// # Core Operations
//
// [Library] exposes four operations:
//
//  1. [Library.FetchPlaylists] : paginated playlist listing with defaulted fields
//  2. [Library.FetchTracks] : cached, single-flight track fetching with normalization
//  3. [Library.TrackFeatures] : audio-feature passthrough (fallback vector on denial)
//  4. [Library.RelatedArtists] : recommendation/catalog merge with static fallback
//
// # Caching
//
// Track sequences cache in a bounded LRU keyed by playlist ID. Entries
// live for the process lifetime or until evicted by capacity or the
// explicit [Library.Invalidate] hook. Concurrent fetches of the same
// uncached playlist collapse into one upstream fetch; failures are never
// cached.
//
// # Normalization
//
// [NormalizeTracks] drops raw items lacking a track payload and repairs
// the survivors: artists and album images are never nil, and a missing
// external URL is synthesized from the track ID. Empty results and failed
// fetches stay distinguishable: errors propagate instead of collapsing
// to empty lists.
package pipeline

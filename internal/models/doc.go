// Package models defines the normalized domain records served to the presentation layer.
//
// The package contains two categories of types:
//
// 1. Catalog records: normalized views of Spotify API payloads
//   - [PlaylistSummary] : playlist metadata with defaulted image/track fields
//   - [TrackRecord] : track metadata with repaired artist/album/url fields
//   - [AudioFeatureVector] : per-track feature numbers with fallback provenance
//   - [UserProfile] : authenticated user snapshot
//
// 2. Recommendation records: merged Last.fm + Spotify search results
//   - [SimilarArtist] : one ranked similar-artist entry
//   - [RelatedArtists] : the merged view with a static-fallback provenance flag
//
// Every record handed out of the pipeline satisfies the normalization
// invariants documented on each type; consumers never receive nil slices
// for artists or images.
package models

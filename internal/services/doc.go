// Package services defines the [Catalog] and [Recommender] interfaces for the
// two upstream providers and implements them for Spotify and Last.fm.
//
// # Catalog Implementation
//
// [SpotifyService] is a stateless façade over one authenticated session: every
// request pulls a live access token from the [TokenGetter], so refreshes in
// the auth layer apply transparently.
//
// Playlist track pages use a two-tier field-selection strategy. The rich field
// set is requested first; if the provider rejects that shape with HTTP 400,
// the page is re-requested once with a minimal field set. The retry is scoped
// to request-shape rejections only; an expired session or transport failure
// propagates instead of being masked by the fallback.
//
// Pagination over a playlist's tracks runs a linear offset loop bounded by
// the caller's total hint, a short-page stop, and a hard page cap.
//
// # Recommender Implementation
//
// [LastFMService] wraps artist.getSimilar. Match scores arrive string-encoded
// and are clamped to [0,1] locally. A service constructed without credentials
// stays usable but reports itself unconfigured, which the pipeline maps to
// its static related-artists fallback.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no usable session (HTTP 401)
//   - [shared.ErrPermissionDenied] : HTTP 403; audio features substitute a fallback vector
//   - [shared.ErrBadRequestShape] : HTTP 400; drives the field-set retry
//   - [shared.ErrPlaylistNotFound] : HTTP 404
//   - [shared.ErrAPIRequest] : any other transport or provider failure
package services

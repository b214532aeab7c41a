// Package server exposes the browsing pipeline and OAuth flow over HTTP.
//
// The OAuth routes (/login, /callback, /logout) drive the Spotify
// authorization code flow and render static pages, since the browser is
// redirected to them directly. Everything under /api speaks JSON and maps
// the shared error taxonomy onto HTTP statuses, with a machine-readable
// "kind" in each error body.
package server

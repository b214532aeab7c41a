package server

import (
	"fmt"
	"net/http"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <style>
        body { font-family: -apple-system, sans-serif; display: flex; align-items: center; justify-content: center; height: 100vh; margin: 0; background: #121212; color: #fff; }
        .card { text-align: center; padding: 2rem 3rem; background: #1e1e1e; border-radius: 8px; }
        h1 { color: %s; margin-bottom: 0.5rem; }
        p { color: #b3b3b3; }
    </style>
</head>
<body>
    <div class="card">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`

const (
	spotifyGreen = "#1DB954"
	errorRed     = "#e22134"
)

// handleLogin redirects the browser to the Spotify consent screen.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	url, err := s.session.AuthURL()
	if err != nil {
		s.writeError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// handleCallback completes the authorization code exchange. It always
// renders a static page, since the browser lands here directly.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		s.writePage(w, http.StatusBadRequest, errorRed, "No Code Received",
			"Spotify did not return an authorization code. Close this window and try again.")
		return
	}

	if !s.session.VerifyState(r.URL.Query().Get("state")) {
		s.logger.Warn("callback state mismatch")
		s.writePage(w, http.StatusUnauthorized, errorRed, "Authorization Failed",
			"The authorization state did not match. Close this window and try again.")
		return
	}

	if err := s.session.Authenticate(r.Context(), code); err != nil {
		s.logger.Error("authorization failed", "err", err)
		s.writePage(w, http.StatusUnauthorized, errorRed, "Authorization Failed",
			"The authorization code could not be exchanged. Close this window and try again.")
		return
	}

	name := "there"
	if profile := s.session.Profile(); profile != nil && profile.DisplayName != "" {
		name = profile.DisplayName
	}
	s.writePage(w, http.StatusOK, spotifyGreen, "You're In!",
		"Hi "+name+", authorization succeeded. You can close this window and return to the app.")
}

// handleLogout discards the session. Idempotent.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.session.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func renderPage(accent, title, message string) string {
	return fmt.Sprintf(pageTemplate, title, accent, title, message)
}

func (s *Server) writePage(w http.ResponseWriter, status int, accent, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := renderPage(accent, title, message)
	if _, err := w.Write([]byte(page)); err != nil {
		s.logger.Error("failed to write page", "err", err)
	}
}

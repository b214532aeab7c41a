package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rdelgatto/spindle/internal/auth"
	"github.com/rdelgatto/spindle/internal/server"
	"github.com/rdelgatto/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization flow.
//
// Starts a local HTTP server for the redirect, opens the browser for user
// consent, and waits until the callback completes the code exchange.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.doOAuth(ctx); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	if profile := r.session.Profile(); profile != nil {
		r.writePlain("✓ Signed in as %s\n", profile.DisplayName)
	}
	return nil
}

// AuthURL prints the authorization URL without starting a server.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	url, err := r.session.AuthURL()
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", url)
}

// AuthStatus reports the current session state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	alive := r.session.CheckToken(ctx)
	state := r.session.State()

	if alive {
		if profile := r.session.Profile(); profile != nil {
			return r.writePlain("authenticated as %s (%s)\n", profile.DisplayName, profile.ID)
		}
		return r.writePlain("authenticated\n")
	}
	return r.writePlain("not authenticated (state: %s)\n", state)
}

// AuthLogout discards the current session. Idempotent.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.session.Logout()
	return r.writePlain("logged out\n")
}

// doOAuth runs the redirect server and blocks until the session is
// authenticated or the login window times out.
func (r *Runner) doOAuth(ctx context.Context) error {
	if !r.session.Configured() {
		return fmt.Errorf("%w: set Spotify client_id and client_secret in config.toml or the environment", shared.ErrMissingCredentials)
	}

	url, err := r.session.AuthURL()
	if err != nil {
		return err
	}

	srv := server.NewServer(r.session, r.library, r.logger)
	httpSrv := &http.Server{Addr: r.addr(), Handler: srv.Router()}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	if err := shared.OpenBrowser(url); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL in your browser:\n%s\n", url)
	}

	deadline := time.NewTimer(loginTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return fmt.Errorf("redirect server failed: %w", err)
		case <-deadline.C:
			return fmt.Errorf("%w: authorization timed out after %v", shared.ErrAuthFailed, loginTimeout)
		case <-ticker.C:
			if r.session.State() == auth.StateAuthenticated {
				return nil
			}
		}
	}
}

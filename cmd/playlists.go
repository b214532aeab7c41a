package main

import (
	"context"
	"fmt"

	"github.com/rdelgatto/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

// ensureSession makes sure a live session exists, running the OAuth flow
// inline when it does not.
func (r *Runner) ensureSession(ctx context.Context) error {
	if r.session.CheckToken(ctx) {
		return nil
	}

	r.logger.Info("no live session, starting authorization")
	return r.doOAuth(ctx)
}

// PlaylistsList lists the current user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	playlists, err := r.library.FetchPlaylists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainln("Found %d playlists", len(playlists))
	for _, p := range playlists {
		visibility := "private"
		if p.Public {
			visibility = "public"
		}
		r.writePlain("  %s  %s (%d tracks, %s)\n", p.ID, p.Name, p.TrackCount, visibility)
	}
	return nil
}

// PlaylistTracks lists the tracks of one playlist.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	if cmd.Bool("refresh") {
		r.library.Invalidate(playlistID)
	}

	tracks, err := r.library.FetchTracks(ctx, playlistID, int(cmd.Int("total")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainln("%d tracks", len(tracks))
	for _, t := range tracks {
		artist := ""
		if len(t.Artists) > 0 {
			artist = t.Artists[0].Name
		}
		r.writePlain("  %s — %s\n", artist, t.Name)
	}
	return nil
}

// PlaylistAdd appends tracks to a playlist by URI.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	uris := cmd.StringSlice("uri")

	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	if err := r.library.AddTracks(ctx, playlistID, uris); err != nil {
		return err
	}

	r.writePlainln("✓ Added %d tracks to %s", len(uris), playlistID)
	return nil
}

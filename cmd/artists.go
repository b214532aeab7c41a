package main

import (
	"context"
	"fmt"

	"github.com/rdelgatto/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

// ArtistsSimilar finds artists similar to a seed artist.
func (r *Runner) ArtistsSimilar(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}

	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	related, err := r.library.RelatedArtists(ctx, name, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(related, cmd.Bool("pretty"))
	}

	if related.Fallback {
		r.writePlainln("No matches found, showing fallback artists:")
	} else {
		r.writePlainln("Artists similar to %s:", name)
	}
	for _, a := range related.Artists {
		r.writePlain("  %s (match %.2f) %s\n", a.Name, a.Match, a.URL)
	}
	return nil
}

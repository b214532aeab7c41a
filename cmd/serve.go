package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rdelgatto/spindle/internal/server"
	"github.com/rdelgatto/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		r.config.Server.Port = int(port)
	}

	srv := server.NewServer(r.session, r.library, r.logger)
	addr := r.addr()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cmd.Bool("open") {
		url := fmt.Sprintf("http://%s/login", addr)
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "url", url, "error", err)
		}
	}

	return srv.ListenAndServe(ctx, addr)
}

// Setup creates a config file from the embedded template.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.writePlainln("✓ Config file created at %s", configPath)
	r.writePlain("Fill in your Spotify and Last.fm credentials, then run: spindle serve\n")
	return nil
}

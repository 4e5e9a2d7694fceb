package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/mixtape/internal/server"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web UI until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Addr()
	}

	handler := web.NewHandler(web.Opts{
		Recommender: r.recommender,
		Suggestions: r.config.Suggestions,
		Logger:      shared.WithLogger(r.logger, "component", "web"),
	})

	ready := make(chan string, 1)
	go func() {
		select {
		case bound := <-ready:
			url := "http://" + bound
			r.logger.Info("web UI ready", "url", url)
			if cmd.Bool("open") {
				if err := shared.OpenBrowser(url); err != nil {
					r.logger.Warn("could not open browser", "error", err)
				}
			}
		case <-ctx.Done():
		}
	}()

	return server.Run(ctx, addr, web.NewRouter(handler), r.logger, ready)
}

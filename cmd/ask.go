package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/mixtape/internal/controller"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// Ask submits the joined arguments as one prompt and prints or saves the resulting playlist.
func (r *Runner) Ask(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	c := controller.New(controller.Opts{
		Recommender: r.recommender,
		Renderer: controller.RendererFunc(func(s controller.Screen) {
			r.logger.Debug("screen changed", "state", s.State, "prompt", s.Prompt)
		}),
		Logger: r.logger,
	})

	prompt := strings.Join(cmd.Args().Slice(), " ")
	if err := c.Submit(ctx, prompt); err != nil {
		if errors.Is(err, shared.ErrEmptyPrompt) {
			return fmt.Errorf("%w: %w", shared.ErrMissingArgument, err)
		}
		r.logger.Debug("recommendation failed", "error", err)
		return fmt.Errorf("%s: %w", services.UserMessage(err), err)
	}

	screen := c.Snapshot()
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(screen.View, format, path); err != nil {
			return err
		}
		r.logger.Info("playlist saved", "path", path, "songs", len(screen.View.Rows))
		return nil
	}

	out, err := formatter.Render(screen.View, format, 0)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Batch runs every prompt in --file and exports one playlist per prompt plus a manifest.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if cmd.Int("workers") < 0 {
		return fmt.Errorf("%w: --workers must not be negative", shared.ErrInvalidFlag)
	}
	if cmd.Float("rate") < 0 {
		return fmt.Errorf("%w: --rate must not be negative", shared.ErrInvalidFlag)
	}

	prompts, err := r.readPrompts(cmd.String("file"))
	if err != nil {
		return err
	}

	name := cmd.String("format")
	if name == "" {
		name = r.config.Batch.Format
	}
	format, err := formatter.ParseFormat(name)
	if err != nil {
		return err
	}

	opts := tasks.BatchOpts{
		Format:     format,
		OutputDir:  cmd.String("out"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	}
	if opts.OutputDir == "" {
		opts.OutputDir = r.config.Batch.OutputDir
	}
	if opts.NumWorkers == 0 {
		opts.NumWorkers = r.config.Batch.Workers
	}

	engine := tasks.NewBatchEngine(r.recommender, r.logger)
	progress := make(chan tasks.ProgressUpdate, 16)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := engine.BatchAsk(ctx, progress, prompts, opts)
	close(progress)
	wg.Wait()

	if result != nil {
		r.writePlainHeader("Batch Summary")
		r.writePlain("Run:        %s\n", result.RunID)
		r.writePlain("Prompts:    %d\n", result.TotalPrompts)
		r.writePlain("Successful: %d\n", result.Successful)
		r.writePlain("Failed:     %d\n", result.Failed)
		r.writePlain("Output:     %s\n", result.OutputDirectory)
		if result.ManifestPath != "" {
			r.writePlain("Manifest:   %s\n", result.ManifestPath)
		}
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  ✗ %d. %s: %s\n", res.Index, res.Prompt, res.Error)
			}
		}
	}
	return err
}

func (r *Runner) readPrompts(path string) ([]string, error) {
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open prompt file: %w", err)
		}
		defer f.Close()
		in = f
	}
	return tasks.ReadPrompts(in)
}

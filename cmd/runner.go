package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	recommender services.Recommender
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config and Recommender are normally resolved from flags before each command; setting them here skips that step.
type RunnerOpts struct {
	Config      *shared.Config
	Recommender services.Recommender
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:      opts.Config,
		recommender: opts.Recommender,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
	}
}

// prepare runs before every command: it applies --debug, resolves the configuration and builds the
// recommendation client unless they were injected.
func (r *Runner) prepare(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.config == nil {
		config, err := shared.ResolveConfig(cmd.String("config"))
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	if endpoint := cmd.String("endpoint"); endpoint != "" {
		r.config.Service.Endpoint = endpoint
		if err := r.config.Validate(); err != nil {
			return ctx, fmt.Errorf("%w: --endpoint", err)
		}
	}

	if r.recommender == nil {
		r.recommender = r.newService()
	}
	r.logger.Debug("configuration resolved", "endpoint", r.config.Service.Endpoint, "timeout", r.config.Service.Timeout)
	return ctx, nil
}

func (r *Runner) newService() *services.RecommendationService {
	if r.httpClient == nil {
		return services.NewFromConfig(r.config, r.logger)
	}
	return services.NewRecommendationService(services.RecommendationOpts{
		Endpoint:   r.config.Service.Endpoint,
		HTTPClient: r.httpClient,
		RateLimit:  r.config.Service.RateLimit,
		Logger:     r.logger,
	})
}

// SetLogger replaces the logger, including the one used by a service built later.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

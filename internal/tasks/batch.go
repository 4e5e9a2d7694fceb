package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/desertthunder/mixtape/internal/controller"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultWorkers   = 3
	MaxWorkers       = 10
	DefaultRateLimit = 2.0
	ManifestFile     = "manifest.json"
)

// BatchOpts contains configuration for batch runs.
type BatchOpts struct {
	Format     formatter.Format // Output format (default: markdown)
	OutputDir  string           // Output directory (default: mixtape_batch_{epoch})
	NumWorkers int              // Concurrent workers (default: 3, max: 10)
	RateLimit  float64          // Requests per second across all workers (default: 2)
}

// PromptResult is the outcome of one prompt.
type PromptResult struct {
	Index   int    `json:"index"`
	Prompt  string `json:"prompt"`
	Success bool   `json:"success"`
	File    string `json:"file,omitempty"`
	Songs   int    `json:"songs"`
	Error   string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

// BatchResult summarises a batch run. It is also the manifest written to the output directory.
type BatchResult struct {
	RunID           string         `json:"run_id"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	Format          string         `json:"format"`
	TotalPrompts    int            `json:"total_prompts"`
	Successful      int            `json:"successful"`
	Failed          int            `json:"failed"`
	OutputDirectory string         `json:"output_directory"`
	ManifestPath    string         `json:"-"`
	Results         []PromptResult `json:"results"`
}

type promptJob struct {
	index  int
	prompt string
}

// BatchAsk sends every prompt through its own controller using a rate limited worker pool and writes each
// playlist to the output directory.
//
// Individual failures are recorded in the result rather than aborting the run. Cancelling ctx stops
// queueing new prompts; the partial result and manifest are still produced and ctx's error is returned.
func (e *BatchEngine) BatchAsk(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	prompts []string,
	opts BatchOpts,
) (*BatchResult, error) {
	if e.recommender == nil {
		return nil, fmt.Errorf("%w: recommendation service not initialized", shared.ErrMissingConfig)
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("%w: no prompts to run", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.Markdown
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("mixtape_batch_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultWorkers
	}
	if opts.NumWorkers > MaxWorkers {
		opts.NumWorkers = MaxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BatchResult{
		RunID:           shared.GenerateID(),
		StartedAt:       time.Now().UTC(),
		Format:          string(opts.Format),
		TotalPrompts:    len(prompts),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PromptResult, 0, len(prompts)),
	}
	e.logger.Info("batch started", "run_id", result.RunID, "prompts", len(prompts), "workers", opts.NumWorkers)

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan promptJob, len(prompts))
	results := make(chan PromptResult, len(prompts))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.batchWorker(ctx, &wg, jobs, results, opts, len(prompts))
	}

	go func() {
		defer close(jobs)
		e.sendProgress(prog, queuedUpdate(len(prompts), opts.NumWorkers))
		for i, prompt := range prompts {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- promptJob{index: i + 1, prompt: prompt}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			e.sendProgress(prog, promptCompletedUpdate(completed, len(prompts), res))
		} else {
			result.Failed++
			e.sendProgress(prog, promptFailedUpdate(completed, len(prompts), res))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Index < result.Results[j].Index
	})
	result.FinishedAt = time.Now().UTC()

	manifestPath := filepath.Join(opts.OutputDir, ManifestFile)
	e.sendProgress(prog, manifestUpdate(manifestPath))
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("batch finished", "run_id", result.RunID, "successful", result.Successful, "failed", result.Failed)
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("batch interrupted after %d of %d prompts: %w", completed, len(prompts), err)
	}
	return result, nil
}

// batchWorker processes prompts from the jobs channel until it is closed or ctx is done.
func (e *BatchEngine) batchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan promptJob,
	results chan<- PromptResult,
	opts BatchOpts,
	total int,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.runPrompt(ctx, job, opts, total)
	}
}

// runPrompt drives a fresh controller for job and writes the resulting playlist.
func (e *BatchEngine) runPrompt(ctx context.Context, job promptJob, opts BatchOpts, total int) PromptResult {
	res := PromptResult{Index: job.index, Prompt: job.prompt}

	c := controller.New(controller.Opts{Recommender: e.recommender, Logger: e.logger})
	if err := c.Submit(ctx, job.prompt); err != nil {
		res.Err = err
		res.Error = failureMessage(err)
		e.logger.Warn("prompt failed", "index", job.index, "prompt", job.prompt, "error", err)
		return res
	}

	view := c.Snapshot().View
	path := filepath.Join(opts.OutputDir, OutputName(job.index, total, job.prompt, opts.Format))
	if err := formatter.WriteFile(view, opts.Format, path); err != nil {
		res.Err = err
		res.Error = err.Error()
		return res
	}

	res.Success = true
	res.File = path
	res.Songs = view.SongCount
	return res
}

// OutputName builds the file name for the index-th of total prompts, e.g. "03_late-night-drive.md".
//
// The index is zero padded to at least two digits and to the width of total.
func OutputName(index, total int, prompt string, format formatter.Format) string {
	width := max(2, len(strconv.Itoa(total)))
	return fmt.Sprintf("%0*d_%s.%s", width, index, Slug(prompt), format.Extension())
}

// failureMessage prefers the message a user would see, falling back to the raw error for local failures.
func failureMessage(err error) string {
	if services.IsServiceError(err) || services.IsTransportError(err) {
		return services.UserMessage(err)
	}
	return err.Error()
}

func writeManifest(result *BatchResult, path string) error {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

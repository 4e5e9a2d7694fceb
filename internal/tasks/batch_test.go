package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	tu "github.com/desertthunder/mixtape/internal/testing"
)

func TestBatchAsk(t *testing.T) {
	fastOpts := func(dir string, format formatter.Format) BatchOpts {
		return BatchOpts{Format: format, OutputDir: dir, NumWorkers: 3, RateLimit: 1000}
	}

	t.Run("Writes One File Per Prompt And A Manifest", func(t *testing.T) {
		tests := []struct {
			name   string
			format formatter.Format
			check  string
		}{
			{name: "markdown", format: formatter.Markdown, check: "| 1 | Snowman | WYS | 100% |"},
			{name: "csv", format: formatter.CSV, check: "1,Snowman,WYS,10,100"},
			{name: "json", format: formatter.JSON, check: `"title": "Chill Study Vibes"`},
			{name: "text", format: formatter.Text, check: "1. Snowman - WYS"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				dir := t.TempDir()
				engine := NewBatchEngine(&tu.MockRecommender{}, nil)

				result, err := engine.BatchAsk(context.Background(), nil, []string{"chill study vibes", "late night drive"}, fastOpts(dir, tt.format))
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}

				if result.Successful != 2 || result.Failed != 0 || result.TotalPrompts != 2 {
					t.Errorf("unexpected counts %+v", result)
				}

				first := filepath.Join(dir, "01_chill-study-vibes."+tt.format.Extension())
				tu.AssertFileExists(t, first)
				tu.AssertFileExists(t, filepath.Join(dir, "02_late-night-drive."+tt.format.Extension()))
				if content := tu.MustReadFile(t, first); !strings.Contains(content, tt.check) {
					t.Errorf("expected %q in %s:\n%s", tt.check, first, content)
				}

				tu.AssertFileExists(t, result.ManifestPath)
			})
		}
	})

	t.Run("Records Failures In Manifest", func(t *testing.T) {
		dir := t.TempDir()
		mock := &tu.MockRecommender{
			RecommendFn: func(ctx context.Context, prompt string) (*models.Recommendation, error) {
				if strings.Contains(prompt, "nothing") {
					return nil, &services.ServiceError{StatusCode: 200, Message: "no match"}
				}
				return tu.Recommendation(prompt), nil
			},
		}
		engine := NewBatchEngine(mock, nil)

		prompts := []string{"chill study vibes", "nothing at all", "workout", "   "}
		result, err := engine.BatchAsk(context.Background(), nil, prompts, fastOpts(dir, formatter.Markdown))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Successful != 2 || result.Failed != 2 {
			t.Errorf("expected 2 successes and 2 failures, got %d/%d", result.Successful, result.Failed)
		}

		for i, res := range result.Results {
			if res.Index != i+1 {
				t.Errorf("expected results sorted by index, got %d at %d", res.Index, i)
			}
		}
		if res := result.Results[1]; res.Success || res.Error != "no match" || !errors.Is(res.Err, shared.ErrService) {
			t.Errorf("unexpected failed result %+v", res)
		}
		if res := result.Results[3]; !errors.Is(res.Err, shared.ErrEmptyPrompt) {
			t.Errorf("expected blank prompt to fail validation, got %+v", res)
		}

		var manifest BatchResult
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, filepath.Join(dir, ManifestFile))), &manifest); err != nil {
			t.Fatalf("invalid manifest: %v", err)
		}
		if manifest.RunID == "" || manifest.Successful != 2 || manifest.Failed != 2 || len(manifest.Results) != 4 {
			t.Errorf("unexpected manifest %+v", manifest)
		}
		if manifest.Results[1].Error != "no match" {
			t.Errorf("expected failure message in manifest, got %+v", manifest.Results[1])
		}
	})

	t.Run("Bounds Concurrency", func(t *testing.T) {
		var active, peak int32
		mock := &tu.MockRecommender{
			RecommendFn: func(ctx context.Context, prompt string) (*models.Recommendation, error) {
				n := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return tu.Recommendation(prompt), nil
			},
		}
		engine := NewBatchEngine(mock, nil)

		prompts := make([]string, 12)
		for i := range prompts {
			prompts[i] = "prompt"
		}

		opts := fastOpts(t.TempDir(), formatter.JSON)
		opts.NumWorkers = 2
		if _, err := engine.BatchAsk(context.Background(), nil, prompts, opts); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if peak > 2 {
			t.Errorf("expected at most 2 concurrent requests, saw %d", peak)
		}
		if mock.Calls() != 12 {
			t.Errorf("expected 12 calls, got %d", mock.Calls())
		}
	})

	t.Run("Sends Progress", func(t *testing.T) {
		prog := make(chan ProgressUpdate, 20)
		engine := NewBatchEngine(&tu.MockRecommender{}, nil)

		_, err := engine.BatchAsk(context.Background(), prog, []string{"a", "b", "c"}, fastOpts(t.TempDir(), formatter.CSV))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(prog)

		phases := map[Phase]int{}
		for update := range prog {
			phases[update.Phase]++
		}
		if phases[QueuePrompts] != 1 || phases[Recommend] != 3 || phases[WriteManifest] != 1 {
			t.Errorf("unexpected progress phases %v", phases)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		dir := t.TempDir()
		engine := NewBatchEngine(&tu.MockRecommender{}, nil)

		result, err := engine.BatchAsk(ctx, nil, []string{"a", "b"}, fastOpts(dir, formatter.Text))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.Successful != 0 {
			t.Errorf("expected partial result with no successes, got %+v", result)
		}
		tu.AssertFileExists(t, filepath.Join(dir, ManifestFile))
	})

	t.Run("Validation", func(t *testing.T) {
		if _, err := NewBatchEngine(nil, nil).BatchAsk(context.Background(), nil, []string{"a"}, BatchOpts{}); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
		if _, err := NewBatchEngine(&tu.MockRecommender{}, nil).BatchAsk(context.Background(), nil, nil, BatchOpts{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Output Directory Is A File", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := NewBatchEngine(&tu.MockRecommender{}, nil).BatchAsk(context.Background(), nil, []string{"a"}, BatchOpts{OutputDir: blocker})
		if err == nil || !strings.Contains(err.Error(), "output directory") {
			t.Errorf("expected output directory error, got %v", err)
		}
	})
}

// package tasks implements batch operations over the recommendation service.
package tasks

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

const maxSlugLength = 40

// BatchEngine runs prompts against a [services.Recommender].
type BatchEngine struct {
	recommender services.Recommender
	logger      *log.Logger
}

// NewBatchEngine creates a new BatchEngine. logger may be nil.
func NewBatchEngine(recommender services.Recommender, logger *log.Logger) *BatchEngine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &BatchEngine{recommender: recommender, logger: logger}
}

// sendProgress sends a progress update without blocking.
func (e *BatchEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ReadPrompts reads one prompt per line. Blank lines and lines starting with # are skipped.
func ReadPrompts(r io.Reader) ([]string, error) {
	var prompts []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prompts: %w", err)
	}
	return prompts, nil
}

// Slug turns a prompt into a short lowercase file name fragment, e.g. "Late night, drive!" → "late-night-drive".
func Slug(prompt string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(prompt) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
		if b.Len() >= maxSlugLength {
			break
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "playlist"
	}
	return slug
}

// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
)

// MockRecommender is a test double for [services.Recommender].
//
// RecommendFn decides the outcome; every prompt it receives is recorded in Prompts.
type MockRecommender struct {
	RecommendFn func(ctx context.Context, prompt string) (*models.Recommendation, error)

	mu      sync.Mutex
	prompts []string
}

func (m *MockRecommender) Recommend(ctx context.Context, prompt string) (*models.Recommendation, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.RecommendFn == nil {
		return Recommendation(prompt), nil
	}
	return m.RecommendFn(ctx, prompt)
}

// Prompts returns a copy of the prompts received so far.
func (m *MockRecommender) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Calls returns the number of Recommend calls.
func (m *MockRecommender) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Recommendation returns a successful three-song fixture with scores 10, 5 and 0.
func Recommendation(prompt string) *models.Recommendation {
	return &models.Recommendation{
		Success: true,
		Prompt:  prompt,
		Preferences: models.Preferences{
			Genre:  "lofi",
			Mood:   "chill",
			Energy: "low",
			Tempo:  "slow",
		},
		Queue: []models.Song{
			{Song: "Snowman", Artist: "WYS", Score: 10},
			{Song: "Affection", Artist: "Jinsang", Score: 5},
			{Song: "Dreamy", Artist: "Idealism", Score: 0},
		},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

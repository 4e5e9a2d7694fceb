package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/mixtape/internal/shared"
)

// Request is the body sent to the recommendation endpoint.
type Request struct {
	Prompt string `json:"prompt"`
}

// Preferences are the attributes the service extracted from the prompt.
type Preferences struct {
	Genre  string `json:"genre"`
	Mood   string `json:"mood"`
	Energy string `json:"energy"`
	Tempo  string `json:"tempo"`
}

// Song is a single ranked entry of the queue.
type Song struct {
	Song   string `json:"song"`
	Artist string `json:"artist"`
	Score  Score  `json:"score"`
}

// Recommendation is the response body of the recommendation endpoint.
type Recommendation struct {
	Success     bool        `json:"success"`
	Prompt      string      `json:"prompt"`
	Preferences Preferences `json:"preferences"`
	Queue       []Song      `json:"queue"`
	Error       string      `json:"error,omitempty"`
}

// Score is a non-negative relevance value assigned by the service.
type Score float64

// UnmarshalJSON accepts numbers, numeric strings and null. Anything unparseable decodes to 0.
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("invalid score: %w", err)
		}
		data = []byte(strings.TrimSpace(raw))
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*s = 0
		return nil
	}
	*s = Score(v)
	return nil
}

// Float returns the score as a float64.
func (s Score) Float() float64 { return float64(s) }

// NormalizePrompt trims surrounding whitespace and rejects prompts that end up empty.
func NormalizePrompt(raw string) (string, error) {
	prompt := strings.TrimSpace(raw)
	if prompt == "" {
		return "", shared.ErrEmptyPrompt
	}
	return prompt, nil
}

// NewRequest builds a [Request] from raw user input.
func NewRequest(raw string) (*Request, error) {
	prompt, err := NormalizePrompt(raw)
	if err != nil {
		return nil, err
	}
	return &Request{Prompt: prompt}, nil
}

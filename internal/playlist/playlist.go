// Package playlist turns a [models.Recommendation] into a render-ready view: batch-relative match percentages,
// bar widths with a visible floor, a title-cased heading and a one-line preference summary.
//
// Nothing here touches a terminal, a template or the network, so every surface renders from the same [View].
package playlist

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/desertthunder/mixtape/internal/models"
)

const (
	// DefaultMaxScore is the scale used when the queue is empty.
	DefaultMaxScore = 7.0
	// MinBarWidth keeps low-scoring rows visible.
	MinBarWidth = 20.0
)

// View is the normalized, ordered playlist shown on the results screen.
type View struct {
	Prompt      string             `json:"prompt"`
	Title       string             `json:"title"`
	Meta        string             `json:"meta"`
	SongCount   int                `json:"song_count"`
	Preferences models.Preferences `json:"preferences"`
	MaxScore    float64            `json:"max_score"`
	Rows        []Row              `json:"rows"`
}

// Row is one rendered song. Position is 1-based and follows the received queue order.
type Row struct {
	Position int     `json:"position"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Score    float64 `json:"score"`
	Match    int     `json:"match"`
	BarWidth float64 `json:"bar_width"`
}

// Build derives the [View] for rec. It is pure: the same input always yields the same output.
func Build(rec *models.Recommendation) *View {
	if rec == nil {
		rec = &models.Recommendation{}
	}

	maxScore := MaxScore(rec.Queue)
	rows := make([]Row, 0, len(rec.Queue))
	for i, song := range rec.Queue {
		score := sanitize(song.Score.Float())
		rows = append(rows, Row{
			Position: i + 1,
			Title:    song.Song,
			Artist:   song.Artist,
			Score:    score,
			Match:    MatchPercentage(score, maxScore),
			BarWidth: BarWidth(score, maxScore),
		})
	}

	return &View{
		Prompt:      rec.Prompt,
		Title:       FormatPrompt(rec.Prompt),
		Meta:        Summary(len(rows), rec.Preferences),
		SongCount:   len(rows),
		Preferences: rec.Preferences,
		MaxScore:    maxScore,
		Rows:        rows,
	}
}

// MaxScore returns the highest score in queue, or [DefaultMaxScore] for an empty queue.
//
// The received order is not assumed to be sorted.
func MaxScore(queue []models.Song) float64 {
	if len(queue) == 0 {
		return DefaultMaxScore
	}

	highest := math.Inf(-1)
	for _, song := range queue {
		highest = math.Max(highest, sanitize(song.Score.Float()))
	}
	return highest
}

// MatchPercentage is round(100*score/max) clamped to [0, 100].
func MatchPercentage(score, maxScore float64) int {
	pct := math.Round(ratio(score, maxScore) * 100)
	return int(clamp(pct, 0, 100))
}

// BarWidth is 100*score/max clamped to [[MinBarWidth], 100].
func BarWidth(score, maxScore float64) float64 {
	return clamp(ratio(score, maxScore)*100, MinBarWidth, 100)
}

// FormatPrompt upper-cases the first letter of every whitespace-delimited word and leaves everything else,
// spacing included, untouched.
func FormatPrompt(prompt string) string {
	var b strings.Builder
	b.Grow(len(prompt))

	atWordStart := true
	for len(prompt) > 0 {
		r, size := utf8.DecodeRuneInString(prompt)
		raw := prompt[:size]
		prompt = prompt[size:]

		switch {
		case r == utf8.RuneError && size == 1:
			// invalid byte, kept as is
			atWordStart = false
			b.WriteString(raw)
		case unicode.IsSpace(r):
			atWordStart = true
			b.WriteRune(r)
		case atWordStart:
			atWordStart = false
			b.WriteString(strings.ToUpper(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Summary renders the results header line, e.g. "3 songs • lofi • chill • low energy • slow tempo".
func Summary(count int, prefs models.Preferences) string {
	return fmt.Sprintf("%d songs • %s • %s • %s energy • %s tempo",
		count, prefs.Genre, prefs.Mood, prefs.Energy, prefs.Tempo)
}

// ratio divides by maxScore, treating a non-positive maximum as 1.
func ratio(score, maxScore float64) float64 {
	score = sanitize(score)
	if maxScore <= 0 || math.IsNaN(maxScore) || math.IsInf(maxScore, 0) {
		maxScore = 1
	}
	return score / maxScore
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// package formatter renders a playlist view as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/desertthunder/mixtape/internal/playlist"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// DefaultBarCells is the bar length used by [ToText] when no width is given.
const DefaultBarCells = 24

// Formats lists every supported format in help order.
var Formats = []Format{Text, Markdown, CSV, JSON}

// ParseFormat resolves a user supplied format name; "md" and "txt" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (want one of %v)", shared.ErrInvalidArgument, s, Formats)
}

// Extension returns the file extension, without the dot, for f.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return "md"
	case CSV:
		return "csv"
	case JSON:
		return "json"
	default:
		return "txt"
	}
}

// Sanitize removes ANSI escape sequences and other control characters so service supplied titles
// cannot drive the terminal.
func Sanitize(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// Bar draws a bar of cells characters filled in proportion to width, a percentage in [0, 100].
func Bar(width float64, cells int) string {
	if cells <= 0 {
		return ""
	}
	filled := int(math.Round(width / 100 * float64(cells)))
	filled = max(0, min(cells, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", cells-filled)
}

// Render encodes view in format. width only affects [Text].
func Render(view *playlist.View, format Format, width int) ([]byte, error) {
	switch format {
	case Text, "":
		return ToText(view, width), nil
	case Markdown:
		return ToMarkdown(view), nil
	case CSV:
		return ToCSV(view)
	case JSON:
		return ToJSON(view, true)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
}

// ToText converts a view to a plain text listing with one bar per song.
//
// barCells sets the bar length, falling back to [DefaultBarCells].
func ToText(view *playlist.View, barCells int) []byte {
	if barCells <= 0 {
		barCells = DefaultBarCells
	}

	var buf bytes.Buffer
	buf.WriteString(Sanitize(view.Title) + "\n")
	buf.WriteString(Sanitize(view.Meta) + "\n\n")

	if len(view.Rows) == 0 {
		buf.WriteString("No songs matched.\n")
		return buf.Bytes()
	}

	labels := make([]string, len(view.Rows))
	labelWidth := 0
	for i, row := range view.Rows {
		labels[i] = fmt.Sprintf("%s - %s", Sanitize(row.Title), Sanitize(row.Artist))
		labelWidth = max(labelWidth, lipgloss.Width(labels[i]))
	}

	posWidth := len(strconv.Itoa(len(view.Rows)))
	for i, row := range view.Rows {
		pad := strings.Repeat(" ", labelWidth-lipgloss.Width(labels[i]))
		fmt.Fprintf(&buf, "%*d. %s%s  %s %3d%%\n", posWidth, row.Position, labels[i], pad, Bar(row.BarWidth, barCells), row.Match)
	}
	return buf.Bytes()
}

// ToMarkdown converts a view to a Markdown document with a results table.
func ToMarkdown(view *playlist.View) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(view.Title)))
	buf.WriteString(fmt.Sprintf("_%s_\n\n", escapeMarkdown(view.Meta)))

	if len(view.Rows) == 0 {
		buf.WriteString("No songs matched.\n")
		return buf.Bytes()
	}

	buf.WriteString("| # | Song | Artist | Match |\n")
	buf.WriteString("|---|------|--------|-------|\n")
	for _, row := range view.Rows {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %d%% |\n",
			row.Position, escapeMarkdown(row.Title), escapeMarkdown(row.Artist), row.Match))
	}
	return buf.Bytes()
}

// ToCSV converts a view to CSV with columns: Position, Title, Artist, Score, Match
func ToCSV(view *playlist.View) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Title", "Artist", "Score", "Match"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range view.Rows {
		record := []string{
			strconv.Itoa(row.Position),
			Sanitize(row.Title),
			Sanitize(row.Artist),
			strconv.FormatFloat(row.Score, 'f', -1, 64),
			strconv.Itoa(row.Match),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ToJSON encodes the view model as returned by the web API.
func ToJSON(view *playlist.View, pretty bool) ([]byte, error) {
	return shared.MarshalJSON(view, pretty)
}

// WriteFile renders view in format and writes it to path, creating parent directories.
func WriteFile(view *playlist.View, format Format, path string) error {
	data, err := Render(view, format, DefaultBarCells)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
	">", "&gt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(Sanitize(s))
}

package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/playlist"
)

const barCells = 20

var (
	_ list.Item = songItem{}
)

// songItem wraps [playlist.Row] to implement [list.Item].
type songItem struct {
	row playlist.Row
}

func (i songItem) FilterValue() string { return formatter.Sanitize(i.row.Title) }
func (i songItem) Title() string {
	return fmt.Sprintf("%d. %s", i.row.Position, formatter.Sanitize(i.row.Title))
}
func (i songItem) Description() string {
	return fmt.Sprintf("%s  %s %s", formatter.Sanitize(i.row.Artist), renderBar(i.row.BarWidth), styles.match.Render(fmt.Sprintf("%d%%", i.row.Match)))
}

// renderBar colors the filled and empty cells of a [formatter.Bar].
func renderBar(width float64) string {
	bar := []rune(formatter.Bar(width, barCells))

	filled := 0
	for filled < len(bar) && bar[filled] == '█' {
		filled++
	}
	return styles.barFill.Render(string(bar[:filled])) + styles.barEmpty.Render(string(bar[filled:]))
}

// songItems converts the rows of view into list items, preserving order.
func songItems(view *playlist.View) []list.Item {
	if view == nil {
		return nil
	}
	items := make([]list.Item, len(view.Rows))
	for i, row := range view.Rows {
		items[i] = songItem{row: row}
	}
	return items
}

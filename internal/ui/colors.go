package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F87", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	heading  lipgloss.Style
	meta     lipgloss.Style
	barFill  lipgloss.Style
	barEmpty lipgloss.Style
	match    lipgloss.Style
	err      lipgloss.Style
	notice   lipgloss.Style
	chipKey  lipgloss.Style
	help     lipgloss.Style
}

// NewPalette builds the stylesheet from an accent, success, error, warning and muted color.
func NewPalette(accent, ok, e, w, muted string) *Palette {
	return &Palette{
		title:    NewBold(accent).MarginBottom(1),
		heading:  NewBold(accent),
		meta:     NewEm(muted),
		barFill:  NewStyle(ok),
		barEmpty: NewStyle(muted),
		match:    NewBold(ok),
		err:      NewBold(e),
		notice:   NewStyle(w),
		chipKey:  NewBold(accent),
		help:     NewEm(muted),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

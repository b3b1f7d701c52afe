package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/libris/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF4D4D", "#FFA500", "#626262")

// Palette holds the named styles every screen draws with.
type Palette struct {
	title    lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
	muted    lipgloss.Style
	selected lipgloss.Style
}

// NewPalette builds a palette from the accent, success, error, warning and muted colors.
func NewPalette(accent, success, failure, warning, muted string) *Palette {
	return &Palette{
		title:    NewBold(accent).MarginBottom(1),
		ok:       NewBold(success),
		err:      NewBold(failure),
		warn:     NewStyle(warning),
		help:     NewEm(muted),
		muted:    NewStyle(muted),
		selected: NewBold(accent),
	}
}

// Status colors a loan state: available books read as ok, loaned ones as a warning.
func (p *Palette) Status(s models.BookStatus) string {
	s = s.OrDefault()
	if s == models.StatusLoaned {
		return p.warn.Render(string(s))
	}
	return p.ok.Render(string(s))
}

// Speaker styles a chat bubble's text.
func (p *Palette) Speaker(text string, mine, failed bool) string {
	switch {
	case failed:
		return p.err.Render(text)
	case mine:
		return p.ok.Render(text)
	}
	return text
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

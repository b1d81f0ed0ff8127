package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/nowplaying/internal/models"
)

var styles = NewPalette("#1DB954", "#04B575", "#FF0000", "#FFA500", "#626262")

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

var _ Painter = (*Palette)(nil)

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
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

// Title, Success, Warning and Error render one line in the shared styles.
func Title(s string) string   { return styles.title.Render(s) }
func Success(s string) string { return styles.ok.Render(s) }
func Warning(s string) string { return styles.warn.Render(s) }
func Error(s string) string   { return styles.err.Render(s) }

// Swatch renders c as a block labelled with its hex code, in black or white text for contrast.
func Swatch(c models.Color) string {
	text := lipgloss.Color("#ffffff")
	if c.Luminance() > 0.5 {
		text = lipgloss.Color("#000000")
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.Hex())).
		Foreground(text).
		Padding(0, 1).
		Render(c.Hex())
}

// Swatches renders p as a row of swatches.
func Swatches(p models.Palette) string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = Swatch(c)
	}
	return strings.Join(parts, " ")
}

// Table renders rows under headers with a rounded border.
func Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(NewStyle("#626262")).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

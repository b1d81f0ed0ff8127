package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

var (
	_ tea.Msg = progressUpdateMsg{}
	_ tea.Msg = renderCompleteMsg{}
	_ tea.Msg = tickMsg{}
)

// progressUpdateMsg carries one [tasks.ProgressUpdate] from a running render.
type progressUpdateMsg tasks.ProgressUpdate

// renderCompleteMsg reports the end of a render.
type renderCompleteMsg struct {
	badge *tasks.Badge
	err   error
	at    time.Time
}

// tickMsg schedules the next render; ticks from an older generation are dropped.
type tickMsg struct {
	gen int
}

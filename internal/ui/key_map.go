package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	refresh key.Binding
	spin    key.Binding
	scan    key.Binding
	rainbow key.Binding
	theme   key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "users")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "render now")),
		spin:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "spin")),
		scan:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "scan code")),
		rainbow: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "rainbow")),
		theme:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.refresh, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.spin, k.scan, k.rainbow, k.theme},
		{k.refresh, k.quit},
	}
}

package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/tasks"
	"github.com/desertthunder/nowplaying/internal/widget"
)

// DefaultInterval is how often the badge is re-rendered.
const DefaultInterval = 15 * time.Second

// ViewState represents the current view in the TUI.
type ViewState int

const (
	UserListView ViewState = iota
	BadgeView
)

// Options configure a [Model].
type Options struct {
	UserID   string               // skips the user list when set
	Users    []*models.Credential // choices for the user list
	Render   widget.Options
	Interval time.Duration
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	renderer tasks.Renderer
	interval time.Duration
	now      func() time.Time

	userList list.Model
	users    []*models.Credential
	userID   string
	opts     widget.Options

	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	done         chan renderCompleteMsg
	rendering    bool
	progress     tasks.ProgressUpdate
	gen          int

	badge      *tasks.Badge
	err        error
	lastRender time.Time
	renders    int

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, renderer tasks.Renderer, opts Options) *Model {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = NewStyle("#1DB954")

	m := &Model{
		ctx:      ctx,
		view:     UserListView,
		renderer: renderer,
		interval: opts.Interval,
		now:      time.Now,
		users:    opts.Users,
		userID:   opts.UserID,
		opts:     opts.Render,
		spinner:  s,
		help:     help.New(),
		keys:     newKeyMap(),
	}

	items := make([]list.Item, len(opts.Users))
	for i, c := range opts.Users {
		items[i] = userItem{cred: c, now: m.now()}
	}
	m.userList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.userList.Title = "Authorized Users"

	if m.userID != "" {
		m.view = BadgeView
	}
	return m
}

// Init starts the spinner and, when a user is already chosen, the first render.
func (m *Model) Init() tea.Cmd {
	if m.view == BadgeView {
		return tea.Batch(m.spinner.Tick, m.startRender())
	}
	return m.spinner.Tick
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.userList.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case UserListView:
			return m.handleUserListKeys(msg)
		case BadgeView:
			return m.handleBadgeKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, waitForProgress(m.progressChan, m.done)

	case renderCompleteMsg:
		m.rendering = false
		m.progressChan, m.done = nil, nil
		m.err = msg.err
		if msg.badge != nil {
			m.badge = msg.badge
		}
		m.lastRender = msg.at
		m.renders++
		m.gen++
		return m, m.tick()

	case tickMsg:
		if msg.gen != m.gen || m.rendering || m.view != BadgeView {
			return m, nil
		}
		return m, m.startRender()
	}

	if m.view == UserListView {
		var cmd tea.Cmd
		m.userList, cmd = m.userList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case UserListView:
		return m.renderUserList()
	case BadgeView:
		return m.renderBadge()
	default:
		return ""
	}
}

func (m *Model) handleUserListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.userList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.userList, cmd = m.userList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.userList.SelectedItem().(userItem); ok {
			m.userID = item.cred.UserID
			m.view = BadgeView
			m.badge, m.err, m.renders = nil, nil, 0
			m.gen++
			return m, m.startRender()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.userList, cmd = m.userList.Update(msg)
	return m, cmd
}

func (m *Model) handleBadgeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if len(m.users) > 0 && !m.rendering {
			m.view = UserListView
			m.gen++
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.startRender()
	case key.Matches(msg, m.keys.spin):
		m.opts.Spin = !m.opts.Spin
		return m, m.startRender()
	case key.Matches(msg, m.keys.scan):
		m.opts.ShowScanCode = !m.opts.ShowScanCode
		return m, m.startRender()
	case key.Matches(msg, m.keys.rainbow):
		m.opts.Rainbow = !m.opts.Rainbow
		return m, m.startRender()
	case key.Matches(msg, m.keys.theme):
		m.opts.Theme = nextTheme(m.opts.Theme)
		return m, m.startRender()
	}
	return m, nil
}

func nextTheme(name string) string {
	if widget.ThemeNamed(name, "").Name == "light" {
		return "dark"
	}
	return "light"
}

// startRender runs one render in the background; nil when a render is already running.
func (m *Model) startRender() tea.Cmd {
	if m.rendering || m.renderer == nil {
		return nil
	}
	m.rendering = true
	m.progress = tasks.ProgressUpdate{}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan renderCompleteMsg, 1)
	m.progressChan, m.done = progress, done

	ctx, renderer, now := m.ctx, m.renderer, m.now
	userID, opts := m.userID, m.opts

	go func() {
		badge, err := renderer.Render(ctx, userID, opts, progress)
		done <- renderCompleteMsg{badge: badge, err: err, at: now()}
		close(progress)
	}()

	return waitForProgress(progress, done)
}

func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan renderCompleteMsg) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m *Model) renderUserList() string {
	if len(m.users) == 0 {
		return fmt.Sprintf("%s\n%s\n\n%s",
			Title("Authorized Users"),
			Warning("No users have authorized yet. Run the login command first."),
			m.help.ShortHelpView([]key.Binding{m.keys.quit}),
		)
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.userList.View(), helpView)
}

func (m *Model) renderBadge() string {
	var b strings.Builder

	b.WriteString(Title("Now Playing • " + m.userID))
	b.WriteString("\n")

	if m.rendering {
		status := "Rendering..."
		if m.progress.Message != "" {
			status = fmt.Sprintf("[%d/%d] %s", m.progress.Step, m.progress.Total, m.progress.Message)
		}
		fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), status)
	}

	if m.err != nil {
		fmt.Fprintf(&b, "%s\n\n", Error(fmt.Sprintf("Render failed: %v", m.err)))
	}

	if m.badge != nil && m.badge.Track != nil {
		track := m.badge.Track
		if track.Offline {
			b.WriteString(Warning(track.TrackName))
		} else {
			b.WriteString(Success(track.TrackName))
			if artists := track.Artists(); artists != "" {
				fmt.Fprintf(&b, "\n%s", artists)
			}
		}
		fmt.Fprintf(&b, "\n\n%s\n", Swatches(m.badge.Palette))
		if m.badge.Degraded {
			fmt.Fprintf(&b, "%s\n", Warning("Artwork unavailable, using the rainbow palette"))
		}
	}

	fmt.Fprintf(&b, "\n%s\n", m.renderOptions())
	if m.renders > 0 {
		fmt.Fprintf(&b, "%s\n", styles.help.Render(fmt.Sprintf("last render %s • %d renders • every %s",
			m.lastRender.Format(time.TimeOnly), m.renders, m.interval)))
	}

	keys := []key.Binding{m.keys.refresh, m.keys.spin, m.keys.scan, m.keys.rainbow, m.keys.theme}
	if len(m.users) > 0 {
		keys = append(keys, m.keys.back)
	}
	keys = append(keys, m.keys.quit)
	fmt.Fprintf(&b, "\n%s", m.help.ShortHelpView(keys))

	return b.String()
}

func (m *Model) renderOptions() string {
	flag := func(name string, on bool) string {
		if on {
			return name + ": " + styles.ok.Render("on")
		}
		return name + ": off"
	}
	return strings.Join([]string{
		flag("spin", m.opts.Spin),
		flag("scan", m.opts.ShowScanCode),
		flag("rainbow", m.opts.Rainbow),
		"theme: " + widget.ThemeNamed(m.opts.Theme, "").Name,
	}, "  ")
}

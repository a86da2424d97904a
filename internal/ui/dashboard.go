package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/dohome/internal/entity"
	"github.com/muurk/dohome/internal/protocol"
)

// DashboardSource is what the dashboard reads and drives
type DashboardSource struct {
	// Entities lists the entities shown, in registration order
	Entities func() []entity.Entity

	// Refresh polls device state (optional)
	Refresh func(ctx context.Context)

	// Discover runs a discovery window and returns the entities it added (optional)
	Discover func(ctx context.Context) ([]entity.Entity, error)
}

// Message types for async operations
type (
	actionDoneMsg struct {
		status string
		err    error
	}
	dashboardPollMsg time.Time
)

// dashboardKeyMap defines key bindings for the dashboard screen
type dashboardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Refresh  key.Binding
	Discover key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Refresh, k.Discover, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.Refresh, k.Discover},
		{k.Help, k.Quit},
	}
}

func newDashboardKeyMap() dashboardKeyMap {
	return dashboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter/space", "toggle"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Discover: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "discover"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DashboardModel is an interactive entity list. Switches and lights toggle
// in place; state is re-polled every interval.
type DashboardModel struct {
	ctx      context.Context
	source   DashboardSource
	interval time.Duration

	entities []entity.Entity
	cursor   int

	busy      string // Action in flight, empty when idle
	status    string
	statusErr bool

	width   int
	spinner spinner.Model
	help    help.Model
	keys    dashboardKeyMap
}

// NewDashboardModel creates a dashboard polling every interval (no polling if
// interval is zero). Actions run under ctx.
func NewDashboardModel(ctx context.Context, source DashboardSource, interval time.Duration) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := DashboardModel{
		ctx:      ctx,
		source:   source,
		interval: interval,
		width:    GetTerminalWidth(),
		spinner:  s,
		help:     help.New(),
		keys:     newDashboardKeyMap(),
	}
	m.reload()
	return m
}

func (m *DashboardModel) reload() {
	m.entities = m.source.Entities()
	if m.cursor >= len(m.entities) {
		m.cursor = max(len(m.entities)-1, 0)
	}
}

// Selected returns the entity under the cursor
func (m DashboardModel) Selected() (entity.Entity, bool) {
	if len(m.entities) == 0 {
		return nil, false
	}
	return m.entities[m.cursor], true
}

func (m DashboardModel) pollTick() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return dashboardPollMsg(t) })
}

// Init implements tea.Model
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.pollTick())
}

// Update implements tea.Model
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = min(msg.Width, MaxContentWidth)
		m.help.Width = m.width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case actionDoneMsg:
		m.busy = ""
		m.reload()
		if msg.err != nil {
			m.status = protocol.GetShortErrorMessage(msg.err)
			m.statusErr = true
		} else if msg.status != "" {
			m.status = msg.status
			m.statusErr = false
		}
		return m, nil

	case dashboardPollMsg:
		if m.busy != "" || m.source.Refresh == nil {
			return m, m.pollTick()
		}
		m.busy = "Polling"
		refresh := m.source.Refresh
		ctx := m.ctx
		return m, tea.Batch(m.pollTick(), func() tea.Msg {
			refresh(ctx)
			return actionDoneMsg{}
		})

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.entities)-1 {
			m.cursor++
		}

	case m.busy != "":
		// One device action at a time

	case key.Matches(msg, m.keys.Toggle):
		e, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.busy = "Switching " + e.Name()
		return m, toggleCmd(m.ctx, e)

	case key.Matches(msg, m.keys.Refresh):
		if m.source.Refresh == nil {
			return m, nil
		}
		m.busy = "Refreshing"
		refresh := m.source.Refresh
		ctx := m.ctx
		return m, func() tea.Msg {
			refresh(ctx)
			return actionDoneMsg{status: "State refreshed"}
		}

	case key.Matches(msg, m.keys.Discover):
		if m.source.Discover == nil {
			return m, nil
		}
		m.busy = "Discovering"
		discover := m.source.Discover
		ctx := m.ctx
		return m, func() tea.Msg {
			added, err := discover(ctx)
			if err != nil {
				return actionDoneMsg{err: err}
			}
			return actionDoneMsg{status: fmt.Sprintf("Discovery added %d entities", len(added))}
		}
	}
	return m, nil
}

// toggleCmd flips e and reports the new state
func toggleCmd(ctx context.Context, e entity.Entity) tea.Cmd {
	return func() tea.Msg {
		next := entity.StateOn
		if entity.StateOf(e).State == entity.StateOn {
			next = entity.StateOff
		}
		if err := (entity.Command{State: next}).Apply(ctx, e); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("%s %s", e.Name(), next)}
	}
}

// View implements tea.Model
func (m DashboardModel) View() string {
	var b strings.Builder

	b.WriteString(HeaderTitleStyle.Render("DOHOME"))
	b.WriteString("\n\n")

	if len(m.entities) == 0 {
		b.WriteString(HeaderParamKeyStyle.Render("No entities yet. Press d to discover."))
		b.WriteString("\n")
	}

	nameWidth := 0
	for _, e := range m.entities {
		nameWidth = max(nameWidth, len(e.Name()))
	}
	for i, e := range m.entities {
		cursor := "  "
		if i == m.cursor {
			cursor = SpinnerStyle.Render("▸ ")
		}
		state := entity.StateOf(e).State
		rendered := StateOffStyle.Render(fmt.Sprintf("%-3s", state))
		if state == entity.StateOn {
			rendered = StateOnStyle.Render(fmt.Sprintf("%-3s", state))
		}
		fmt.Fprintf(&b, "%s%s %-*s  %-6s  %s\n",
			cursor,
			rendered,
			nameWidth, e.Name(),
			e.Kind(),
			HeaderParamKeyStyle.Render(e.Device().Address),
		)
	}

	b.WriteString("\n")
	switch {
	case m.busy != "":
		b.WriteString(m.spinner.View() + " " + ProgressLabelStyle.Render(m.busy+"..."))
	case m.statusErr:
		b.WriteString(ErrorMessageStyle.Render(FailureMarker + " " + m.status))
	case m.status != "":
		b.WriteString(ResultValueStyle.Render(SuccessMarker + " " + m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// RunDashboard runs the dashboard until the user quits or ctx ends
func RunDashboard(ctx context.Context, source DashboardSource, interval time.Duration) error {
	if !IsTerminal() {
		return fmt.Errorf("the dashboard needs an interactive terminal")
	}
	_, err := tea.NewProgram(NewDashboardModel(ctx, source, interval), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

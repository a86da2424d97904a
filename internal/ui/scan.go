package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/dohome/internal/discovery"
)

// ScanFunc runs discovery, calling onDevice for each device as it is found
type ScanFunc func(ctx context.Context, onDevice func(discovery.Device)) (discovery.Discovered, error)

type (
	deviceFoundMsg discovery.Device
	scanDoneMsg    struct {
		found discovery.Discovered
		err   error
	}
	scanTickMsg time.Time
)

const scanTickInterval = 100 * time.Millisecond

// ScanModel is a Bubble Tea model showing a discovery run: a spinner, a bar
// for the elapsed listen time and the devices heard so far. It quits when
// the run ends.
type ScanModel struct {
	label   string
	total   time.Duration
	started time.Time
	now     time.Time

	spinner spinner.Model
	bar     progress.Model
	events  <-chan tea.Msg
	cancel  context.CancelFunc

	devices []discovery.Device
	found   discovery.Discovered
	err     error
	done    bool
}

// NewScanModel creates a model for a run expected to take total, reading
// progress from events
func NewScanModel(label string, total time.Duration, events <-chan tea.Msg, cancel context.CancelFunc) ScanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	now := time.Now()
	return ScanModel{
		label:   label,
		total:   total,
		started: now,
		now:     now,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		events:  events,
		cancel:  cancel,
	}
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-events }
}

func scanTick() tea.Cmd {
	return tea.Tick(scanTickInterval, func(t time.Time) tea.Msg { return scanTickMsg(t) })
}

// Init implements tea.Model
func (m ScanModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events), scanTick())
}

// Update implements tea.Model
func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			// The run ends with a cancellation error; wait for it
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case deviceFoundMsg:
		m.devices = append(m.devices, discovery.Device(msg))
		return m, waitForEvent(m.events)

	case scanDoneMsg:
		m.found = msg.found
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case scanTickMsg:
		m.now = time.Time(msg)
		if m.done {
			return m, nil
		}
		return m, scanTick()

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-30, 20), 50)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Percent returns the elapsed share of the expected run time
func (m ScanModel) Percent() float64 {
	if m.done {
		return 1
	}
	if m.total <= 0 {
		return 0
	}
	return min(float64(m.now.Sub(m.started))/float64(m.total), 1)
}

// View implements tea.Model
func (m ScanModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(ProgressLabelStyle.Render(m.spinner.View() + " " + m.label))
	b.WriteString("\n\n  ")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString(fmt.Sprintf("  %d found\n", len(m.devices)))

	for _, d := range m.devices {
		b.WriteString("\n  ")
		b.WriteString(StateOnStyle.Render(DeviceMarker))
		b.WriteString(" ")
		b.WriteString(TableCellStyle.Render(fmt.Sprintf("%s  %s  %s", d.Name, d.Address, d.Category)))
	}
	b.WriteString("\n\n")
	b.WriteString(StateOffStyle.Render("  press q to stop"))
	b.WriteString("\n")
	return b.String()
}

// Result returns the run's outcome once the model has quit
func (m ScanModel) Result() (discovery.Discovered, error) {
	return m.found, m.err
}

// RunScan runs fn behind an animated progress display. When stdout is not a
// terminal fn runs without one.
func RunScan(ctx context.Context, label string, total time.Duration, fn ScanFunc) (discovery.Discovered, error) {
	if !IsTerminal() {
		return fn(ctx, func(discovery.Device) {})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tea.Msg, 16)
	go func() {
		found, err := fn(ctx, func(d discovery.Device) { events <- deviceFoundMsg(d) })
		events <- scanDoneMsg{found: found, err: err}
	}()

	final, err := tea.NewProgram(NewScanModel(label, total, events, cancel)).Run()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to run progress display: %w", err)
	}
	return final.(ScanModel).Result()
}

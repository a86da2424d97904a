package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Param is one key/value line of a header or result box
type Param struct {
	Key   string
	Value string
}

// Header is a command banner with title, command and parameters, printed
// before a command does its work
type Header struct {
	Title   string  // e.g., "DEVICE DISCOVERY"
	Command string  // e.g., "dohome scan"
	Params  []Param // e.g., {"Broadcast", "192.168.1.255"}
	Width   int
}

// NewHeader creates a new header with the given values
func NewHeader(title, command string, params ...Param) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := max(h.Width, MinTerminalWidth)

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	commandLine := HeaderCommandStyle.Render(h.Command)
	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(h.Params) > 0 {
		divider := RenderHorizontalDivider(max(width-6, 10), "─")
		content = lipgloss.JoinVertical(lipgloss.Left, content, divider, renderParams(h.Params))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(content)
}

func renderParams(params []Param) string {
	keyWidth := 0
	for _, p := range params {
		keyWidth = max(keyWidth, lipgloss.Width(p.Key)+1)
	}

	lines := make([]string, 0, len(params))
	for _, p := range params {
		key := HeaderParamKeyStyle.Render(p.Key + ":" + strings.Repeat(" ", keyWidth-lipgloss.Width(p.Key)-1))
		lines = append(lines, key+" "+HeaderParamValueStyle.Render(p.Value))
	}
	return strings.Join(lines, "\n")
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}

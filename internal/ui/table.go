package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/entity"
)

// table renders rows as aligned columns. Cells are measured by display width
// so styled text lines up.
type table struct {
	headers []string
	rows    [][]string
}

func (t *table) render(width int) string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style func(int, string) string) string {
		var b strings.Builder
		b.WriteString("  ")
		for i, cell := range cells {
			b.WriteString(style(i, cell))
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
			}
		}
		return b.String()
	}

	total := 2
	for _, w := range widths {
		total += w + 2
	}

	lines := []string{
		line(t.headers, func(_ int, s string) string { return TableHeaderStyle.Render(s) }),
		"  " + RenderHorizontalDivider(min(total, width)-2, "─"),
	}
	for _, row := range t.rows {
		lines = append(lines, line(row, func(_ int, s string) string { return s }))
	}
	return strings.Join(lines, "\n")
}

// SortDevices orders devices by category, then sid, then address
func SortDevices(devices []discovery.Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		a, b := devices[i], devices[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.SID != b.SID {
			return a.SID < b.SID
		}
		return a.Address < b.Address
	})
}

// RenderDeviceTable renders discovered devices
func RenderDeviceTable(devices []discovery.Device, width int) string {
	devices = append([]discovery.Device(nil), devices...)
	SortDevices(devices)

	t := &table{headers: []string{"SID", "NAME", "ADDRESS", "CATEGORY", "ENTITIES"}}
	for _, d := range devices {
		t.rows = append(t.rows, []string{
			TableCellStyle.Render(d.SID),
			TableCellStyle.Render(d.Name),
			TableCellStyle.Render(d.Address),
			TableCellStyle.Render(d.Category),
			StateOffStyle.Render(capabilitySummary(d.Category)),
		})
	}
	return t.render(width)
}

func capabilitySummary(category string) string {
	c, ok := entity.Lookup(category)
	if !ok {
		return "unsupported"
	}
	if c.Kind == entity.KindLight {
		return "light"
	}
	if len(c.Keys) == 1 {
		return "switch"
	}
	return fmt.Sprintf("%d switches", len(c.Keys))
}

// RenderEntityTable renders entities with their state
func RenderEntityTable(infos []entity.Info, width int) string {
	t := &table{headers: []string{"UNIQUE ID", "NAME", "KIND", "STATE", "ADDRESS"}}
	for _, info := range infos {
		state := StateOffStyle.Render(info.State.State)
		if info.State.State == entity.StateOn {
			state = StateOnStyle.Render(info.State.State)
		}
		t.rows = append(t.rows, []string{
			TableCellStyle.Render(info.UniqueID),
			TableCellStyle.Render(info.Name),
			TableCellStyle.Render(info.Kind.String()),
			state,
			TableCellStyle.Render(info.Address),
		})
	}
	return t.render(width)
}

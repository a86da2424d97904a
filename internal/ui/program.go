package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/entity"
)

// Printer writes UI components to a writer. Commands print through it so
// tests can capture their output.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Param) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Param) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting ...string) {
	p.Println(NewFailureResult(title, err, troubleshooting...).SetWidth(p.width).Render())
}

// PrintDevices prints a device table, or a warning when there are none
func (p *Printer) PrintDevices(devices []discovery.Device) {
	if len(devices) == 0 {
		p.PrintWarning("No devices found",
			Param{Key: "Hint", Value: "check the broadcast address and that devices share your subnet"},
		)
		return
	}
	p.Newline()
	p.Println(RenderDeviceTable(devices, p.width))
	p.Newline()
}

// PrintEntities prints an entity table
func (p *Printer) PrintEntities(infos []entity.Info) {
	p.Println(RenderEntityTable(infos, p.width))
	p.Newline()
}

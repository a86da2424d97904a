// Package ui provides terminal output for the dohome CLI.
//
// Components are rendered with Lipgloss and follow a "run once and exit"
// pattern: a Header names the command and its parameters, the command does
// its work, and a Result box or a device table reports the outcome.
//
// Discovery is the one long-running command. RunScan shows it with a Bubble
// Tea model (spinner, elapsed-time bar and the devices heard so far) and
// falls back to plain execution when stdout is not a terminal.
//
// Example:
//
//	p := ui.NewPrinter(nil)
//	p.PrintHeader("Device discovery", "dohome scan",
//	    ui.Param{Key: "Broadcast", Value: "192.168.1.255"})
//	found, err := ui.RunScan(ctx, "Listening for announcements...", 2*time.Second, scan)
//	if err != nil {
//	    p.PrintError("Discovery failed", err)
//	    return err
//	}
//	p.PrintDevices(found.All())
package ui

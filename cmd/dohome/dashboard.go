package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/dohome/internal/app"
	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/entity"
	"github.com/muurk/dohome/internal/ui"
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// dashboardCmd runs the interactive entity dashboard
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive view of discovered switches and lights",
	Long: `Discover devices and show their entities in an interactive list.

Switches and lights toggle with enter or space; state is polled at the
configured control.poll_interval. Press d to run another discovery window
and ? for all key bindings.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(settings)

	total := time.Duration(settings.Discovery.Retry) * settings.Discovery.Window
	_, err := ui.RunScan(ctx, "Discovering devices", total,
		func(ctx context.Context, onDevice func(discovery.Device)) (discovery.Discovered, error) {
			a.Scanner.OnDevice = onDevice
			defer func() { a.Scanner.OnDevice = nil }()
			_, err := a.Discover(ctx)
			return a.Registry.Snapshot(), err
		})
	if err != nil && ctx.Err() == nil {
		// Devices can still be found from the dashboard
		ui.NewPrinter(cmd.OutOrStdout()).PrintError("Discovery failed", err)
	}

	source := ui.DashboardSource{
		Entities: a.Entities.All,
		Refresh:  a.PollOnce,
		Discover: func(ctx context.Context) ([]entity.Entity, error) {
			return a.DiscoverFor(ctx, 0)
		},
	}
	if err := ui.RunDashboard(ctx, source, settings.Control.PollInterval); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

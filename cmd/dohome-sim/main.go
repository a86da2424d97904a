// Dohome-sim runs simulated DoHome devices on UDP sockets.
//
// Each simulated device answers discovery pings with an announcement and
// control requests with replies, keeping relay and color state in memory.
// Run it on a second host (or point dohome at it with --broadcast and --ip)
// to exercise the CLI and daemon without hardware.
//
// Usage:
//
//	dohome-sim [flags]
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/dohome/internal/devicesim"
	"github.com/muurk/dohome/internal/logging"
	"github.com/muurk/dohome/internal/protocol"
	"github.com/muurk/dohome/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Simulator flags
var (
	names    []string
	category string
	ip       string
	listen   string
	copies   int
	delay    time.Duration
	silent   bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "dohome-sim",
	Short: "Simulated DoHome devices",
	Long: `Run one or more simulated DoHome devices.

The first device binds the listen address; further devices bind the next
ports on the same host. Devices run until SIGINT or SIGTERM.`,
	Example: `  # A plug on the DoHome port
  dohome-sim --name DoHome_Plug_5F6D

  # A two-relay board and a strip on ephemeral loopback ports
  dohome-sim --listen 127.0.0.1:0 --name DoHome_Relay_C3D4 --category _REALY2

  # A flaky device: duplicate announcements and slow replies
  dohome-sim --copies 3 --delay 300ms`,
	Version:       version.Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSim,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringSliceVar(&names, "name", []string{"DoHome_Sim_5F6D"}, "Device name; the last four characters are the short id (repeatable)")
	rootCmd.Flags().StringVar(&category, "category", "_DT-PLUG", "Device category (_DT-PLUG, _THIMR, _REALY2, _REALY4, _STRIPE, _DT-WYRGB)")
	rootCmd.Flags().StringVar(&ip, "ip", "", "Address the device announces (default: the listen host, or 127.0.0.1)")
	rootCmd.Flags().StringVar(&listen, "listen", fmt.Sprintf("0.0.0.0:%d", protocol.Port), "UDP listen address of the first device")
	rootCmd.Flags().IntVar(&copies, "copies", 1, "Announcements sent per discovery ping")
	rootCmd.Flags().DurationVar(&delay, "delay", 0, "Delay before every reply")
	rootCmd.Flags().BoolVar(&silent, "silent", false, "Never answer control requests")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runSim(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", listen, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid listen port %q: %w", portStr, err)
	}

	announced := ip
	if announced == "" {
		announced = host
		if announced == "" || announced == "0.0.0.0" {
			announced = "127.0.0.1"
		}
	}

	var devices []*devicesim.Device
	defer func() {
		for _, d := range devices {
			_ = d.Close()
		}
	}()

	for i, name := range names {
		addr := listen
		if port != 0 {
			addr = net.JoinHostPort(host, strconv.Itoa(port+i))
		}
		d, err := devicesim.Start(devicesim.Options{
			Name:       name,
			Category:   category,
			IP:         announced,
			ListenAddr: addr,
			Copies:     copies,
			Delay:      delay,
			Silent:     silent,
		})
		if err != nil {
			return err
		}
		devices = append(devices, d)
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s listening on %s\n", d.Name(), d.SID(), d.Category(), d.Addr())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logging.Info("Stopping simulated devices", zap.Int("count", len(devices)))
	return nil
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/dohome/internal/app"
	"github.com/muurk/dohome/internal/logging"
	"github.com/muurk/dohome/internal/version"
)

// Serve command flags
var (
	mqttBroker  string
	httpListen  string
	noMQTT      bool
	noAdvertise bool
)

func init() {
	serveCmd.Flags().StringVar(&mqttBroker, "mqtt", "", "MQTT broker URL; enables the bridge (e.g. tcp://localhost:1883)")
	serveCmd.Flags().BoolVar(&noMQTT, "no-mqtt", false, "Disable the MQTT bridge even if the config enables it")
	serveCmd.Flags().StringVar(&httpListen, "listen", "", "HTTP API listen address (default from config; \"off\" disables)")
	serveCmd.Flags().BoolVar(&noAdvertise, "no-advertise", false, "Do not announce the HTTP API over mDNS")
}

// serveCmd runs the daemon
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the discovery and control daemon",
	Long: `Run the DoHome daemon.

The daemon discovers devices at startup, creates a switch or light entity for
each supported relay and light, polls switch state, and exposes the entities:

  - over MQTT with Home Assistant discovery (when mqtt.enabled or --mqtt)
  - over a local HTTP API with a WebSocket event stream (http.listen)

The daemon stops cleanly on SIGINT or SIGTERM.`,
	Example: `  # Run with the config file settings
  dohome serve

  # Bridge to a broker, API on a custom port
  dohome serve --mqtt tcp://192.168.1.10:1883 --listen :9000

  # Debug logging to the console
  dohome serve --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := settings

	flags := cmd.Flags()
	if flags.Changed("mqtt") {
		cfg.MQTT.Enabled = true
		cfg.MQTT.Broker = mqttBroker
	}
	if noMQTT {
		cfg.MQTT.Enabled = false
	}
	if flags.Changed("listen") {
		cfg.HTTP.Listen = httpListen
		if httpListen == "off" {
			cfg.HTTP.Listen = ""
		}
	}
	if noAdvertise {
		cfg.HTTP.Advertise = false
	}

	// The daemon logs at the configured level unless the flag overrides it
	level := levelFlag(cmd)
	if level == "" {
		level = cfg.Logging.Level
	}
	if err := logging.InitializeWithFile(level, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	logging.Info("Starting dohome",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Bool("mqtt", cfg.MQTT.Enabled),
		zap.String("http", cfg.HTTP.Listen),
	)

	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg).Run(ctx); err != nil {
		return fmt.Errorf("daemon failed: %w", err)
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/dohome/internal/config"
	"github.com/muurk/dohome/internal/logging"
)

// Global flags
var (
	configPath   string
	broadcast    string
	timeout      time.Duration
	window       time.Duration
	rounds       int
	logLevel     string
	outputFormat string
)

// settings is the loaded configuration with flag overrides applied
var settings *config.Config

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default is the per-user config path)")
	flags.StringVar(&broadcast, "broadcast", "", "Broadcast address for discovery (default from config)")
	flags.DurationVar(&timeout, "timeout", 0, "Reply timeout per device exchange (default from config)")
	flags.DurationVar(&window, "window", 0, "Listen window per discovery round (default from config)")
	flags.IntVar(&rounds, "rounds", 0, "Discovery rounds (default from config)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default is $DOHOME_LOG_LEVEL")
	flags.StringVar(&outputFormat, "format", "table", "Output format (table, json)")
}

// loadSettings reads the config file and applies flags that were set
func loadSettings(cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("broadcast") {
		cfg.Discovery.BroadcastAddress = broadcast
	}
	if flags.Changed("timeout") {
		cfg.Control.Timeout = timeout
	}
	if flags.Changed("window") {
		cfg.Discovery.Window = window
	}
	if flags.Changed("rounds") {
		cfg.Discovery.Retry = rounds
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if outputFormat != "table" && outputFormat != "json" {
		return fmt.Errorf("unknown output format %q (want table or json)", outputFormat)
	}

	settings = cfg

	// One-shot commands stay silent unless asked; serve sets up its own logger
	if err := logging.Initialize(levelFlag(cmd)); err != nil {
		return err
	}
	return nil
}

func levelFlag(cmd *cobra.Command) string {
	if cmd.Flags().Changed("log-level") {
		return logLevel
	}
	return ""
}

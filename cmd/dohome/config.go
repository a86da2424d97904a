package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/dohome/internal/config"
	"github.com/muurk/dohome/internal/logging"
)

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configAliasCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	// Only show needs a valid file; init and alias must work to repair one
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "show" {
			return loadSettings(cmd)
		}
		return logging.Initialize(levelFlag(cmd))
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateDefaultConfig(configPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults and flag overrides are applied.
The MQTT password is masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *settings
		if shown.MQTT.Password != "" {
			shown.MQTT.Password = "********"
		}

		if outputFormat == "json" {
			return printJSON(cmd, shown)
		}
		data, err := yaml.Marshal(shown)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configAliasCmd = &cobra.Command{
	Use:   "alias <name> [display name]",
	Short: "Set or clear a display name for a device or relay",
	Long: `Set the display name used for an entity. The name is the device name
(e.g. DoHome_RGB_5F6D) or, for multi-relay devices, the relay name
(e.g. Relay_C3D4_2). Omit the display name to remove the alias.`,
	Example: `  dohome config alias DoHome_RGB_5F6D "Living Room Strip"
  dohome config alias Relay_C3D4_2 "Garden Pump"
  dohome config alias Relay_C3D4_2`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Reload so flag overrides are not written back
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		alias := ""
		if len(args) == 2 {
			alias = args[1]
		}
		cfg.SetAlias(args[0], alias)
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		if alias == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed alias for %s\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now shown as %q\n", args[0], alias)
		}
		return nil
	},
}

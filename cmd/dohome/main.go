// Dohome discovers and controls DoHome Wi-Fi plugs, relays and light strips
// on the local network.
//
// Devices are found by broadcasting a probe on UDP port 6091 and are then
// commanded with one request/reply exchange per operation. The serve command
// runs a daemon that keeps entity state current and exposes it over MQTT
// (Home Assistant discovery) and a local HTTP API.
//
// Usage:
//
//	dohome [command] [flags]
//
// See 'dohome --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/dohome/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dohome",
	Short: "DoHome device discovery and control",
	Long: `Discover and control DoHome Wi-Fi devices on the local network.

Devices answer a UDP broadcast probe on port 6091. Once discovered they can
be queried and switched directly, or handed to the serve daemon which
publishes them to Home Assistant over MQTT and to a local HTTP API.

Settings are read from the config file (see 'dohome config path'); flags
override them for a single run.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings(cmd)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(offCmd)
	rootCmd.AddCommand(colorCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "dohome %s\n%s %s\n", version.Full(), info.GoVersion, info.Platform)
	},
}

// Package config provides configuration management for dohome.
//
// This package manages a YAML configuration file holding discovery, control,
// bridge and logging settings plus display-name aliases for devices. Keys
// missing from the file take their defaults.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/dohome/config.yaml or $HOME/.config/dohome/config.yaml
//   - macOS: $HOME/.config/dohome/config.yaml
//   - Windows: %LOCALAPPDATA%\dohome\config.yaml
//
// # Example
//
//	version: 1
//	discovery:
//	    broadcast_address: 192.168.1.255
//	    retry: 2
//	    window: 1s
//	    on_demand_window: 10s
//	control:
//	    timeout: 500ms
//	    poll_interval: 1s
//	aliases:
//	    DoHome_RGB_5F6D: Living Room Strip
//	    Relay_C3D4_1: Garden Pump
//	mqtt:
//	    enabled: true
//	    broker: tcp://localhost:1883
//	    topic_prefix: dohome
//	    discovery_prefix: homeassistant
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	cfg.SetAlias("DoHome_Plug_A1B2", "Coffee Machine")
//	if err := cfg.Save(""); err != nil {
//	    return err
//	}
//
// Saves are atomic (temporary file plus rename) and use mode 0600.
package config

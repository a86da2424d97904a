package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/dohome/internal/control"
	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/entity"
	"github.com/muurk/dohome/internal/ui"
)

// Device command flags
var (
	deviceIP       string
	deviceCategory string
	relayKey       string
	colorR         int
	colorG         int
	colorB         int
	colorW         int
	colorM         int
	brightness     int
)

func init() {
	for _, cmd := range []*cobra.Command{statusCmd, onCmd, offCmd, colorCmd} {
		cmd.Flags().StringVar(&deviceIP, "ip", "", "Device IP address (skips discovery)")
		cmd.Flags().StringVar(&deviceCategory, "category", "", "Device category when --ip is used (e.g. _DT-PLUG, _STRIPE)")
	}
	for _, cmd := range []*cobra.Command{onCmd, offCmd} {
		cmd.Flags().StringVar(&relayKey, "key", "", "Binary key to switch (default: the category's first relay)")
	}

	colorCmd.Flags().IntVar(&colorR, "r", 255, "Red channel (0-255)")
	colorCmd.Flags().IntVar(&colorG, "g", 255, "Green channel (0-255)")
	colorCmd.Flags().IntVar(&colorB, "b", 255, "Blue channel (0-255)")
	colorCmd.Flags().IntVar(&colorW, "w", 0, "Warm white channel (0-255)")
	colorCmd.Flags().IntVar(&colorM, "m", 0, "Cold white channel (0-255)")
	colorCmd.Flags().IntVar(&brightness, "brightness", 255, "Brightness (0-255)")
}

// scanCmd discovers devices on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for DoHome devices on the network",
	Long: `Scan for DoHome devices by broadcasting a discovery ping on UDP port 6091.

Every device that answers is listed with its short id, address, category and
the entities the daemon would create for it.`,
	Example: `  # Scan with the configured rounds and window
  dohome scan

  # One long round on a specific subnet
  dohome scan --rounds 1 --window 5s --broadcast 10.0.0.255

  # JSON output for scripting
  dohome scan --format json`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	devices, err := discover(cmd.Context())
	if err != nil && devices.Len() == 0 {
		return fmt.Errorf("scan failed: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(cmd, devices.All())
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintDevices(devices.All())
	if err != nil {
		p.PrintError("Scan interrupted", err)
	}
	return nil
}

// discover runs the configured discovery rounds behind a progress display
func discover(ctx context.Context) (discovery.Discovered, error) {
	cfg := settings.Discovery
	broadcast := discovery.ResolveBroadcast(cfg.BroadcastAddress)

	if outputFormat != "json" {
		ui.NewPrinter(nil).PrintHeader("DoHome Scan", "dohome scan",
			ui.Param{Key: "Broadcast", Value: broadcast},
			ui.Param{Key: "Rounds", Value: strconv.Itoa(cfg.Retry)},
			ui.Param{Key: "Window", Value: cfg.Window.String()},
		)
	}

	total := time.Duration(cfg.Retry) * cfg.Window
	return ui.RunScan(ctx, "Listening for announcements", total,
		func(ctx context.Context, onDevice func(discovery.Device)) (discovery.Discovered, error) {
			scanner := discovery.NewScanner(discovery.NewRegistry(), broadcast)
			scanner.Window = cfg.Window
			scanner.OnDevice = onDevice
			return scanner.Discover(ctx, cfg.Retry)
		})
}

// resolveDevice finds the device with short id sid, by discovery unless --ip
// was given. Devices check the short id byte for byte, so with --ip it is
// used exactly as typed; discovered records match case-insensitively.
func resolveDevice(ctx context.Context, sid string) (discovery.Device, error) {
	if deviceIP != "" {
		return discovery.Device{
			SID:      sid,
			Name:     "DoHome_" + sid,
			Address:  deviceIP,
			Category: deviceCategory,
		}, nil
	}

	found, err := discovery.DiscoverDevices(ctx,
		settings.Discovery.BroadcastAddress,
		settings.Discovery.Window,
		settings.Discovery.Retry,
	)
	// A device seen at several addresses answers at the newest one
	var (
		dev   discovery.Device
		match bool
	)
	for _, d := range found.All() {
		if strings.EqualFold(d.SID, sid) {
			dev, match = d, true
		}
	}
	if match {
		return dev, nil
	}
	if err != nil {
		return discovery.Device{}, fmt.Errorf("discovery failed: %w", err)
	}
	return discovery.Device{}, fmt.Errorf("device %s not found (try --ip to skip discovery)", sid)
}

func newClient() *control.Client {
	client := control.NewClient()
	client.Timeout = settings.Control.Timeout
	return client
}

// statusCmd queries a device's current state
var statusCmd = &cobra.Command{
	Use:   "status <sid>",
	Short: "Show a device's current state",
	Example: `  # Query a discovered device
  dohome status 5F6D

  # Query by address without discovery
  dohome status 5F6D --ip 192.168.1.42`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dev, err := resolveDevice(ctx, args[0])
	if err != nil {
		return err
	}

	op, err := newClient().QueryStatus(ctx, dev)
	if err != nil {
		return reportFailure(cmd, "Status query failed", err)
	}

	if outputFormat == "json" {
		return printJSON(cmd, struct {
			Device discovery.Device `json:"device"`
			Status json.RawMessage  `json:"status"`
		}{dev, json.RawMessage(op.String())})
	}

	details := []ui.Param{
		{Key: "Device", Value: dev.Name},
		{Key: "Address", Value: dev.Address},
	}
	for _, p := range op.Params {
		details = append(details, ui.Param{Key: p.Key, Value: strconv.Itoa(p.Value)})
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Device "+dev.SID, details...)
	return nil
}

// onCmd and offCmd switch a relay, plug or light
var onCmd = &cobra.Command{
	Use:   "on <sid>",
	Short: "Turn a device on",
	Long: `Turn a plug or relay on, or set a light to full white.

For multi-relay devices --key selects the relay (relay1 to relay4).`,
	Example: `  dohome on 5F6D
  dohome on C3D4 --key relay2
  dohome on 5F6D --ip 192.168.1.42 --category _DT-PLUG`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitch(cmd, args[0], true)
	},
}

var offCmd = &cobra.Command{
	Use:     "off <sid>",
	Short:   "Turn a device off",
	Example: `  dohome off 5F6D`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitch(cmd, args[0], false)
	},
}

func runSwitch(cmd *cobra.Command, sid string, on bool) error {
	ctx := cmd.Context()
	dev, err := resolveDevice(ctx, sid)
	if err != nil {
		return err
	}

	client := newClient()
	capability, known := entity.Lookup(dev.Category)

	state := entity.StateOff
	if on {
		state = entity.StateOn
	}
	details := []ui.Param{{Key: "Device", Value: dev.Name}, {Key: "State", Value: state}}

	switch {
	case known && capability.Kind == entity.KindLight && relayKey == "":
		if on {
			err = client.SetColor(ctx, dev, control.White, 255)
		} else {
			err = client.TurnOff(ctx, dev)
		}

	default:
		key := relayKey
		if key == "" {
			if !known || len(capability.Keys) == 0 {
				return fmt.Errorf("unknown category %q for %s; pass --key or --category", dev.Category, dev.SID)
			}
			key = capability.Keys[0]
		}
		details = append(details, ui.Param{Key: "Key", Value: key})
		err = client.SetBinary(ctx, dev, key, on)
	}
	if err != nil {
		return reportFailure(cmd, "Command failed", err)
	}

	if outputFormat == "json" {
		return printJSON(cmd, map[string]string{"sid": dev.SID, "state": state})
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Device "+dev.SID+" switched", details...)
	return nil
}

// colorCmd sets all channels of a light
var colorCmd = &cobra.Command{
	Use:   "color <sid>",
	Short: "Set a light's color and brightness",
	Long: `Set the five channels of an RGBWW light.

Channel values are 0-255 and are scaled by brightness before they are sent.`,
	Example: `  # Warm orange at half brightness
  dohome color 5F6D --r 255 --g 120 --b 0 --brightness 128

  # Cold white only
  dohome color 5F6D --r 0 --g 0 --b 0 --m 255`,
	Args: cobra.ExactArgs(1),
	RunE: runColor,
}

func runColor(cmd *cobra.Command, args []string) error {
	for name, v := range map[string]int{"r": colorR, "g": colorG, "b": colorB, "w": colorW, "m": colorM, "brightness": brightness} {
		if v < 0 || v > 255 {
			return fmt.Errorf("--%s must be between 0 and 255, got %d", name, v)
		}
	}

	ctx := cmd.Context()
	dev, err := resolveDevice(ctx, args[0])
	if err != nil {
		return err
	}

	color := control.Color{R: colorR, G: colorG, B: colorB, W: colorW, M: colorM}
	if err := newClient().SetColor(ctx, dev, color, brightness); err != nil {
		return reportFailure(cmd, "Color change failed", err)
	}

	if outputFormat == "json" {
		return printJSON(cmd, map[string]any{"sid": dev.SID, "op": json.RawMessage(color.Operation(brightness).String())})
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Color set on "+dev.SID,
		ui.Param{Key: "Device", Value: dev.Name},
		ui.Param{Key: "Color", Value: fmt.Sprintf("r=%d g=%d b=%d w=%d m=%d", colorR, colorG, colorB, colorW, colorM)},
		ui.Param{Key: "Brightness", Value: strconv.Itoa(brightness)},
	)
	return nil
}

// reportFailure prints an error box with troubleshooting tips and returns err
// so the exit status reflects the failure
func reportFailure(cmd *cobra.Command, title string, err error) error {
	if outputFormat != "json" {
		ui.NewPrinter(cmd.OutOrStdout()).PrintError(title, err)
	}
	return err
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

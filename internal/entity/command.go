package entity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/muurk/dohome/internal/control"
)

// Payload values of the state member
const (
	StateOn  = "ON"
	StateOff = "OFF"
)

// ColorModeRGBWW is the color mode reported for lights
const ColorModeRGBWW = "rgbww"

// ChannelColor is a light color in host terms: C is the cold white channel
// (the device's m) and W the warm white channel.
type ChannelColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
	C int `json:"c"`
	W int `json:"w"`
}

func channelColor(c control.Color) ChannelColor {
	return ChannelColor{R: c.R, G: c.G, B: c.B, C: c.M, W: c.W}
}

func (c ChannelColor) control() control.Color {
	return control.Color{R: c.R, G: c.G, B: c.B, W: c.W, M: c.C}
}

// Command is a state change request, as received from MQTT or HTTP
type Command struct {
	State      string        `json:"state"`
	Color      *ChannelColor `json:"color,omitempty"`
	Brightness *int          `json:"brightness,omitempty"`
}

// ParseCommand decodes a command. A bare ON or OFF payload is accepted as
// shorthand for {"state":"ON"} and {"state":"OFF"}.
func ParseCommand(data []byte) (Command, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	var cmd Command
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &cmd); err != nil {
			return Command{}, fmt.Errorf("invalid command: %w", err)
		}
	} else {
		cmd.State = string(trimmed)
	}

	cmd.State = strings.ToUpper(cmd.State)
	if cmd.State != StateOn && cmd.State != StateOff {
		return Command{}, fmt.Errorf("invalid command state %q (expected ON or OFF)", cmd.State)
	}
	return cmd, nil
}

// Apply runs the command against e. Color and brightness only apply to lights
// and are ignored for switches.
func (c Command) Apply(ctx context.Context, e Entity) error {
	switch v := e.(type) {
	case *Switch:
		if c.State == StateOn {
			return v.TurnOn(ctx)
		}
		return v.TurnOff(ctx)

	case *Light:
		if c.State == StateOff {
			return v.TurnOff(ctx)
		}
		var color *control.Color
		if c.Color != nil {
			cc := c.Color.control()
			color = &cc
		}
		return v.TurnOn(ctx, color, c.Brightness)
	}
	return fmt.Errorf("unsupported entity type %T", e)
}

// State is the JSON state document of an entity
type State struct {
	State      string        `json:"state"`
	ColorMode  string        `json:"color_mode,omitempty"`
	Brightness *int          `json:"brightness,omitempty"`
	Color      *ChannelColor `json:"color,omitempty"`
}

// StateOf returns the current state document of e
func StateOf(e Entity) State {
	switch v := e.(type) {
	case *Switch:
		return State{State: onOff(v.IsOn())}

	case *Light:
		ls := v.State()
		color := channelColor(ls.Color)
		brightness := ls.Brightness
		return State{
			State:      onOff(ls.On),
			ColorMode:  ColorModeRGBWW,
			Brightness: &brightness,
			Color:      &color,
		}
	}
	return State{State: StateOff}
}

func onOff(on bool) string {
	if on {
		return StateOn
	}
	return StateOff
}

// Info is the summary of an entity returned by listings and events
type Info struct {
	UniqueID string `json:"unique_id"`
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	SID      string `json:"sid"`
	Address  string `json:"address"`
	Category string `json:"category"`
	Key      string `json:"key,omitempty"`
	State    State  `json:"state"`
}

// Describe returns the summary of e
func Describe(e Entity) Info {
	dev := e.Device()
	info := Info{
		UniqueID: e.UniqueID(),
		Name:     e.Name(),
		Kind:     e.Kind(),
		SID:      dev.SID,
		Address:  dev.Address,
		Category: dev.Category,
		State:    StateOf(e),
	}
	if s, ok := e.(*Switch); ok {
		info.Key = s.Key()
	}
	return info
}

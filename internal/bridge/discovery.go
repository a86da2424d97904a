package bridge

import (
	"encoding/json"

	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/entity"
)

const manufacturer = "DoHome"

type haDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// haConfig is a Home Assistant MQTT discovery document. Switch and light
// configs share it; unused members are omitted.
type haConfig struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	StateTopic        string   `json:"state_topic"`
	CommandTopic      string   `json:"command_topic"`
	AvailabilityTopic string   `json:"availability_topic"`
	Device            haDevice `json:"device"`

	// switch
	PayloadOn     string `json:"payload_on,omitempty"`
	PayloadOff    string `json:"payload_off,omitempty"`
	StateOn       string `json:"state_on,omitempty"`
	StateOff      string `json:"state_off,omitempty"`
	ValueTemplate string `json:"value_template,omitempty"`

	// light
	Schema              string   `json:"schema,omitempty"`
	Brightness          bool     `json:"brightness,omitempty"`
	BrightnessScale     int      `json:"brightness_scale,omitempty"`
	SupportedColorModes []string `json:"supported_color_modes,omitempty"`
}

// buildConfig returns the discovery document announcing e
func buildConfig(t Topics, e entity.Entity) ([]byte, error) {
	dev := e.Device()
	cfg := haConfig{
		Name:              e.Name(),
		UniqueID:          e.UniqueID(),
		StateTopic:        t.State(e.UniqueID()),
		CommandTopic:      t.Command(e.UniqueID()),
		AvailabilityTopic: t.BridgeState(),
		Device:            deviceBlock(dev),
	}

	switch e.Kind() {
	case entity.KindSwitch:
		cfg.PayloadOn = `{"state":"ON"}`
		cfg.PayloadOff = `{"state":"OFF"}`
		cfg.StateOn = entity.StateOn
		cfg.StateOff = entity.StateOff
		cfg.ValueTemplate = "{{ value_json.state }}"
	case entity.KindLight:
		cfg.Schema = "json"
		cfg.Brightness = true
		cfg.BrightnessScale = 255
		cfg.SupportedColorModes = []string{entity.ColorModeRGBWW}
	}
	return json.Marshal(cfg)
}

// deviceBlock groups every entity of one device under a single HA device
func deviceBlock(dev discovery.Device) haDevice {
	return haDevice{
		Identifiers:  []string{entity.UniqueIDPrefix + dev.SID},
		Name:         dev.Name,
		Manufacturer: manufacturer,
		Model:        dev.Category,
	}
}

// discoveryStatus maps a scanner state to the status payload
func discoveryStatus(s discovery.State) string {
	switch s {
	case discovery.StateListening:
		return "active"
	case discovery.StateError:
		return "error"
	default:
		return "idle"
	}
}

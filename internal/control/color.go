package control

import (
	"math"

	"github.com/muurk/dohome/internal/protocol"
)

// MaxBrightness is the top of the host brightness scale
const MaxBrightness = 255

// Color holds RGBWW channel values on a 0-255 scale. W is the warm white
// channel and M the cold white channel.
type Color struct {
	R int `json:"r" yaml:"r"`
	G int `json:"g" yaml:"g"`
	B int `json:"b" yaml:"b"`
	W int `json:"w" yaml:"w"`
	M int `json:"m" yaml:"m"`
}

// White is the default color of a light turned on without a color
var White = Color{R: 255, G: 255, B: 255, W: 255, M: 255}

// BrightnessUnits converts a 0-255 brightness to the device's 0-100 scale,
// truncating toward zero. Out-of-range input is clamped.
func BrightnessUnits(brightness int) int {
	return 100 * clamp(brightness, 0, MaxBrightness) / MaxBrightness
}

// ScaleChannel converts a 0-255 channel value to the device wire value at the
// given brightness units: round(50 * channel / 255 * units).
func ScaleChannel(channel, units int) int {
	channel = clamp(channel, 0, 255)
	return int(math.Round(50 * float64(channel) / 255 * float64(units)))
}

// Operation builds the set-color op for c at brightness (0-255)
func (c Color) Operation(brightness int) protocol.Operation {
	units := BrightnessUnits(brightness)
	op := protocol.NewOperation(protocol.OpSetColor)
	for i, v := range c.channels() {
		op = op.With(protocol.ColorKeys[i], ScaleChannel(v, units))
	}
	return op
}

// channels returns the values in protocol.ColorKeys order
func (c Color) channels() [5]int {
	return [5]int{c.R, c.G, c.B, c.W, c.M}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

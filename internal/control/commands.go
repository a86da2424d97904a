package control

import (
	"context"
	"fmt"
	"slices"

	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/protocol"
)

// QueryStatus reads dev's current state. The returned op holds the device's
// relay and channel values.
func (c *Client) QueryStatus(ctx context.Context, dev discovery.Device) (protocol.Operation, error) {
	return c.Send(ctx, dev, protocol.NewOperation(protocol.OpQueryStatus), protocol.OpQueryStatus)
}

// SetBinary switches a relay or plug key on or off
func (c *Client) SetBinary(ctx context.Context, dev discovery.Device, key string, on bool) error {
	if !slices.Contains(protocol.BinaryKeys, key) {
		return protocol.NewInvalidOperationError(fmt.Sprintf("unknown binary key %q", key), nil)
	}
	value := 0
	if on {
		value = 1
	}
	op := protocol.NewOperation(protocol.OpSetBinary).With(key, value)
	_, err := c.Send(ctx, dev, op, protocol.OpSetBinary)
	return err
}

// SetColor sets all five channels of an RGBWW light at brightness (0-255)
func (c *Client) SetColor(ctx context.Context, dev discovery.Device, color Color, brightness int) error {
	_, err := c.Send(ctx, dev, color.Operation(brightness), protocol.OpSetColor)
	return err
}

// TurnOff turns an RGBWW light off by zeroing every channel
func (c *Client) TurnOff(ctx context.Context, dev discovery.Device) error {
	return c.SetColor(ctx, dev, Color{}, 0)
}

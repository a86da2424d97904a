package entity

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/dohome/internal/control"
	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/logging"
	"github.com/muurk/dohome/internal/protocol"
)

// Entity is a controllable unit exposed to a host: one switch per relay key,
// or one light per RGBWW device
type Entity interface {
	UniqueID() string
	Name() string
	Kind() Kind
	Device() discovery.Device
}

// Switch is one relay or plug output
type Switch struct {
	client *control.Client
	dev    discovery.Device
	key    string
	name   string
	id     string

	mu sync.Mutex
	on bool
}

func (s *Switch) UniqueID() string { return s.id }
func (s *Switch) Name() string     { return s.name }
func (s *Switch) Kind() Kind       { return KindSwitch }

// Device returns the device record commands are sent to
func (s *Switch) Device() discovery.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev
}

func (s *Switch) retarget(dev discovery.Device) {
	s.mu.Lock()
	s.dev = dev
	s.mu.Unlock()
}

// Key returns the binary key this switch drives
func (s *Switch) Key() string { return s.key }

// IsOn returns the last known state
func (s *Switch) IsOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

// TurnOn switches the output on
func (s *Switch) TurnOn(ctx context.Context) error {
	return s.set(ctx, true)
}

// TurnOff switches the output off
func (s *Switch) TurnOff(ctx context.Context) error {
	return s.set(ctx, false)
}

func (s *Switch) set(ctx context.Context, on bool) error {
	if err := s.client.SetBinary(ctx, s.Device(), s.key, on); err != nil {
		return err
	}
	s.mu.Lock()
	s.on = on
	s.mu.Unlock()
	return nil
}

// Refresh reads the device state and reports whether this switch changed
func (s *Switch) Refresh(ctx context.Context) (bool, error) {
	op, err := s.client.QueryStatus(ctx, s.Device())
	if err != nil {
		return false, err
	}
	return s.apply(op)
}

// apply updates the switch from a status reply
func (s *Switch) apply(op protocol.Operation) (bool, error) {
	v, ok := op.Int(s.key)
	if !ok {
		return false, protocol.NewInvalidOperationError(
			fmt.Sprintf("status reply has no %s member", s.key), nil)
	}

	on := v == 1
	s.mu.Lock()
	changed := s.on != on
	s.on = on
	s.mu.Unlock()

	if changed {
		logging.Debug("Switch state changed",
			zap.String("entity", s.id),
			zap.Bool("on", on),
		)
	}
	return changed, nil
}

// LightState is a light's last commanded state
type LightState struct {
	On         bool          `json:"on"`
	Color      control.Color `json:"color"`
	Brightness int           `json:"brightness"`
}

// Light is an RGBWW strip or bulb. Its state is optimistic: the device is
// never polled, so the state is whatever was last commanded successfully.
type Light struct {
	client *control.Client
	dev    discovery.Device
	name   string
	id     string

	mu    sync.Mutex
	state LightState
}

func (l *Light) UniqueID() string { return l.id }
func (l *Light) Name() string     { return l.name }
func (l *Light) Kind() Kind       { return KindLight }

// Device returns the device record commands are sent to
func (l *Light) Device() discovery.Device {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev
}

func (l *Light) retarget(dev discovery.Device) {
	l.mu.Lock()
	l.dev = dev
	l.mu.Unlock()
}

// State returns the last commanded state
func (l *Light) State() LightState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// TurnOn sets the light. A nil color or brightness keeps the previous value.
func (l *Light) TurnOn(ctx context.Context, color *control.Color, brightness *int) error {
	l.mu.Lock()
	next := l.state
	dev := l.dev
	l.mu.Unlock()

	if color != nil {
		next.Color = *color
	}
	if brightness != nil {
		next.Brightness = *brightness
	}
	next.On = true

	if err := l.client.SetColor(ctx, dev, next.Color, next.Brightness); err != nil {
		return err
	}

	l.mu.Lock()
	l.state = next
	l.mu.Unlock()
	return nil
}

// TurnOff turns the light off, keeping color and brightness for the next TurnOn
func (l *Light) TurnOff(ctx context.Context) error {
	if err := l.client.TurnOff(ctx, l.Device()); err != nil {
		return err
	}
	l.mu.Lock()
	l.state.On = false
	l.mu.Unlock()
	return nil
}

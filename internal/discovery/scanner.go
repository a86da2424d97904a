package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/dohome/internal/logging"
	"github.com/muurk/dohome/internal/protocol"
)

const (
	// DefaultWindow is how long a round listens for announcements
	DefaultWindow = 1 * time.Second

	// DefaultRounds is how many rounds Discover runs back to back
	DefaultRounds = 2

	// DefaultOnDemandWindow is the listen window for host-triggered discovery
	DefaultOnDemandWindow = 10 * time.Second

	// MinWindow and MaxWindow bound host-triggered discovery windows
	MinWindow = 1 * time.Second
	MaxWindow = 60 * time.Second
)

// Scanner runs discovery rounds: broadcast a ping, collect announcements for a
// bounded window, and record new devices in the Registry.
//
// A round is Idle -> Listening -> Idle on success (the window expiring is the
// normal end) or Idle -> Listening -> Error on a socket fault. Records
// registered before a fault are kept.
type Scanner struct {
	// ListenAddr is the local UDP address announcements are received on
	ListenAddr string

	// Target is the host:port the ping is sent to, normally a broadcast address
	Target string

	// Window bounds how long a round listens for announcements
	Window time.Duration

	// Registry receives every newly seen device
	Registry *Registry

	// OnStatus, if set, is called on every state change
	OnStatus func(State)

	// OnDevice, if set, is called once for each newly registered device
	OnDevice func(Device)

	runMu   sync.Mutex // rounds share the listen port, so they never overlap
	mu      sync.Mutex
	state   State
	lastErr error
}

// NewScanner creates a scanner that probes broadcast on the DoHome port and
// records devices in reg
func NewScanner(reg *Registry, broadcast string) *Scanner {
	if reg == nil {
		reg = NewRegistry()
	}
	if broadcast == "" {
		broadcast = DefaultBroadcastAddress
	}
	port := strconv.Itoa(protocol.Port)
	return &Scanner{
		ListenAddr: ":" + port,
		Target:     net.JoinHostPort(broadcast, port),
		Window:     DefaultWindow,
		Registry:   reg,
	}
}

// State returns the scanner's current state
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the fault that put the scanner in StateError, if any
func (s *Scanner) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Scanner) setState(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.lastErr = err
	cb := s.OnStatus
	s.mu.Unlock()

	if cb != nil {
		cb(state)
	}
}

// Scan runs one round with the scanner's Window
func (s *Scanner) Scan(ctx context.Context) (Discovered, error) {
	return s.ScanFor(ctx, s.Window)
}

// ScanFor runs one round listening for window. It returns only the devices
// that were new to the Registry during this round. Socket faults are returned
// as protocol SocketFault errors; cancelling ctx ends the round early with
// ctx.Err(). The socket is closed on every path.
func (s *Scanner) ScanFor(ctx context.Context, window time.Duration) (Discovered, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.Registry == nil {
		s.Registry = NewRegistry()
	}
	if window <= 0 {
		window = DefaultWindow
	}

	s.setState(StateListening, nil)
	found, err := s.round(ctx, window)
	if protocol.IsSocketFault(err) {
		logging.Error("Discovery round failed", zap.Error(err))
		s.setState(StateError, err)
	} else {
		s.setState(StateIdle, nil)
	}

	logging.Debug("Discovery round finished",
		zap.Duration("window", window),
		zap.Int("new_devices", found.Len()),
		zap.Int("known_devices", s.Registry.Len()),
	)
	return found, err
}

func (s *Scanner) round(ctx context.Context, window time.Duration) (Discovered, error) {
	found := make(Discovered)

	target, err := net.ResolveUDPAddr("udp4", s.Target)
	if err != nil {
		return found, protocol.NewSocketFaultError(fmt.Sprintf("resolve %s", s.Target), err)
	}

	// net enables SO_BROADCAST on IPv4 UDP sockets, so a plain listener can
	// send to the broadcast address.
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp4", s.ListenAddr)
	if err != nil {
		return found, protocol.NewSocketFaultError(fmt.Sprintf("bind %s", s.ListenAddr), err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	ping := protocol.BuildPing()
	logging.LogDatagram("sent", target.String(), ping)
	if _, err := conn.WriteTo(ping, target); err != nil {
		return found, protocol.NewSocketFaultError(fmt.Sprintf("send probe to %s", target), err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(window)); err != nil {
		return found, protocol.NewSocketFaultError("set read deadline", err)
	}
	if err := ctx.Err(); err != nil {
		return found, err
	}

	buf := make([]byte, protocol.BufferSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return found, ctxErr
			}
			if isTimeout(err) {
				return found, nil
			}
			return found, protocol.NewSocketFaultError("receive announcement", err)
		}
		s.handleDatagram(buf[:n], from, found)
	}
}

// handleDatagram registers the device announced in data. Short, unparseable
// or incomplete datagrams are dropped. It reports whether a new device was added.
func (s *Scanner) handleDatagram(data []byte, from net.Addr, found Discovered) bool {
	addr := ""
	if from != nil {
		addr = from.String()
	}
	logging.LogDatagram("received", addr, data)

	if len(data) < protocol.MinAnnouncementSize {
		logging.Debug("Ignoring short datagram",
			zap.String("from", addr),
			zap.Int("length", len(data)),
		)
		return false
	}

	ann, err := protocol.ParseAnnouncement(data)
	if err != nil {
		logging.Debug("Ignoring invalid announcement",
			zap.String("from", addr),
			zap.Error(err),
		)
		return false
	}

	dev := DeviceFromAnnouncement(ann)
	if !s.Registry.Add(dev) {
		return false
	}
	found[dev.Category] = append(found[dev.Category], dev)

	logging.Info("Device discovered",
		zap.String("sid", dev.SID),
		zap.String("name", dev.Name),
		zap.String("address", dev.Address),
		zap.String("category", dev.Category),
	)
	if s.OnDevice != nil {
		s.OnDevice(dev)
	}
	return true
}

// Discover runs rounds discovery rounds sequentially (DefaultRounds if rounds
// is less than one) and returns every device that was new across them. It
// stops at the first error.
func (s *Scanner) Discover(ctx context.Context, rounds int) (Discovered, error) {
	return s.DiscoverFor(ctx, rounds, s.Window)
}

// DiscoverFor is Discover with an explicit listen window per round
func (s *Scanner) DiscoverFor(ctx context.Context, rounds int, window time.Duration) (Discovered, error) {
	if rounds < 1 {
		rounds = DefaultRounds
	}

	all := make(Discovered)
	for i := 0; i < rounds; i++ {
		found, err := s.ScanFor(ctx, window)
		all.Merge(found)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// ClampWindow bounds a host-requested discovery window to [MinWindow, MaxWindow]
func ClampWindow(d time.Duration) time.Duration {
	if d < MinWindow {
		return MinWindow
	}
	if d > MaxWindow {
		return MaxWindow
	}
	return d
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// DiscoverDevices is a convenience function that runs rounds discovery rounds
// against broadcast with a fresh registry
func DiscoverDevices(ctx context.Context, broadcast string, window time.Duration, rounds int) (Discovered, error) {
	scanner := NewScanner(NewRegistry(), ResolveBroadcast(broadcast))
	scanner.Window = window
	return scanner.Discover(ctx, rounds)
}

package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/logging"
	"github.com/muurk/dohome/internal/protocol"
)

const (
	// DefaultTimeout bounds a single request/response exchange
	DefaultTimeout = 500 * time.Millisecond

	// DefaultPort is the device control port
	DefaultPort = protocol.Port
)

// Client sends control requests to DoHome devices. Each exchange uses its own
// ephemeral UDP socket, so a reply can only be read by the request that caused
// it. Exchanges with the same device are serialized; different devices may be
// addressed in parallel.
type Client struct {
	// Port is the device UDP port (default: 6091)
	Port int

	// Timeout bounds each exchange (default: 500ms). A context deadline that
	// expires sooner takes precedence.
	Timeout time.Duration

	// locks holds one mutex per device short id
	locks   map[string]*sync.Mutex
	locksMu sync.Mutex
}

// NewClient creates a control client with default settings
func NewClient() *Client {
	return &Client{
		Port:    DefaultPort,
		Timeout: DefaultTimeout,
	}
}

func (c *Client) port() int {
	if c.Port <= 0 {
		return DefaultPort
	}
	return c.Port
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Client) deviceLock(sid string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()

	if c.locks == nil {
		c.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := c.locks[sid]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[sid] = lock
	}
	return lock
}

// Send performs one exchange: it sends op to dev and waits for a single reply.
// The reply must come from dev (MismatchedDevice otherwise) and carry the
// expect cmd code (MismatchedCommand otherwise). No reply before the deadline
// is a NoResponse error. Send never retries.
func (c *Client) Send(ctx context.Context, dev discovery.Device, op protocol.Operation, expect int) (protocol.Operation, error) {
	if !dev.Valid() {
		return protocol.Operation{}, protocol.NewInvalidDeviceError(
			fmt.Sprintf("device %q has no short id or address", dev.Name))
	}

	payload, err := protocol.BuildControl(dev.SID, op)
	if err != nil {
		return protocol.Operation{}, err
	}

	target, err := net.ResolveUDPAddr("udp4", dev.ControlAddr(c.port()))
	if err != nil {
		return protocol.Operation{}, protocol.NewSocketFaultError(
			fmt.Sprintf("resolve %s", dev.Address), err)
	}

	lock := c.deviceLock(dev.SID)
	lock.Lock()
	defer lock.Unlock()

	// The effective timeout is the shorter of the client's and the context's
	timeout := c.timeout()
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
		timeout = max(time.Until(d), 0).Round(time.Millisecond)
	}
	if err := ctx.Err(); err != nil {
		return protocol.Operation{}, contextError(ctx, dev.SID, timeout)
	}

	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		if ctx.Err() != nil {
			return protocol.Operation{}, contextError(ctx, dev.SID, timeout)
		}
		return protocol.Operation{}, protocol.NewSocketFaultError("bind exchange socket", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return protocol.Operation{}, protocol.NewSocketFaultError("set deadline", err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	logging.LogDatagram("sent", target.String(), payload)
	if _, err := conn.WriteTo(payload, target); err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return protocol.Operation{}, contextError(ctx, dev.SID, timeout)
		}
		return protocol.Operation{}, protocol.NewSocketFaultError(
			fmt.Sprintf("send to %s", target), err)
	}

	buf := make([]byte, protocol.BufferSize)
	n, from, err := conn.ReadFrom(buf)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return protocol.Operation{}, contextError(ctx, dev.SID, timeout)
		}
		return protocol.Operation{}, protocol.NewSocketFaultError(
			fmt.Sprintf("receive from %s", target), err)
	}
	logging.LogDatagram("received", from.String(), buf[:n])

	resp, err := protocol.ParseResponse(buf[:n])
	if err != nil {
		return protocol.Operation{}, err
	}

	if resp.SID != dev.SID {
		logging.Warn("Reply from unexpected device",
			zap.String("expected_sid", dev.SID),
			zap.String("reply_sid", resp.SID),
			zap.String("reply_dev", resp.DeviceID),
			zap.String("from", from.String()),
		)
		return protocol.Operation{}, protocol.NewMismatchedDeviceError(dev.SID, resp.SID)
	}

	if resp.Op.Cmd != expect {
		return protocol.Operation{}, protocol.NewMismatchedCommandError(dev.SID, expect, resp.Op.Cmd)
	}

	logging.Debug("Exchange complete",
		zap.String("sid", dev.SID),
		zap.Int("cmd", op.Cmd),
		zap.Stringer("reply", resp.Op),
	)
	return resp.Op, nil
}

// contextError reports an expired exchange. A context deadline is reported
// like the exchange timeout; only an explicit cancel surfaces as the context error.
func contextError(ctx context.Context, sid string, timeout time.Duration) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return protocol.NewNoResponseError(sid, timeout)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Package devicesim emulates DoHome device firmware on a UDP socket.
//
// A simulated device answers discovery pings with an announcement and control
// requests with a reply echoing the op code, keeping relay and color state in
// memory. Options inject the faults real networks produce: duplicate
// announcements, stray datagrams, replies from another device id, wrong op
// codes, and silence.
package devicesim

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/dohome/internal/logging"
	"github.com/muurk/dohome/internal/protocol"
)

// Options configures a simulated device
type Options struct {
	Name       string        // Device name; default "DoHome_Sim_5F6D"
	Category   string        // device_type; default "_DT-PLUG"
	IP         string        // Announced sta_ip; default "127.0.0.1"
	MAC        string        // Announced mac; default derived from the short id
	DeviceID   string        // dev field of replies; default "DOHOME__" + short id
	ListenAddr string        // default "127.0.0.1:0"
	ReplyCmd   int           // If non-zero, replies carry this cmd instead of the request's
	Silent     bool          // Never answer control requests
	Copies     int           // Announcements sent per ping; default 1
	Extra      [][]byte      // Datagrams sent before each announcement, valid or not
	Delay      time.Duration // Delay before every reply
}

// Device is a running simulated device
type Device struct {
	opts Options
	sid  string
	conn net.PacketConn

	mu       sync.Mutex
	binary   map[string]int
	color    map[string]int
	requests []protocol.Request

	done chan struct{}
}

// Start binds the simulator and serves requests until Close
func Start(opts Options) (*Device, error) {
	if opts.Name == "" {
		opts.Name = "DoHome_Sim_5F6D"
	}
	if opts.Category == "" {
		opts.Category = "_DT-PLUG"
	}
	if opts.IP == "" {
		opts.IP = "127.0.0.1"
	}
	if opts.ListenAddr == "" {
		opts.ListenAddr = "127.0.0.1:0"
	}
	if opts.Copies < 1 {
		opts.Copies = 1
	}
	sid := protocol.SIDFromName(opts.Name)
	if opts.DeviceID == "" {
		opts.DeviceID = "DOHOME__" + sid
	}
	if opts.MAC == "" {
		opts.MAC = fmt.Sprintf("de:ad:be:ef:%s", strings.ToLower(fmt.Sprintf("%x", sid)))
	}

	conn, err := net.ListenPacket("udp4", opts.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind simulator: %w", err)
	}

	d := &Device{
		opts:   opts,
		sid:    sid,
		conn:   conn,
		binary: make(map[string]int),
		color:  make(map[string]int),
		done:   make(chan struct{}),
	}
	for _, key := range protocol.BinaryKeys {
		d.binary[key] = 0
	}
	for _, key := range protocol.ColorKeys {
		d.color[key] = 0
	}

	go d.serve()

	logging.Info("Simulated device started",
		zap.String("name", opts.Name),
		zap.String("category", opts.Category),
		zap.String("addr", conn.LocalAddr().String()),
	)
	return d, nil
}

// Addr returns the simulator's UDP address
func (d *Device) Addr() *net.UDPAddr {
	return d.conn.LocalAddr().(*net.UDPAddr)
}

// Port returns the simulator's UDP port
func (d *Device) Port() int {
	return d.Addr().Port
}

// SID returns the simulated device's short id
func (d *Device) SID() string {
	return d.sid
}

// Name returns the simulated device's name
func (d *Device) Name() string {
	return d.opts.Name
}

// Category returns the simulated device's category
func (d *Device) Category() string {
	return d.opts.Category
}

// Close stops the simulator and waits for its serve loop to exit
func (d *Device) Close() error {
	err := d.conn.Close()
	<-d.done
	return err
}

// Requests returns every request received so far
func (d *Device) Requests() []protocol.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocol.Request(nil), d.requests...)
}

// Binary returns the current value of a relay or plug key
func (d *Device) Binary(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.binary[key]
}

// SetBinary presets a relay or plug key, as if toggled by a wall button
func (d *Device) SetBinary(key string, value int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.binary[key] = value
}

// Color returns the last RGBWW channel values received
func (d *Device) Color() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]int, len(d.color))
	for k, v := range d.color {
		out[k] = v
	}
	return out
}

func (d *Device) serve() {
	defer close(d.done)

	buf := make([]byte, protocol.BufferSize)
	for {
		n, from, err := d.conn.ReadFrom(buf)
		if err != nil {
			return
		}

		req, err := protocol.ParseRequest(buf[:n])
		if err != nil {
			logging.LogRawBytes("Simulator ignoring datagram", buf[:n], zap.Error(err))
			continue
		}

		d.mu.Lock()
		d.requests = append(d.requests, *req)
		d.mu.Unlock()

		if d.opts.Delay > 0 {
			time.Sleep(d.opts.Delay)
		}

		switch req.Cmd {
		case protocol.CmdPing:
			d.announce(from)
		case protocol.CmdCtrl:
			if d.opts.Silent {
				continue
			}
			d.reply(from, *req.Op)
		}
	}
}

func (d *Device) announce(to net.Addr) {
	for _, extra := range d.opts.Extra {
		_, _ = d.conn.WriteTo(extra, to)
	}
	ann := protocol.BuildAnnouncement(d.opts.Name, d.opts.IP, d.opts.Category, d.opts.MAC)
	for i := 0; i < d.opts.Copies; i++ {
		_, _ = d.conn.WriteTo(ann, to)
	}
}

func (d *Device) reply(to net.Addr, op protocol.Operation) {
	out := d.apply(op)
	if d.opts.ReplyCmd != 0 {
		out.Cmd = d.opts.ReplyCmd
	}
	data, err := protocol.BuildResponse(d.opts.DeviceID, out)
	if err != nil {
		logging.Error("Simulator failed to build reply", zap.Error(err))
		return
	}
	_, _ = d.conn.WriteTo(data, to)
}

// apply updates simulated state and returns the reply op
func (d *Device) apply(op protocol.Operation) protocol.Operation {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := protocol.NewOperation(op.Cmd)
	switch op.Cmd {
	case protocol.OpSetBinary:
		// Set replies echo the members the device applied
		for _, p := range op.Params {
			if _, ok := d.binary[p.Key]; ok {
				d.binary[p.Key] = p.Value
				out = out.With(p.Key, p.Value)
			}
		}
	case protocol.OpSetColor:
		for _, p := range op.Params {
			if _, ok := d.color[p.Key]; ok {
				d.color[p.Key] = p.Value
				out = out.With(p.Key, p.Value)
			}
		}
	case protocol.OpQueryStatus:
		for _, key := range protocol.BinaryKeys {
			out = out.With(key, d.binary[key])
		}
		for _, key := range protocol.ColorKeys {
			out = out.With(key, d.color[key])
		}
	}
	return out
}

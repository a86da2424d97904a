package protocol

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Wire constants
const (
	Port                = 6091 // UDP port used for both discovery and control
	BufferSize          = 1024 // Receive buffer; larger datagrams are truncated
	MinAnnouncementSize = 70   // Shorter discovery datagrams are ignored unparsed
	SIDLength           = 4    // Length of a device short id
	DeviceIDSIDOffset   = 8    // Short id position within a response's dev field
)

// Field names
const (
	FieldCmd        = "cmd"
	FieldDevices    = "devices"
	FieldOp         = "op"
	FieldDev        = "dev"
	FieldDeviceName = "device_name"
	FieldDeviceType = "device_type"
	FieldStationIP  = "sta_ip"
	FieldDeviceKey  = "device_key"
	FieldMAC        = "mac"
)

// cmd field values
const (
	CmdPing = "ping"
	CmdPong = "pong"
	CmdCtrl = "ctrl"
)

// Op codes carried in the JSON "cmd" member
const (
	OpSetBinary   = 5  // Set relay or plug state; echoed as 5
	OpSetColor    = 6  // Set RGBWW channels; echoed as 6
	OpQueryStatus = 25 // Read device state; echoed as 25
)

// Binary keys accepted by OpSetBinary
const (
	KeyRelay        = "relay"
	KeyRelay1       = "relay1"
	KeyRelay2       = "relay2"
	KeyRelay3       = "relay3"
	KeyRelay4       = "relay4"
	KeySoftPowerOff = "soft_poweroff"
)

// Color channel keys accepted by OpSetColor
const (
	KeyRed   = "r"
	KeyGreen = "g"
	KeyBlue  = "b"
	KeyWarm  = "w"
	KeyCold  = "m"
)

// BinaryKeys lists every key OpSetBinary accepts
var BinaryKeys = []string{KeyRelay, KeyRelay1, KeyRelay2, KeyRelay3, KeyRelay4, KeySoftPowerOff}

// ColorKeys lists the RGBWW channel keys in wire order
var ColorKeys = []string{KeyRed, KeyGreen, KeyBlue, KeyWarm, KeyCold}

// Announcement is a device's reply to a discovery ping
type Announcement struct {
	DeviceName string // e.g. "DoHome_RGB_5F6D"
	SID        string // Last four characters of DeviceName
	IP         string // Station IP the device reports for itself
	DeviceType string // Category tag, e.g. "_STRIPE"
	Frame      *Frame
}

// Response is a device's reply to a control request
type Response struct {
	DeviceID string // Full dev field
	SID      string // DeviceID[8:12]
	Op       Operation
	Frame    *Frame
}

// Request is a frame sent to a device: either a ping or a ctrl request
type Request struct {
	Cmd     string
	Devices []string   // Target short ids (ctrl only)
	Op      *Operation // Decoded op (ctrl only)
	Frame   *Frame
}

// SIDFromName returns the last four characters of a device name, or the whole
// name if it is shorter.
func SIDFromName(name string) string {
	if utf8.RuneCountInString(name) <= SIDLength {
		return name
	}
	runes := []rune(name)
	return string(runes[len(runes)-SIDLength:])
}

// SIDFromDeviceID extracts the short id from a response's dev field
func SIDFromDeviceID(dev string) (string, error) {
	end := DeviceIDSIDOffset + SIDLength
	if len(dev) < end {
		return "", NewMalformedFrameError("dev %q too short: %d bytes (minimum %d)", dev, len(dev), end)
	}
	return dev[DeviceIDSIDOffset:end], nil
}

// ParseAnnouncement decodes a discovery reply. The datagram must be at least
// MinAnnouncementSize bytes, carry cmd=pong, and name the device, its address
// and its type.
func ParseAnnouncement(data []byte) (*Announcement, error) {
	if len(data) < MinAnnouncementSize {
		return nil, NewMalformedFrameError("announcement too short: %d bytes (minimum %d)", len(data), MinAnnouncementSize)
	}

	f, err := ParseFrame(data)
	if err != nil {
		return nil, err
	}
	if cmd := f.Cmd(); cmd != CmdPong {
		return nil, NewMalformedFrameError("unexpected cmd %q in announcement", cmd)
	}

	values, err := requireFields(f, FieldDeviceName, FieldStationIP, FieldDeviceType)
	if err != nil {
		return nil, err
	}

	return &Announcement{
		DeviceName: values[0],
		SID:        SIDFromName(values[0]),
		IP:         values[1],
		DeviceType: values[2],
		Frame:      f,
	}, nil
}

// ParseResponse decodes a control reply. The dev field must be long enough to
// carry a short id, and op must decode to an Operation.
func ParseResponse(data []byte) (*Response, error) {
	f, err := ParseFrame(data)
	if err != nil {
		return nil, err
	}

	values, err := requireFields(f, FieldDev, FieldOp)
	if err != nil {
		return nil, err
	}

	sid, err := SIDFromDeviceID(values[0])
	if err != nil {
		return nil, err
	}

	op, err := DecodeOperation([]byte(values[1]))
	if err != nil {
		return nil, err
	}

	return &Response{
		DeviceID: values[0],
		SID:      sid,
		Op:       op,
		Frame:    f,
	}, nil
}

// ParseRequest decodes a frame sent to a device. Used by device simulators and
// capture tooling.
func ParseRequest(data []byte) (*Request, error) {
	f, err := ParseFrame(data)
	if err != nil {
		return nil, err
	}

	req := &Request{Cmd: f.Cmd(), Frame: f}
	switch req.Cmd {
	case CmdPing:
		return req, nil
	case CmdCtrl:
	case "":
		return nil, NewMalformedFrameError("request has no cmd field")
	default:
		return nil, NewMalformedFrameError("unknown request cmd %q", req.Cmd)
	}

	values, err := requireFields(f, FieldDevices, FieldOp)
	if err != nil {
		return nil, err
	}

	list := strings.TrimSuffix(strings.TrimPrefix(values[0], "["), "]")
	for _, sid := range strings.Split(list, ",") {
		if sid = strings.TrimSpace(sid); sid != "" {
			req.Devices = append(req.Devices, sid)
		}
	}

	op, err := DecodeOperation([]byte(values[1]))
	if err != nil {
		return nil, err
	}
	req.Op = &op
	return req, nil
}

func requireFields(f *Frame, keys ...string) ([]string, error) {
	values := make([]string, len(keys))
	for i, key := range keys {
		v, ok := f.Get(key)
		if !ok {
			return nil, NewMalformedFrameError("missing %s field", key)
		}
		values[i] = v
	}
	return values, nil
}

// String returns a human-readable summary of the announcement
func (a *Announcement) String() string {
	return fmt.Sprintf("Announcement{name=%s, sid=%s, ip=%s, type=%s}", a.DeviceName, a.SID, a.IP, a.DeviceType)
}

package protocol

import (
	"fmt"
)

// BuildPing constructs the discovery probe broadcast to every device on the
// segment.
//
// Wire format:
//
//	cmd=ping\r\n
func BuildPing() []byte {
	return []byte("cmd=" + CmdPing + "\r\n")
}

// BuildControl constructs a control request addressed to a single device.
//
// Wire format:
//
//	cmd=ctrl&devices=[<sid>]&op=<json>
//
// The op JSON always begins with the cmd member, e.g.
//
//	cmd=ctrl&devices=[5F6D]&op={"cmd":5,"relay":1}
func BuildControl(sid string, op Operation) ([]byte, error) {
	if sid == "" {
		return nil, NewInvalidDeviceError("control request needs a device short id")
	}
	payload, err := op.MarshalJSON()
	if err != nil {
		return nil, NewInvalidOperationError("failed to encode op", err)
	}
	f := NewFrame(
		FieldCmd, CmdCtrl,
		FieldDevices, "["+sid+"]",
		FieldOp, string(payload),
	)
	return f.Bytes(), nil
}

// BuildStatusQuery constructs the state read request for sid
func BuildStatusQuery(sid string) ([]byte, error) {
	return BuildControl(sid, NewOperation(OpQueryStatus))
}

// BuildAnnouncement constructs a discovery reply as sent by device firmware.
// The firmware pads its reply with key and hardware fields; they are
// reproduced so the result clears MinAnnouncementSize.
func BuildAnnouncement(name, ip, deviceType, mac string) []byte {
	f := NewFrame(
		FieldCmd, CmdPong,
		FieldDeviceName, name,
		FieldDeviceKey, fmt.Sprintf("%032x", []byte(name)),
		FieldDeviceType, deviceType,
		FieldMAC, mac,
		FieldStationIP, ip,
	)
	return f.Bytes()
}

// BuildResponse constructs a control reply as sent by device firmware
func BuildResponse(deviceID string, op Operation) ([]byte, error) {
	payload, err := op.MarshalJSON()
	if err != nil {
		return nil, NewInvalidOperationError("failed to encode op", err)
	}
	f := NewFrame(
		FieldCmd, CmdCtrl,
		FieldDev, deviceID,
		FieldOp, string(payload),
	)
	return f.Bytes(), nil
}

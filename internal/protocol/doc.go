// Package protocol implements the DoHome local UDP protocol.
//
// This package handles parsing, validation, and construction of the text
// frames exchanged with DoHome Wi-Fi plugs, relays and RGBWW strips. Both
// discovery and control use UDP port 6091.
//
// # Frame Format
//
// Every datagram is a sequence of key=value pairs joined by '&':
//
//	cmd=ctrl&devices=[5F6D]&op={"cmd":6,"r":5000,"g":0,"b":0,"w":0,"m":0}
//
// Each segment is split on its first '='. The op value is a JSON object whose
// integer "cmd" member identifies the operation; devices echo the same code in
// their reply.
//
// # Discovery
//
// The controller broadcasts a probe:
//
//	cmd=ping\r\n
//
// Devices answer with an announcement carrying at least cmd=pong,
// device_name, sta_ip and device_type. Announcements shorter than
// MinAnnouncementSize bytes are not parsed at all; the controller also hears
// its own broadcast probe, which this rule discards.
//
// # Control
//
// Requests address one device by short id (the last four characters of its
// name). Replies carry a dev field whose bytes 8-12 hold the responder's short
// id, plus the echoed op:
//
//	Request                          Reply op cmd
//	{"cmd":25}                       25  (status)
//	{"cmd":5,"relay1":1}             5   (binary set)
//	{"cmd":6,"r":..,"g":..,...}      6   (RGBWW set)
//
// # Usage Example - Parsing
//
//	resp, err := protocol.ParseResponse(datagram)
//	if err != nil {
//	    return err // MalformedFrame or InvalidOperation
//	}
//	if resp.SID != sid {
//	    return protocol.NewMismatchedDeviceError(sid, resp.SID)
//	}
//
// # Usage Example - Building
//
//	op := protocol.NewOperation(protocol.OpSetBinary).With(protocol.KeyRelay, 1)
//	data, err := protocol.BuildControl("5F6D", op)
//
// # Errors
//
// All failures are reported as *Error values carrying an ErrorType. Use
// IsType, IsNoResponse, IsMismatch and IsSocketFault to classify them.
package protocol

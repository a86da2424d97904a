// Package logging provides structured logging for dohome.
//
// This package wraps a global zap logger with convenience functions. CLI
// commands stay silent unless DOHOME_LOG_LEVEL is set; the bridge daemon
// initializes it from its configuration file and may additionally write JSON
// logs to a rotating file.
//
// # Log Levels
//
//   - Debug: Raw datagrams (hex and ascii dumps), dropped announcements
//   - Info: Discovered devices, bridge connections, commands
//   - Warn: Mismatched replies, device timeouts during polling
//   - Error: Socket faults, startup failures
//
// # Structured Logging
//
//	logging.Info("Device discovered",
//	    zap.String("sid", dev.SID),
//	    zap.String("address", dev.Address),
//	    zap.String("category", dev.Category),
//	)
//
// # Datagram Logging
//
//	logging.LogDatagram("sent", target.String(), payload)
//	logging.LogDatagram("received", from.String(), buf[:n])
//
// Dumps are capped at 256 bytes and only built when debug logging is enabled.
package logging

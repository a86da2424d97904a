package protocol

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of a protocol or transport failure
type ErrorType int

const (
	// ErrTypeMalformedFrame indicates a datagram that is not a key=value frame
	// or lacks a required field
	ErrTypeMalformedFrame ErrorType = iota
	// ErrTypeInvalidOperation indicates an op payload that is not a JSON object
	// with an integer "cmd"
	ErrTypeInvalidOperation
	// ErrTypeNoResponse indicates the device did not answer before the deadline
	ErrTypeNoResponse
	// ErrTypeMismatchedDevice indicates a response from a different device than addressed
	ErrTypeMismatchedDevice
	// ErrTypeMismatchedCommand indicates a response carrying an unexpected cmd code
	ErrTypeMismatchedCommand
	// ErrTypeSocketFault indicates a bind, send or receive failure at the OS level
	ErrTypeSocketFault
	// ErrTypeInvalidDevice indicates a device record without a short id or address
	ErrTypeInvalidDevice
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeMalformedFrame:
		return "Malformed Frame"
	case ErrTypeInvalidOperation:
		return "Invalid Operation Payload"
	case ErrTypeNoResponse:
		return "No Response"
	case ErrTypeMismatchedDevice:
		return "Mismatched Device"
	case ErrTypeMismatchedCommand:
		return "Mismatched Command"
	case ErrTypeSocketFault:
		return "Socket Fault"
	case ErrTypeInvalidDevice:
		return "Invalid Device"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by the codec, the discovery engine and the control layer
type Error struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	SID     string    // Short id of the device involved (if known)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewMalformedFrameError creates a malformed frame error
func NewMalformedFrameError(format string, args ...any) *Error {
	return &Error{
		Type:    ErrTypeMalformedFrame,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInvalidOperationError creates an invalid op payload error
func NewInvalidOperationError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeInvalidOperation,
		Message: message,
		Err:     err,
	}
}

// NewNoResponseError creates a timeout error for an exchange with sid
func NewNoResponseError(sid string, timeout time.Duration) *Error {
	return &Error{
		Type:    ErrTypeNoResponse,
		Message: fmt.Sprintf("device %s did not respond within %s", sid, timeout),
		SID:     sid,
	}
}

// NewMismatchedDeviceError creates an error for a response from the wrong device
func NewMismatchedDeviceError(want, got string) *Error {
	return &Error{
		Type:    ErrTypeMismatchedDevice,
		Message: fmt.Sprintf("response from device %q, expected %q", got, want),
		SID:     want,
	}
}

// NewMismatchedCommandError creates an error for a response with the wrong cmd code
func NewMismatchedCommandError(sid string, want, got int) *Error {
	return &Error{
		Type:    ErrTypeMismatchedCommand,
		Message: fmt.Sprintf("response cmd %d, expected %d", got, want),
		SID:     sid,
	}
}

// NewSocketFaultError creates a socket-level error
func NewSocketFaultError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeSocketFault,
		Message: message,
		Err:     err,
	}
}

// NewInvalidDeviceError creates an error for an unusable device record
func NewInvalidDeviceError(message string) *Error {
	return &Error{
		Type:    ErrTypeInvalidDevice,
		Message: message,
	}
}

// IsType reports whether any error in err's chain is an *Error of type t
func IsType(err error, t ErrorType) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Type == t
	}
	return false
}

// IsNoResponse reports whether err is a device timeout
func IsNoResponse(err error) bool {
	return IsType(err, ErrTypeNoResponse)
}

// IsMismatch reports whether err is a mismatched device or mismatched command error
func IsMismatch(err error) bool {
	return IsType(err, ErrTypeMismatchedDevice) || IsType(err, ErrTypeMismatchedCommand)
}

// IsSocketFault reports whether err is a socket-level failure
func IsSocketFault(err error) bool {
	return IsType(err, ErrTypeSocketFault)
}

// IsMalformed reports whether err is a frame or op decoding failure
func IsMalformed(err error) bool {
	return IsType(err, ErrTypeMalformedFrame) || IsType(err, ErrTypeInvalidOperation)
}

// GetTroubleshootingHint returns user-facing advice for an error
func GetTroubleshootingHint(err error) string {
	var pe *Error
	if !errors.As(err, &pe) {
		return "An unexpected error occurred. Please try again."
	}

	switch pe.Type {
	case ErrTypeNoResponse:
		return strings.Join([]string{
			"The device did not respond in time.",
			"Troubleshooting:",
			"  • Check that the device is powered on and joined to your WiFi",
			"  • Re-run 'dohome scan' in case its address changed",
			"  • Try increasing --timeout",
		}, "\n")

	case ErrTypeSocketFault:
		return strings.Join([]string{
			"A network socket operation failed.",
			"Troubleshooting:",
			"  • Another program may already be bound to UDP port 6091",
			"  • Check that your firewall allows UDP broadcast on port 6091",
			"  • Verify the broadcast address matches your subnet (--broadcast)",
		}, "\n")

	case ErrTypeMismatchedDevice, ErrTypeMismatchedCommand:
		return strings.Join([]string{
			"The device answered, but the reply did not match the request.",
			"Troubleshooting:",
			"  • Another controller may be talking to the same device",
			"  • Two devices may share an address; re-run 'dohome scan'",
		}, "\n")

	case ErrTypeMalformedFrame, ErrTypeInvalidOperation:
		return "The device sent a reply that could not be decoded. Run with DOHOME_LOG_LEVEL=debug to see the raw datagram."

	case ErrTypeInvalidDevice:
		return "The device record is incomplete. Provide both --sid and --ip, or select a scanned device."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var pe *Error
	if !errors.As(err, &pe) {
		return err.Error()
	}

	switch pe.Type {
	case ErrTypeNoResponse:
		return "Device not responding (timeout)"
	case ErrTypeSocketFault:
		return "Network socket error"
	case ErrTypeMismatchedDevice:
		return "Reply came from a different device"
	case ErrTypeMismatchedCommand:
		return "Reply did not match the command sent"
	case ErrTypeMalformedFrame, ErrTypeInvalidOperation:
		return "Failed to decode device reply"
	default:
		return pe.Message
	}
}

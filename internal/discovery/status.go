package discovery

import "fmt"

// State is the discovery engine's lifecycle state
type State int

const (
	// StateIdle means no round is running
	StateIdle State = iota
	// StateListening means a probe has been sent and replies are being collected
	StateListening
	// StateError means the last round failed with a socket fault
	StateError
)

// String returns the state name as published to hosts
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText lets State serialize as its name in JSON and YAML
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

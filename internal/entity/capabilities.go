package entity

import (
	"github.com/muurk/dohome/internal/protocol"
)

// Kind identifies what a host exposes an entity as
type Kind int

const (
	KindSwitch Kind = iota
	KindLight
)

// String returns the Home Assistant component name for the kind
func (k Kind) String() string {
	switch k {
	case KindSwitch:
		return "switch"
	case KindLight:
		return "light"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind serialize as its name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Capability describes the entities one device category provides
type Capability struct {
	Kind Kind

	// Keys are the binary keys, one switch each (switches only)
	Keys []string

	// Numbered switches are named Relay_<sid>_<n> instead of after the device
	Numbered bool
}

// Categories maps device_type tags to capabilities. Unknown categories are
// discovered and registered but produce no entities.
var Categories = map[string]Capability{
	"_DT-PLUG": {Kind: KindSwitch, Keys: []string{protocol.KeySoftPowerOff}},
	"_THIMR":   {Kind: KindSwitch, Keys: []string{protocol.KeyRelay}},
	"_REALY2": {
		Kind:     KindSwitch,
		Keys:     []string{protocol.KeyRelay1, protocol.KeyRelay2},
		Numbered: true,
	},
	"_REALY4": {
		Kind:     KindSwitch,
		Keys:     []string{protocol.KeyRelay1, protocol.KeyRelay2, protocol.KeyRelay3, protocol.KeyRelay4},
		Numbered: true,
	},
	"_STRIPE":   {Kind: KindLight},
	"_DT-WYRGB": {Kind: KindLight},
}

// Lookup returns the capability of a category
func Lookup(category string) (Capability, bool) {
	c, ok := Categories[category]
	return c, ok
}

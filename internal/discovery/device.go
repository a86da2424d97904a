package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/muurk/dohome/internal/protocol"
)

// Device represents a DoHome device that answered a discovery ping.
// Device is comparable; two records are the same device only if every field
// matches.
type Device struct {
	// SID is the device short id, the last four characters of Name (e.g., "5F6D")
	SID string `json:"sid" yaml:"sid"`

	// Name is the full device name from the announcement (e.g., "DoHome_RGB_5F6D")
	Name string `json:"name" yaml:"name"`

	// Address is the IPv4 address the device reported for itself
	Address string `json:"address" yaml:"address"`

	// Category is the device type tag (e.g., "_STRIPE", "_DT-PLUG")
	Category string `json:"category" yaml:"category"`
}

// DeviceFromAnnouncement builds a Device record from a parsed announcement
func DeviceFromAnnouncement(a *protocol.Announcement) Device {
	return Device{
		SID:      a.SID,
		Name:     a.DeviceName,
		Address:  a.IP,
		Category: a.DeviceType,
	}
}

// String returns a human-readable string representation of the device
func (d Device) String() string {
	return fmt.Sprintf("DoHome %s %s (%s) at %s", d.Category, d.Name, d.SID, d.Address)
}

// ControlAddr returns the UDP host:port for control requests
func (d Device) ControlAddr(port int) string {
	return net.JoinHostPort(d.Address, strconv.Itoa(port))
}

// Valid reports whether the record can be addressed by the control layer
func (d Device) Valid() bool {
	return d.SID != "" && d.Address != ""
}

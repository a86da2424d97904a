package discovery

import (
	"testing"

	"github.com/muurk/dohome/internal/protocol"
)

func TestDevice_String(t *testing.T) {
	device := Device{SID: "5F6D", Name: "DoHome_RGB_5F6D", Address: "192.168.1.20", Category: "_STRIPE"}

	expected := "DoHome _STRIPE DoHome_RGB_5F6D (5F6D) at 192.168.1.20"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}
}

func TestDevice_ControlAddr(t *testing.T) {
	tests := []struct {
		name     string
		device   Device
		port     int
		expected string
	}{
		{
			name:     "default port",
			device:   Device{Address: "192.168.1.20"},
			port:     protocol.Port,
			expected: "192.168.1.20:6091",
		},
		{
			name:     "custom port",
			device:   Device{Address: "127.0.0.1"},
			port:     40000,
			expected: "127.0.0.1:40000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.ControlAddr(tt.port); got != tt.expected {
				t.Errorf("Device.ControlAddr() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDeviceFromAnnouncement(t *testing.T) {
	ann, err := protocol.ParseAnnouncement(protocol.BuildAnnouncement("DoHome_Relay_C3D4", "192.168.1.31", "_REALY4", ""))
	if err != nil {
		t.Fatalf("ParseAnnouncement() error = %v", err)
	}
	want := Device{SID: "C3D4", Name: "DoHome_Relay_C3D4", Address: "192.168.1.31", Category: "_REALY4"}
	if got := DeviceFromAnnouncement(ann); got != want {
		t.Errorf("DeviceFromAnnouncement() = %+v, want %+v", got, want)
	}
}

func TestDevice_Valid(t *testing.T) {
	if (Device{SID: "5F6D"}).Valid() {
		t.Error("device without address should be invalid")
	}
	if !(Device{SID: "5F6D", Address: "10.0.0.2"}).Valid() {
		t.Error("device with sid and address should be valid")
	}
}

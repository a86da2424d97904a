package discovery

import (
	"net"
	"strings"
)

// DefaultBroadcastAddress is used when nothing better is configured
const DefaultBroadcastAddress = "192.168.1.255"

// ResolveBroadcast returns the address discovery probes are sent to. An
// explicitly configured address is returned unchanged. The default address is
// replaced by the /24 broadcast of the first local 192.168.x.x address, since
// most home networks are not 192.168.1.0/24.
func ResolveBroadcast(configured string) string {
	if configured != "" && configured != DefaultBroadcastAddress {
		return configured
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return DefaultBroadcastAddress
	}
	return broadcastFromAddrs(addrs)
}

func broadcastFromAddrs(addrs []net.Addr) string {
	for _, addr := range addrs {
		var ip net.IP
		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		}
		ip4 := ip.To4()
		if ip4 == nil || !strings.HasPrefix(ip4.String(), "192.168.") {
			continue
		}
		return net.IPv4(ip4[0], ip4[1], ip4[2], 255).String()
	}
	return DefaultBroadcastAddress
}

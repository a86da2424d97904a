package server

import (
	"fmt"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/dohome/internal/logging"
	"github.com/muurk/dohome/internal/version"
)

const (
	// ServiceType is the mDNS service type the API is advertised under
	ServiceType = "_dohome._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	defaultInstance = "dohome"
)

// txtRecords describes the API to browsers of the service
func txtRecords() []string {
	return []string{
		"path=/api",
		"version=" + version.Version,
	}
}

// advertise registers the API on every multicast interface
func advertise(instance string, port int) (*zeroconf.Server, error) {
	if instance == "" {
		instance = defaultInstance
	}

	srv, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txtRecords(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("HTTP API advertised over mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return srv, nil
}

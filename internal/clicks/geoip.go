package clicks

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Location is the GeoIP lookup result. Empty fields mean unknown.
type Location struct {
	Country string
	City    string
}

// Locator resolves a client IP to a coarse location.
// Implementations must never fail a click: unknown is always acceptable.
type Locator interface {
	Locate(ip string) Location
}

// NopLocator resolves every IP to an unknown location. Used when no GeoIP
// database is configured.
type NopLocator struct{}

func (NopLocator) Locate(string) Location { return Location{} }

// maxmindLocator resolves IPs against a local MaxMind city database.
type maxmindLocator struct {
	reader *geoip2.Reader
}

// NewMaxMindLocator opens the MaxMind database at path.
func NewMaxMindLocator(path string) (*maxmindLocator, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database: %w", err)
	}
	return &maxmindLocator{reader: reader}, nil
}

func (l *maxmindLocator) Locate(ipStr string) Location {
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return Location{}
	}

	record, err := l.reader.City(ip)
	if err != nil {
		return Location{}
	}

	return Location{
		Country: record.Country.Names["en"],
		City:    record.City.Names["en"],
	}
}

// Close releases the underlying database handle.
func (l *maxmindLocator) Close() error {
	return l.reader.Close()
}

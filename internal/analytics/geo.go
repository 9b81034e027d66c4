package analytics

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// CountryResolver maps an IP address to an ISO 3166-1 alpha-2 code.
type CountryResolver interface {
	Country(ip string) string
}

// GeoIP resolves countries from a MaxMind GeoLite2/GeoIP2 database.
type GeoIP struct {
	reader *geoip2.Reader
}

// OpenGeoIP opens a MaxMind country or city database.
func OpenGeoIP(path string) (*GeoIP, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &GeoIP{reader: reader}, nil
}

// Country returns the ISO code for ip, or "" when unknown.
func (g *GeoIP) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := g.reader.Country(parsed)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}

// Close closes the GeoIP database.
func (g *GeoIP) Close() error {
	return g.reader.Close()
}

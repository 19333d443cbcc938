package identity

import (
	"net"

	"github.com/chess-vn/econgames/pkg/logging"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

const Unknown = "Unknown"

type Origin struct {
	Ip      string
	Country string
	City    string
}

type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Close() error
}

// Locator resolves IP addresses to a country and city. A Locator without a
// database resolves everything to Unknown.
type Locator struct {
	reader cityReader
}

// NewLocator opens the GeoLite2 city database at path. An empty path yields a
// locator that never resolves.
func NewLocator(path string) (*Locator, error) {
	if path == "" {
		return &Locator{}, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &Locator{reader: reader}, nil
}

func (l *Locator) Resolve(ip string) Origin {
	origin := Origin{Ip: ip, Country: Unknown, City: Unknown}
	if l == nil || l.reader == nil {
		return origin
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return origin
	}
	record, err := l.reader.City(parsed)
	if err != nil {
		logging.Warn("failed to locate ip", zap.String("ip", ip), zap.Error(err))
		return origin
	}
	if name := record.Country.Names["en"]; name != "" {
		origin.Country = name
	}
	if name := record.City.Names["en"]; name != "" {
		origin.City = name
	}
	return origin
}

func (l *Locator) Close() error {
	if l == nil || l.reader == nil {
		return nil
	}
	return l.reader.Close()
}

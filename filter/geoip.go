package filter

import (
	"net"

	"logviewer/logger"

	"github.com/oschwald/geoip2-golang"
)

// GeoLocator resolves client addresses to ISO country codes for access logs.
// A nil or unopened locator resolves nothing.
type GeoLocator struct {
	db *geoip2.Reader
}

func NewGeoLocator(dbPath string) *GeoLocator {
	if dbPath == "" {
		return &GeoLocator{}
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		logger.Warn("GeoIP tagging disabled: database could not be opened", "path", dbPath, "err", err)
		return &GeoLocator{}
	}
	logger.Info("GeoIP tagging enabled", "path", dbPath)
	return &GeoLocator{db: db}
}

// Country returns the ISO code for host, or "" when unknown.
func (g *GeoLocator) Country(host string) string {
	if g == nil || g.db == nil {
		return ""
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}
	record, err := g.db.Country(ip)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}

func (g *GeoLocator) Close() error {
	if g == nil || g.db == nil {
		return nil
	}
	return g.db.Close()
}

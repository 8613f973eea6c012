package ipinfo

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

var errNoMaxMindRecord = errors.New("no maxmind record")

// mmdbCity GeoLite2-City 中用到的字段, Country 库只会填充 country
type mmdbCity struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Subdivisions []struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
		TimeZone  string   `maxminddb:"time_zone"`
	} `maxminddb:"location"`
	Postal struct {
		Code string `maxminddb:"code"`
	} `maxminddb:"postal"`
}

// fillFromMaxMind 只填充 API 没有返回的字段
func (c *Client) fillFromMaxMind(rec *Record) error {
	addr, err := netip.ParseAddr(rec.Address)
	if err != nil {
		return fmt.Errorf("invalid IP address: %s", rec.Address)
	}

	result := c.mmdb.Lookup(addr)
	if err := result.Err(); err != nil {
		return err
	}
	if !result.Found() {
		return fmt.Errorf("%w for %s", errNoMaxMindRecord, rec.Address)
	}

	var city mmdbCity
	if err := result.Decode(&city); err != nil {
		return err
	}

	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&rec.CountryCode, strings.ToUpper(city.Country.ISOCode))
	fill(&rec.Country, city.Country.Names["en"])
	fill(&rec.City, city.City.Names["en"])
	if len(city.Subdivisions) > 0 {
		fill(&rec.Region, city.Subdivisions[0].Names["en"])
	}
	fill(&rec.TimeZone, city.Location.TimeZone)
	fill(&rec.PostalCode, city.Postal.Code)
	if !rec.HasCoordinates() && city.Location.Latitude != nil && city.Location.Longitude != nil {
		rec.Latitude = city.Location.Latitude
		rec.Longitude = city.Location.Longitude
	}
	return nil
}

// Package mains works out the local mains frequency, which sets where the
// hum notch and the hum measurement look.
package mains

import (
	"strings"
	"sync"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// Supported mains frequencies in Hz
const (
	Hz50 = 50
	Hz60 = 60
)

// Source records how a frequency was chosen
type Source string

const (
	SourceConfig   Source = "config"
	SourceTimezone Source = "timezone"
	SourceFallback Source = "fallback"
)

// Detection is a resolved mains frequency
type Detection struct {
	Hz       int
	Source   Source
	Timezone string // empty unless the timezone was read
	Country  string // empty unless the timezone mapped to a country
}

var countries = sync.OnceValues(tz.NewTimezoneCountryMap)

// Resolve returns configured when it is 50 or 60, and otherwise detects the
// frequency from the system timezone
func Resolve(configured int) Detection {
	if configured == Hz50 || configured == Hz60 {
		return Detection{Hz: configured, Source: SourceConfig}
	}
	return Detect()
}

// Detect reads the system timezone and maps it to a mains frequency.
// Anything that cannot be mapped gets 50 Hz, the more common standard.
func Detect() Detection {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Detection{Hz: Hz50, Source: SourceFallback}
	}
	return ForTimezone(timezone)
}

// ForTimezone maps an IANA timezone name to a mains frequency
func ForTimezone(timezone string) Detection {
	d := Detection{Hz: Hz50, Source: SourceFallback, Timezone: timezone}
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return d
	}

	m, err := countries()
	if err != nil {
		return d
	}
	country, err := m.GetCountry(timezone)
	if err != nil || country == "" {
		return d
	}

	d.Country = country
	d.Source = SourceTimezone
	if sixtyHertz[country] {
		d.Hz = Hz60
	}
	return d
}

// sixtyHertz holds the countries on 60 Hz grids. Japan is split by region
// and stays at 50 Hz, the Tokyo side. Brazil is mixed but mostly 60 Hz.
var sixtyHertz = map[string]bool{
	"American Samoa":      true,
	"Bahamas":             true,
	"Barbados":            true,
	"Belize":              true,
	"Brazil":              true,
	"Canada":              true,
	"Cayman Islands":      true,
	"Colombia":            true,
	"Costa Rica":          true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Ecuador":             true,
	"El Salvador":         true,
	"Guam":                true,
	"Guatemala":           true,
	"Guyana":              true,
	"Haiti":               true,
	"Honduras":            true,
	"Jamaica":             true,
	"Marshall Islands":    true,
	"Mexico":              true,
	"Micronesia":          true,
	"Nicaragua":           true,
	"Palau":               true,
	"Panama":              true,
	"Peru":                true,
	"Philippines":         true,
	"Puerto Rico":         true,
	"Saudi Arabia":        true,
	"South Korea":         true,
	"Suriname":            true,
	"Taiwan":              true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,
	"United States":       true,
	"Venezuela":           true,
}

package model

import "github.com/rotisserie/eris"

// Borough identifies one of the five NYC counties tracked by the dataset.
type Borough string

const (
	Manhattan    Borough = "Manhattan"
	Bronx        Borough = "Bronx"
	Brooklyn     Borough = "Brooklyn"
	Queens       Borough = "Queens"
	StatenIsland Borough = "Staten Island"
)

// AllBoroughs lists every borough in stable order.
var AllBoroughs = []Borough{Manhattan, Bronx, Brooklyn, Queens, StatenIsland}

// countyCodes maps each borough to the numeric county value used by the
// NYSCEF search form's county selector. These are form option values, not
// FIPS codes.
var countyCodes = map[Borough]string{
	Manhattan:    "31",
	Bronx:        "62",
	Brooklyn:     "24",
	Queens:       "41",
	StatenIsland: "43",
}

// CountyCode returns the filing system's county selector value.
func (b Borough) CountyCode() string {
	return countyCodes[b]
}

// ParseBorough validates a borough name as it appears in the CSV stores.
func ParseBorough(s string) (Borough, error) {
	for _, b := range AllBoroughs {
		if string(b) == s {
			return b, nil
		}
	}
	return "", eris.Errorf("model: unknown borough %q", s)
}

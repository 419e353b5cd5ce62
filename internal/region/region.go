// Package region holds the fixed set of geographic regions used to partition
// stored resorts, and the decision tree that maps a coordinate onto one of them.
package region

import (
	"fmt"
	"strings"
)

// Region is a coarse geographic partition used both as storage key and query filter.
type Region string

// The closed set of supported regions.
const (
	Africa              Region = "africa"
	Asia                Region = "asia"
	Europe              Region = "europe"
	NorthAmerica        Region = "north-america"
	SouthAmerica        Region = "south-america"
	AustraliaAndOceania Region = "australia-and-oceania"
)

// All lists every supported region.
var All = []Region{Africa, Asia, Europe, NorthAmerica, SouthAmerica, AustraliaAndOceania}

// Parse returns the Region named by s, or an error if s is not one of All.
func Parse(s string) (Region, error) {
	for _, r := range All {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown region %q", s)
}

// Valid reports whether r is one of the supported regions.
func (r Region) Valid() bool {
	_, err := Parse(string(r))
	return err == nil
}

func (r Region) String() string {
	return string(r)
}

// TableName derives a storage identifier from a region or crawl address key:
// lowercased, with every rune outside [a-z0-9] replaced by an underscore.
func TableName(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// Classify maps c onto a region. It is total over the coordinate domain and
// uses strict comparisons, so boundary values fall into the else branch.
func Classify(c Coordinate) Region {
	lat, lng := c.Latitude, c.Longitude
	if lat > 0 {
		if lng > -20 {
			if lng > 60 {
				return Asia
			}
			if lat > 25 {
				return Europe
			}
			return Africa
		}
		return NorthAmerica
	}
	if lng > -20 {
		if lng > 70 {
			return AustraliaAndOceania
		}
		return Africa
	}
	return SouthAmerica
}

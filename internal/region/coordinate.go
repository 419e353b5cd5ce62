package region

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// DegreeSign separates and terminates the two halves of an encoded coordinate.
const DegreeSign = "°"

var (
	// ErrCoordinateFormat is returned when an encoded coordinate does not match lat°lng°.
	ErrCoordinateFormat = errors.New("coordinate must look like <lat>°<lng>°")
	// ErrCoordinateRange is returned for latitudes outside [-90,90] or longitudes outside [-180,180].
	ErrCoordinateRange = errors.New("coordinate out of range")

	coordPattern = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)°(-?\d+(?:\.\d+)?)°$`)
	world        = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}
)

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// NewCoordinate builds a Coordinate, rejecting values outside the globe.
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lng}
	if math.IsNaN(lat) || math.IsNaN(lng) || !world.Contains(c.Point()) {
		return Coordinate{}, fmt.Errorf("%w: %s", ErrCoordinateRange, c)
	}
	return c, nil
}

// ParseDegrees decodes the lat°lng° form used by the ranking API. A
// percent-encoded degree sign (%C2%B0) is accepted as well.
func ParseDegrees(raw string) (Coordinate, error) {
	raw = strings.ReplaceAll(raw, "%C2%B0", DegreeSign)
	m := coordPattern.FindStringSubmatch(raw)
	if m == nil {
		return Coordinate{}, ErrCoordinateFormat
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse longitude: %w", err)
	}
	return NewCoordinate(lat, lng)
}

// Point returns c as an orb point (longitude first).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// Degrees renders c in the lat°lng° form accepted by ParseDegrees.
func (c Coordinate) Degrees() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + DegreeSign +
		strconv.FormatFloat(c.Longitude, 'f', -1, 64) + DegreeSign
}

// String renders c as "lat,lng", the waypoint form used by routing services.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

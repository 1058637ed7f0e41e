// Package coords parses lane endpoints written as decimal degrees, degrees
// minutes seconds, or MGRS grid references into WGS84 points.
package coords

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/akhenakh/mgrs"
)

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Validate checks that p lies inside the WGS84 range.
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %v", p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %v", p.Longitude)
	}
	return nil
}

// String renders p as "lat,lon" with six decimals.
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude, p.Longitude)
}

// Format is a detected coordinate notation.
type Format int

const (
	FormatUnknown Format = iota
	FormatDecimal
	FormatDMS
	FormatMGRS
)

func (f Format) String() string {
	switch f {
	case FormatDecimal:
		return "decimal"
	case FormatDMS:
		return "dms"
	case FormatMGRS:
		return "mgrs"
	default:
		return "unknown"
	}
}

var (
	// 47QNB8598697460, 4QFJ1234
	mgrsRegex = regexp.MustCompile(`(?i)^(\d{1,2})([C-HJ-NP-X])([A-HJ-NP-Z]{2})(\d{2,10})$`)

	// 19°51'22"N 99°48'59"E, 19d51m22sN 99d48m59sE, 19 51 22 N 99 48 59 E
	dmsRegex = regexp.MustCompile(`(?i)^(\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([NS])[\s,]+(\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([EW])$`)

	// 40.4168, -3.7038 or 40.4168 -3.7038
	decimalRegex = regexp.MustCompile(`^(-?\d+\.?\d*)[,\s]+(-?\d+\.?\d*)$`)
)

// Detect returns the notation of input without converting it.
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return FormatUnknown
	case mgrsRegex.MatchString(input):
		return FormatMGRS
	case dmsRegex.MatchString(input):
		return FormatDMS
	case decimalRegex.MatchString(input):
		return FormatDecimal
	}
	return FormatUnknown
}

// Parse converts input in any supported notation to a Point.
func Parse(input string) (Point, Format, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Point{}, FormatUnknown, fmt.Errorf("empty coordinate string")
	}

	var (
		p   Point
		err error
	)
	f := Detect(input)
	switch f {
	case FormatMGRS:
		p, err = parseMGRS(input)
	case FormatDMS:
		p, err = parseDMS(input)
	case FormatDecimal:
		p, err = parseDecimal(input)
	default:
		return Point{}, FormatUnknown, fmt.Errorf("unrecognized coordinate format: %q", input)
	}
	if err != nil {
		return Point{}, f, err
	}
	if err := p.Validate(); err != nil {
		return Point{}, f, err
	}
	return p, f, nil
}

func parseMGRS(input string) (Point, error) {
	lat, lon, err := mgrs.MGRSToLatLng(strings.ToUpper(input))
	if err != nil {
		return Point{}, fmt.Errorf("MGRS conversion failed: %w", err)
	}
	return Point{Latitude: lat, Longitude: lon}, nil
}

func parseDMS(input string) (Point, error) {
	m := dmsRegex.FindStringSubmatch(input)
	if m == nil {
		return Point{}, fmt.Errorf("invalid DMS format: %q", input)
	}

	lat, err := dmsToDecimal(m[1], m[2], m[3], 90)
	if err != nil {
		return Point{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := dmsToDecimal(m[5], m[6], m[7], 180)
	if err != nil {
		return Point{}, fmt.Errorf("longitude: %w", err)
	}

	if strings.EqualFold(m[4], "S") {
		lat = -lat
	}
	if strings.EqualFold(m[8], "W") {
		lon = -lon
	}
	return Point{Latitude: lat, Longitude: lon}, nil
}

func dmsToDecimal(degS, minS, secS string, maxDeg float64) (float64, error) {
	deg, _ := strconv.ParseFloat(degS, 64)
	min, _ := strconv.ParseFloat(minS, 64)
	sec, _ := strconv.ParseFloat(secS, 64)
	if deg > maxDeg || min >= 60 || sec >= 60 {
		return 0, fmt.Errorf("out of range: %s°%s'%s\"", degS, minS, secS)
	}
	return deg + min/60 + sec/3600, nil
}

func parseDecimal(input string) (Point, error) {
	m := decimalRegex.FindStringSubmatch(input)
	if m == nil {
		return Point{}, fmt.Errorf("invalid decimal format: %q", input)
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid latitude: %s", m[1])
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid longitude: %s", m[2])
	}
	return Point{Latitude: lat, Longitude: lon}, nil
}

// ToMGRS renders p as an MGRS reference. Precision 1 to 5 selects 10 km
// down to 1 m; anything else selects 1 m.
func ToMGRS(p Point, precision int) (string, error) {
	if precision < 1 || precision > 5 {
		precision = 5
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	ref, err := mgrs.LatLngToMGRS(p.Latitude, p.Longitude, precision)
	if err != nil {
		return "", fmt.Errorf("MGRS conversion failed: %w", err)
	}
	return ref, nil
}

package domain

import (
	"math"
	"strconv"
	"strings"
)

// Immutable geographic coordinates (latitude, longitude) in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Valid reports whether the coordinates fall inside the WGS84 ranges.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// RawStop is a stop as received from a client, before validation.
// Lat/Lng hold the textual value so numeric strings can be accepted.
type RawStop struct {
	Lat *string
	Lng *string
}

const (
	ReasonMissing    = "missing coordinates"
	ReasonNonNumeric = "non-numeric coordinates"
	ReasonOutOfRange = "coordinates out of range"
)

// CoordinateWarning describes a stop that was dropped during filtering.
// Index refers to the position in the unfiltered input.
type CoordinateWarning struct {
	Index  int
	Reason string
}

// FilteredStops is the result of FilterStops. Coords[i] came from
// input position OriginalIndex[i].
type FilteredStops struct {
	Coords        []Coordinates
	OriginalIndex []int
	Warnings      []CoordinateWarning
}

// FilterStops drops stops with missing, non-numeric or out-of-range coordinates.
// The surviving stops are re-indexed contiguously from 0; index 0 is the depot.
func FilterStops(raw []RawStop) FilteredStops {
	out := FilteredStops{
		Coords:        make([]Coordinates, 0, len(raw)),
		OriginalIndex: make([]int, 0, len(raw)),
	}

	for i, s := range raw {
		if s.Lat == nil || s.Lng == nil {
			out.Warnings = append(out.Warnings, CoordinateWarning{Index: i, Reason: ReasonMissing})
			continue
		}

		lat, errLat := strconv.ParseFloat(strings.TrimSpace(*s.Lat), 64)
		lng, errLng := strconv.ParseFloat(strings.TrimSpace(*s.Lng), 64)
		if errLat != nil || errLng != nil {
			out.Warnings = append(out.Warnings, CoordinateWarning{Index: i, Reason: ReasonNonNumeric})
			continue
		}

		c := Coordinates{Lat: lat, Lon: lng}
		if !c.Valid() {
			out.Warnings = append(out.Warnings, CoordinateWarning{Index: i, Reason: ReasonOutOfRange})
			continue
		}

		out.Coords = append(out.Coords, c)
		out.OriginalIndex = append(out.OriginalIndex, i)
	}

	return out
}

const EarthRadiusMeters = 6371000.0

// HaversineMeters is the great-circle distance between a and b.
func HaversineMeters(a, b Coordinates) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	sinDLat := math.Sin((lat1 - lat2) / 2)
	sinDLon := math.Sin((a.Lon - b.Lon) * math.Pi / 180 / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return CentralAngle(h) * EarthRadiusMeters
}

// CentralAngle turns the haversine term into the central angle in radians.
// Rounding can push the term just outside [0, 1] for antipodal points, so
// it is clamped first.
func CentralAngle(h float64) float64 {
	h = math.Min(1, math.Max(0, h))
	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

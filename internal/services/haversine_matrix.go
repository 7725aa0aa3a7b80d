package services

import (
	"fleet-dispatch-service/internal/domain"
	"math"
)

// BuildHaversineMatrix returns the great-circle distance in whole meters
// between every pair of stops.
//
// Per-stop terms (radian lat/lon and cos(lat)) are computed once and the
// whole matrix is filled from them; each entry is truncated toward zero.
// The upper triangle is mirrored so the result is exactly symmetric with a
// zero diagonal.
func BuildHaversineMatrix(coords []domain.Coordinates) domain.CostMatrix {
	n := len(coords)
	lat := make([]float64, n)
	lon := make([]float64, n)
	cosLat := make([]float64, n)
	for i, c := range coords {
		lat[i] = c.Lat * math.Pi / 180
		lon[i] = c.Lon * math.Pi / 180
		cosLat[i] = math.Cos(lat[i])
	}

	m := make(domain.CostMatrix, n)
	for i := range m {
		m[i] = make([]int64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sinDLat := math.Sin((lat[i] - lat[j]) / 2)
			sinDLon := math.Sin((lon[i] - lon[j]) / 2)
			a := sinDLat*sinDLat + cosLat[i]*cosLat[j]*sinDLon*sinDLon
			d := int64(domain.EarthRadiusMeters * domain.CentralAngle(a))
			m[i][j] = d
			m[j][i] = d
		}
	}

	return m
}

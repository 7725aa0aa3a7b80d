package dto

import (
	"fleet-dispatch-service/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// RouteGeometry returns the depot as a Point feature followed by one
// LineString per active route. Stop indices refer to coords.
func RouteGeometry(coords []domain.Coordinates, sol *domain.RouteSolution) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if len(coords) == 0 || sol == nil {
		return fc
	}

	depot := geojson.NewFeature(toPoint(coords[domain.DepotIndex]))
	depot.Properties["kind"] = "depot"
	depot.Properties["stop"] = domain.DepotIndex
	fc.Append(depot)

	for _, r := range sol.ActiveRoutes() {
		line := make(orb.LineString, 0, len(r.Stops))
		for _, s := range r.Stops {
			if s < 0 || s >= len(coords) {
				continue
			}
			line = append(line, toPoint(coords[s]))
		}

		f := geojson.NewFeature(line)
		f.Properties["kind"] = "route"
		f.Properties["vehicle"] = r.Vehicle
		f.Properties["stops"] = r.Stops
		f.Properties["cost"] = r.Cost
		f.Properties["cost_model"] = string(sol.CostModel)
		fc.Append(f)
	}
	return fc
}

func toPoint(c domain.Coordinates) orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

package ports

import (
	"context"
	"fleet-dispatch-service/internal/domain"
)

// TravelTimeTable is a raw provider table in seconds.
// A nil entry marks an unreachable pair.
type TravelTimeTable struct {
	Durations [][]*float64
	Provider  string
	Realtime  bool
}

// Contract for retrieving a full pairwise travel-time table in one call.
type TravelTimeProvider interface {
	TravelTimes(ctx context.Context, coords []domain.Coordinates) (TravelTimeTable, error)
	// Name identifies the provider and profile, e.g. "osrm/driving".
	Name() string
}

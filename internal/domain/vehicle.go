package domain

// Fleet describes the vehicles available for one solve. Every vehicle starts
// and ends at the depot and shares the same capacity, counted in stops served.
type Fleet struct {
	Vehicles int
	// Capacity is 0 when the solve is unconstrained.
	Capacity int
}

// NewFleet derives the per-vehicle capacity for a problem with the given
// number of stops (depot included).
//
// A capacity of ceil(customers/vehicles) is applied only when there is more
// than one vehicle and more stops than vehicles. With a single vehicle, or with
// enough vehicles that capacity cannot bind, the fleet is unconstrained.
func NewFleet(stops, vehicles int) Fleet {
	f := Fleet{Vehicles: vehicles}
	if stops > vehicles && vehicles > 1 {
		customers := stops - 1
		f.Capacity = max(1, (customers+vehicles-1)/vehicles)
	}
	return f
}

func (f Fleet) Constrained() bool { return f.Capacity > 0 }

// Demands returns the per-stop demand: 0 for the depot and 1 for every customer.
func Demands(stops int) []int64 {
	d := make([]int64, stops)
	for i := 1; i < stops; i++ {
		d[i] = 1
	}
	return d
}

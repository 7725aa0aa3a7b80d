package domain

import (
	"fmt"
	"time"
)

const DepotIndex = 0

// Represents the planned route for a single vehicle.
// Stops starts and ends at the depot; an unused vehicle has the trivial
// route [depot, depot] with zero cost.
type Route struct {
	Vehicle         int
	Stops           []int
	Cost            int64
	CustomersServed int
}

// Active reports whether the route serves at least one customer.
func (r Route) Active() bool { return len(r.Stops) > 2 }

// Customers returns the route's stops with the depot removed, in visiting order.
func (r Route) Customers() []int {
	out := make([]int, 0, len(r.Stops))
	for _, s := range r.Stops {
		if s != DepotIndex {
			out = append(out, s)
		}
	}
	return out
}

// SolverInfo carries diagnostics reported alongside a solve.
type SolverInfo struct {
	SolveTime time.Duration
	TimeLimit time.Duration
	Status    string
	// TimeLimitReached is a best-effort signal: true when the solve used at
	// least 95% of its budget.
	TimeLimitReached      bool
	FirstSolutionStrategy string
	Metaheuristic         string
}

// RouteSolution is the normalized output of one solve. It is immutable
// planning data once returned by the orchestrator.
type RouteSolution struct {
	CostModel          CostModel
	VehicleCount       int
	Capacity           int
	Routes             []Route
	TotalCost          int64
	SolutionFound      bool
	Solver             SolverInfo
	ActiveVehicles     int
	VehicleUtilization float64
}

// ActiveRoutes returns routes that serve at least one customer.
func (s *RouteSolution) ActiveRoutes() []Route {
	out := make([]Route, 0, len(s.Routes))
	for _, r := range s.Routes {
		if r.CustomersServed > 0 {
			out = append(out, r)
		}
	}
	return out
}

// CustomerAssignments maps every non-depot stop to the vehicle serving it.
func (s *RouteSolution) CustomerAssignments() map[int]int {
	return CustomerAssignments(s.Routes)
}

// CustomerAssignments maps every non-depot stop in routes to its vehicle.
func CustomerAssignments(routes []Route) map[int]int {
	out := make(map[int]int)
	for _, r := range routes {
		for _, s := range r.Stops {
			if s != DepotIndex {
				out[s] = r.Vehicle
			}
		}
	}
	return out
}

// Covers verifies that every customer 1..stops-1 is served exactly once.
func (s *RouteSolution) Covers(stops int) error {
	seen := make(map[int]int, stops)
	for _, r := range s.Routes {
		if len(r.Stops) < 2 || r.Stops[0] != DepotIndex || r.Stops[len(r.Stops)-1] != DepotIndex {
			return fmt.Errorf("route %d does not start and end at the depot", r.Vehicle)
		}
		for _, st := range r.Customers() {
			if st < 1 || st >= stops {
				return fmt.Errorf("route %d visits unknown stop %d", r.Vehicle, st)
			}
			seen[st]++
		}
	}
	for c := 1; c < stops; c++ {
		if seen[c] != 1 {
			return fmt.Errorf("stop %d served %d times", c, seen[c])
		}
	}
	return nil
}

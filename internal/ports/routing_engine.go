package ports

import (
	"context"
	"time"
)

type FirstSolutionStrategy string

const (
	ParallelCheapestInsertion FirstSolutionStrategy = "PARALLEL_CHEAPEST_INSERTION"
	PathCheapestArc           FirstSolutionStrategy = "PATH_CHEAPEST_ARC"
)

type Metaheuristic string

const (
	GuidedLocalSearch Metaheuristic = "GUIDED_LOCAL_SEARCH"
	NoMetaheuristic   Metaheuristic = "NONE"
)

type EngineStatus string

const (
	StatusNotSolved   EngineStatus = "ROUTING_NOT_SOLVED"
	StatusSuccess     EngineStatus = "ROUTING_SUCCESS"
	StatusFail        EngineStatus = "ROUTING_FAIL"
	StatusFailTimeout EngineStatus = "ROUTING_FAIL_TIMEOUT"
	StatusInvalid     EngineStatus = "ROUTING_INVALID"
)

// CapacityDimension bounds the cumulative demand served by each vehicle.
type CapacityDimension struct {
	Name              string
	Demands           []int64
	VehicleCapacities []int64
}

// RoutingProblem is a fresh, self-contained routing instance.
// Engines must not retain it after Solve returns.
type RoutingProblem struct {
	Costs          [][]int64
	VehicleCount   int
	Depot          int
	Capacity       *CapacityDimension
	FirstSolution  FirstSolutionStrategy
	Metaheuristic  Metaheuristic
	TimeLimit      time.Duration
	IterationLimit int
}

// EngineRoute is one vehicle's node sequence including both depot visits.
// ArcCosts[i] is the cost the engine charged for Nodes[i] -> Nodes[i+1].
type EngineRoute struct {
	Vehicle  int
	Nodes    []int
	ArcCosts []int64
}

type RoutingResult struct {
	Status EngineStatus
	// Routes is empty unless Status is StatusSuccess.
	Routes []EngineRoute
}

// Port: a capacitated routing solver.
type RoutingEngine interface {
	// Solve searches for a low-cost assignment within the problem's time limit.
	// "No solution" is reported through the result status; an error means the
	// problem itself was malformed.
	Solve(ctx context.Context, p RoutingProblem) (RoutingResult, error)
}

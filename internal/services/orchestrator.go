package services

import (
	"context"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/platform/obs"
	"fleet-dispatch-service/internal/ports"
	"fmt"
	"log/slog"
	"time"
)

const (
	MinVehicles = 1
	MaxVehicles = 20

	capacityDimension = "Capacity"
	// A solve that used at least this share of its budget is reported as
	// having reached the time limit.
	timeLimitReachedRatio = 0.95
)

// Orchestrator frames one capacitated routing instance, runs it through a
// RoutingEngine and normalizes the engine output into a RouteSolution.
type Orchestrator struct {
	engine  ports.RoutingEngine
	logger  *slog.Logger
	metrics *obs.Metrics
}

func NewOrchestrator(engine ports.RoutingEngine, logger *slog.Logger, metrics *obs.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{engine: engine, logger: logger, metrics: metrics}
}

// Solve returns a RouteSolution for matrix (depot at index 0). An error is
// returned only for invalid input; an engine that finds no solution yields
// a solution with SolutionFound set to false.
func (o *Orchestrator) Solve(
	ctx context.Context,
	matrix domain.CostMatrix,
	costModel domain.CostModel,
	vehicles int,
	timeLimit time.Duration,
) (*domain.RouteSolution, error) {
	n := matrix.Size()
	if n < 2 {
		return nil, domain.NewValidationError("routing needs a depot and at least one customer, got %d stops", n)
	}
	if err := matrix.Validate(); err != nil {
		return nil, &domain.ValidationError{Reason: err.Error()}
	}
	if vehicles < MinVehicles || vehicles > MaxVehicles {
		return nil, domain.NewValidationError("vehicles must be %d..%d", MinVehicles, MaxVehicles)
	}
	if timeLimit <= 0 {
		return nil, domain.NewValidationError("time limit must be positive")
	}

	fleet := domain.NewFleet(n, vehicles)
	problem := buildProblem(matrix, fleet, timeLimit)

	start := time.Now()
	res, err := o.engine.Solve(ctx, problem)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: solve %d stops with %d vehicles: %w", n, vehicles, err)
	}

	sol := &domain.RouteSolution{
		CostModel:    costModel,
		VehicleCount: vehicles,
		Capacity:     fleet.Capacity,
		Routes:       []domain.Route{},
		Solver: domain.SolverInfo{
			SolveTime:             elapsed,
			TimeLimit:             timeLimit,
			Status:                string(res.Status),
			TimeLimitReached:      float64(elapsed) >= float64(timeLimit)*timeLimitReachedRatio,
			FirstSolutionStrategy: string(problem.FirstSolution),
			Metaheuristic:         string(problem.Metaheuristic),
		},
	}

	if res.Status == ports.StatusSuccess && len(res.Routes) > 0 {
		sol.SolutionFound = true
		sol.Routes = extractRoutes(res.Routes, vehicles)
		for _, r := range sol.Routes {
			sol.TotalCost += r.Cost
			if r.Active() {
				sol.ActiveVehicles++
			}
		}
		sol.VehicleUtilization = float64(sol.ActiveVehicles) / float64(vehicles)
	}

	o.logger.InfoContext(ctx, "routing solve",
		"req_id", obs.RequestID(ctx),
		"cost_model", costModel,
		"stops", n,
		"vehicles", vehicles,
		"capacity", fleet.Capacity,
		"strategy", problem.FirstSolution,
		"time_limit_ms", timeLimit.Milliseconds(),
		"solve_ms", elapsed.Milliseconds(),
		"status", res.Status,
		"solution_found", sol.SolutionFound,
		"total_cost", sol.TotalCost,
		"active_vehicles", sol.ActiveVehicles,
		"time_limit_reached", sol.Solver.TimeLimitReached,
	)
	o.metrics.ObserveSolve(string(costModel), string(res.Status), elapsed, sol.Solver.TimeLimitReached)

	return sol, nil
}

func buildProblem(matrix domain.CostMatrix, fleet domain.Fleet, timeLimit time.Duration) ports.RoutingProblem {
	p := ports.RoutingProblem{
		Costs:         matrix,
		VehicleCount:  fleet.Vehicles,
		Depot:         domain.DepotIndex,
		Metaheuristic: ports.GuidedLocalSearch,
		TimeLimit:     timeLimit,
	}

	// Insertion grows several empty routes at once; a lone route starts from
	// greedy arc extension.
	if fleet.Vehicles > 1 {
		p.FirstSolution = ports.ParallelCheapestInsertion
	} else {
		p.FirstSolution = ports.PathCheapestArc
	}

	if fleet.Constrained() {
		caps := make([]int64, fleet.Vehicles)
		for v := range caps {
			caps[v] = int64(fleet.Capacity)
		}
		p.Capacity = &ports.CapacityDimension{
			Name:              capacityDimension,
			Demands:           domain.Demands(matrix.Size()),
			VehicleCapacities: caps,
		}
	}

	return p
}

// extractRoutes walks each vehicle's engine route, summing the engine's own
// arc costs. Vehicles the engine did not report get [depot, depot].
func extractRoutes(engineRoutes []ports.EngineRoute, vehicles int) []domain.Route {
	byVehicle := make(map[int]ports.EngineRoute, len(engineRoutes))
	for _, er := range engineRoutes {
		byVehicle[er.Vehicle] = er
	}

	routes := make([]domain.Route, 0, vehicles)
	for v := 0; v < vehicles; v++ {
		er, ok := byVehicle[v]
		if !ok || len(er.Nodes) < 2 {
			routes = append(routes, domain.Route{
				Vehicle: v,
				Stops:   []int{domain.DepotIndex, domain.DepotIndex},
			})
			continue
		}

		r := domain.Route{Vehicle: v, Stops: append([]int(nil), er.Nodes...)}
		for _, c := range er.ArcCosts {
			r.Cost += c
		}
		for _, s := range er.Nodes {
			if s != domain.DepotIndex {
				r.CustomersServed++
			}
		}
		routes = append(routes, r)
	}

	return routes
}

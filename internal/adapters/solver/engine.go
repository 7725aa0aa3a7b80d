package solver

import (
	"context"
	"errors"
	"fleet-dispatch-service/internal/ports"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Engine implements ports.RoutingEngine with an in-process capacitated
// vehicle routing search: a constructive first solution followed by
// local search, optionally guided by arc penalties.
//
// Engine holds no per-solve state; every Solve builds its own search
// and the engine is safe for concurrent use.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

func (e *Engine) Solve(ctx context.Context, p ports.RoutingProblem) (ports.RoutingResult, error) {
	if err := validateProblem(p); err != nil {
		return ports.RoutingResult{Status: ports.StatusInvalid}, fmt.Errorf("solve: %w", err)
	}

	s := newSearch(ctx, p)

	var ok bool
	switch p.FirstSolution {
	case ports.PathCheapestArc:
		ok = s.pathCheapestArc()
	default:
		ok = s.parallelCheapestInsertion()
	}
	if !ok {
		status := ports.StatusFail
		if s.stopped() {
			status = ports.StatusFailTimeout
		}
		e.logger.DebugContext(ctx, "no first solution", "strategy", p.FirstSolution, "status", status)
		return ports.RoutingResult{Status: status}, nil
	}

	var stats searchStats
	switch p.Metaheuristic {
	case ports.GuidedLocalSearch:
		stats = s.guidedLocalSearch()
	default:
		s.localSearch()
		stats = searchStats{bestCost: s.realCost(s.routes)}
		s.best = s.cloneRoutes()
	}

	e.logger.DebugContext(ctx, "search finished",
		"strategy", p.FirstSolution,
		"metaheuristic", p.Metaheuristic,
		"iterations", stats.iterations,
		"improvements", stats.improvements,
		"best_cost", stats.bestCost,
	)

	return ports.RoutingResult{
		Status: ports.StatusSuccess,
		Routes: s.engineRoutes(s.best),
	}, nil
}

func validateProblem(p ports.RoutingProblem) error {
	n := len(p.Costs)
	if n == 0 {
		return errors.New("cost matrix is empty")
	}
	for i, row := range p.Costs {
		if len(row) != n {
			return fmt.Errorf("cost matrix row %d has %d columns, want %d", i, len(row), n)
		}
		for j, c := range row {
			if c < 0 {
				return fmt.Errorf("negative cost at (%d,%d)", i, j)
			}
		}
	}
	if p.VehicleCount < 1 {
		return fmt.Errorf("vehicle count must be positive, got %d", p.VehicleCount)
	}
	if p.Depot < 0 || p.Depot >= n {
		return fmt.Errorf("depot %d out of range", p.Depot)
	}
	if p.TimeLimit <= 0 {
		return fmt.Errorf("time limit must be positive, got %s", p.TimeLimit)
	}
	if p.Capacity != nil {
		if len(p.Capacity.Demands) != n {
			return fmt.Errorf("capacity %q: %d demands for %d nodes", p.Capacity.Name, len(p.Capacity.Demands), n)
		}
		if len(p.Capacity.VehicleCapacities) != p.VehicleCount {
			return fmt.Errorf("capacity %q: %d vehicle capacities for %d vehicles",
				p.Capacity.Name, len(p.Capacity.VehicleCapacities), p.VehicleCount)
		}
	}
	return nil
}

type searchStats struct {
	iterations   int
	improvements int
	bestCost     int64
}

// search is the request-scoped state of one Solve call.
type search struct {
	ctx      context.Context
	deadline time.Time
	maxIter  int

	c        [][]int64
	n        int
	vehicles int
	depot    int
	demand   []int64
	capacity []int64

	// routes holds full node sequences, depot at both ends.
	routes [][]int
	loads  []int64
	best   [][]int

	// Guided local search penalties; nil until the metaheuristic starts.
	pen    [][]int32
	lambda float64
}

func newSearch(ctx context.Context, p ports.RoutingProblem) *search {
	n := len(p.Costs)
	s := &search{
		ctx:      ctx,
		deadline: time.Now().Add(p.TimeLimit),
		maxIter:  p.IterationLimit,
		c:        p.Costs,
		n:        n,
		vehicles: p.VehicleCount,
		depot:    p.Depot,
		demand:   make([]int64, n),
		capacity: make([]int64, p.VehicleCount),
		routes:   make([][]int, p.VehicleCount),
		loads:    make([]int64, p.VehicleCount),
	}

	for v := range s.capacity {
		s.capacity[v] = math.MaxInt64
	}
	if p.Capacity != nil {
		copy(s.demand, p.Capacity.Demands)
		copy(s.capacity, p.Capacity.VehicleCapacities)
	}
	for v := range s.routes {
		s.routes[v] = []int{s.depot, s.depot}
	}

	return s
}

func (s *search) stopped() bool {
	if s.ctx.Err() != nil {
		return true
	}
	return !time.Now().Before(s.deadline)
}

// arc returns the cost used by the search: the matrix cost plus the
// guided local search penalty when one is active.
func (s *search) arc(i, j int) float64 {
	v := float64(s.c[i][j])
	if s.lambda > 0 {
		v += s.lambda * float64(s.pen[i][j])
	}
	return v
}

func (s *search) realCost(routes [][]int) int64 {
	var total int64
	for _, r := range routes {
		for k := 1; k < len(r); k++ {
			total += s.c[r[k-1]][r[k]]
		}
	}
	return total
}

func (s *search) cloneRoutes() [][]int {
	out := make([][]int, len(s.routes))
	for i, r := range s.routes {
		out[i] = append([]int(nil), r...)
	}
	return out
}

func (s *search) engineRoutes(routes [][]int) []ports.EngineRoute {
	out := make([]ports.EngineRoute, 0, len(routes))
	for v, r := range routes {
		arcs := make([]int64, 0, len(r)-1)
		for k := 1; k < len(r); k++ {
			arcs = append(arcs, s.c[r[k-1]][r[k]])
		}
		out = append(out, ports.EngineRoute{
			Vehicle:  v,
			Nodes:    append([]int(nil), r...),
			ArcCosts: arcs,
		})
	}
	return out
}

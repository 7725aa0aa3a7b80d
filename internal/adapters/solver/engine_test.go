package solver

import (
	"context"
	"fleet-dispatch-service/internal/ports"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomMatrix(n int, seed int64, symmetric bool) [][]int64 {
	rng := rand.New(rand.NewSource(seed))
	m := make([][]int64, n)
	for i := range m {
		m[i] = make([]int64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if symmetric && j < i {
				m[i][j] = m[j][i]
				continue
			}
			m[i][j] = int64(100 + rng.Intn(5000))
		}
	}
	return m
}

func capacitated(n, vehicles int, capacity int64) *ports.CapacityDimension {
	demands := make([]int64, n)
	for i := 1; i < n; i++ {
		demands[i] = 1
	}
	caps := make([]int64, vehicles)
	for v := range caps {
		caps[v] = capacity
	}
	return &ports.CapacityDimension{Name: "Capacity", Demands: demands, VehicleCapacities: caps}
}

func assertFeasible(t *testing.T, p ports.RoutingProblem, res ports.RoutingResult) {
	t.Helper()

	require.Equal(t, ports.StatusSuccess, res.Status)
	require.Len(t, res.Routes, p.VehicleCount)

	seen := make(map[int]int)
	for _, r := range res.Routes {
		require.GreaterOrEqual(t, len(r.Nodes), 2)
		assert.Equal(t, p.Depot, r.Nodes[0])
		assert.Equal(t, p.Depot, r.Nodes[len(r.Nodes)-1])
		require.Len(t, r.ArcCosts, len(r.Nodes)-1)

		served := 0
		for k, node := range r.Nodes {
			if k > 0 {
				assert.Equal(t, p.Costs[r.Nodes[k-1]][node], r.ArcCosts[k-1])
			}
			if node != p.Depot {
				seen[node]++
				served++
			}
		}
		if p.Capacity != nil {
			assert.LessOrEqual(t, int64(served), p.Capacity.VehicleCapacities[r.Vehicle])
		}
	}

	for node := 0; node < len(p.Costs); node++ {
		if node == p.Depot {
			continue
		}
		assert.Equal(t, 1, seen[node], "node %d", node)
	}
}

func totalCost(res ports.RoutingResult) int64 {
	var total int64
	for _, r := range res.Routes {
		for _, c := range r.ArcCosts {
			total += c
		}
	}
	return total
}

func TestEngineSingleVehicleSquare(t *testing.T) {
	// Unit square, depot at a corner: the optimal tour is the perimeter.
	costs := [][]int64{
		{0, 10, 14, 10},
		{10, 0, 10, 14},
		{14, 10, 0, 10},
		{10, 14, 10, 0},
	}
	p := ports.RoutingProblem{
		Costs:         costs,
		VehicleCount:  1,
		FirstSolution: ports.PathCheapestArc,
		Metaheuristic: ports.GuidedLocalSearch,
		TimeLimit:     200 * time.Millisecond,
	}

	res, err := NewEngine(nil).Solve(context.Background(), p)
	require.NoError(t, err)
	assertFeasible(t, p, res)
	assert.Equal(t, int64(40), totalCost(res))
}

func TestEngineCapacitatedCoversAllCustomers(t *testing.T) {
	for _, tc := range []struct {
		name     string
		n        int
		vehicles int
		sym      bool
	}{
		{name: "symmetric", n: 25, vehicles: 4, sym: true},
		{name: "asymmetric", n: 30, vehicles: 3, sym: false},
		{name: "more vehicles than customers", n: 4, vehicles: 6, sym: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := ports.RoutingProblem{
				Costs:          randomMatrix(tc.n, 7, tc.sym),
				VehicleCount:   tc.vehicles,
				FirstSolution:  ports.ParallelCheapestInsertion,
				Metaheuristic:  ports.GuidedLocalSearch,
				TimeLimit:      2 * time.Second,
				IterationLimit: 200,
			}
			if tc.n > tc.vehicles {
				capacity := int64((tc.n - 1 + tc.vehicles - 1) / tc.vehicles)
				p.Capacity = capacitated(tc.n, tc.vehicles, capacity)
			}

			res, err := NewEngine(nil).Solve(context.Background(), p)
			require.NoError(t, err)
			assertFeasible(t, p, res)
		})
	}
}

func TestEngineSearchImprovesFirstSolution(t *testing.T) {
	costs := randomMatrix(40, 11, true)
	base := ports.RoutingProblem{
		Costs:         costs,
		VehicleCount:  3,
		Capacity:      capacitated(40, 3, 13),
		FirstSolution: ports.ParallelCheapestInsertion,
		Metaheuristic: ports.NoMetaheuristic,
		TimeLimit:     2 * time.Second,
	}

	plain, err := NewEngine(nil).Solve(context.Background(), base)
	require.NoError(t, err)

	guided := base
	guided.Metaheuristic = ports.GuidedLocalSearch
	guided.IterationLimit = 300
	gls, err := NewEngine(nil).Solve(context.Background(), guided)
	require.NoError(t, err)

	assertFeasible(t, guided, gls)
	assert.LessOrEqual(t, totalCost(gls), totalCost(plain))
}

func TestEngineDeterministicWithIterationLimit(t *testing.T) {
	p := ports.RoutingProblem{
		Costs:          randomMatrix(20, 3, false),
		VehicleCount:   2,
		Capacity:       capacitated(20, 2, 10),
		FirstSolution:  ports.ParallelCheapestInsertion,
		Metaheuristic:  ports.GuidedLocalSearch,
		TimeLimit:      10 * time.Second,
		IterationLimit: 50,
	}

	e := NewEngine(nil)
	a, err := e.Solve(context.Background(), p)
	require.NoError(t, err)
	b, err := e.Solve(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEngineInfeasibleCapacity(t *testing.T) {
	p := ports.RoutingProblem{
		Costs:         randomMatrix(6, 1, true),
		VehicleCount:  2,
		Capacity:      capacitated(6, 2, 2),
		FirstSolution: ports.ParallelCheapestInsertion,
		Metaheuristic: ports.GuidedLocalSearch,
		TimeLimit:     100 * time.Millisecond,
	}

	res, err := NewEngine(nil).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ports.StatusFail, res.Status)
	assert.Empty(t, res.Routes)
}

func TestEngineCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := ports.RoutingProblem{
		Costs:         randomMatrix(5, 1, true),
		VehicleCount:  1,
		FirstSolution: ports.PathCheapestArc,
		Metaheuristic: ports.GuidedLocalSearch,
		TimeLimit:     time.Second,
	}

	res, err := NewEngine(nil).Solve(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, ports.StatusFailTimeout, res.Status)
}

func TestEngineRejectsMalformedProblem(t *testing.T) {
	e := NewEngine(nil)

	_, err := e.Solve(context.Background(), ports.RoutingProblem{
		Costs:        [][]int64{{0, 1}, {1}},
		VehicleCount: 1,
		TimeLimit:    time.Second,
	})
	require.Error(t, err)

	res, err := e.Solve(context.Background(), ports.RoutingProblem{
		Costs:        [][]int64{{0, 1}, {1, 0}},
		VehicleCount: 1,
	})
	require.Error(t, err)
	assert.Equal(t, ports.StatusInvalid, res.Status)
}

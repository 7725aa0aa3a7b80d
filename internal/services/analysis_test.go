package services

import (
	"fleet-dispatch-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func route(vehicle int, stops ...int) domain.Route {
	served := 0
	for _, s := range stops {
		if s != 0 {
			served++
		}
	}
	return domain.Route{Vehicle: vehicle, Stops: stops, CustomersServed: served}
}

func TestImprovementPct(t *testing.T) {
	assert.Equal(t, 0.0, ImprovementPct(1000, 1000))
	assert.Equal(t, 10.0, ImprovementPct(1000, 900))
	assert.Equal(t, -5.0, ImprovementPct(1000, 1050))
	assert.Equal(t, 0.0, ImprovementPct(0, 10))
	assert.Equal(t, 33.333, ImprovementPct(3, 2))
}

func TestImprovementCurve(t *testing.T) {
	runs := []domain.SweepRun{
		{TimeLimit: time.Second, EstimatedTime: 1000},
		{TimeLimit: 3 * time.Second, EstimatedTime: 970},
		{TimeLimit: 5 * time.Second, EstimatedTime: 970},
		{TimeLimit: 10 * time.Second, Err: assert.AnError},
		{TimeLimit: 20 * time.Second, EstimatedTime: 960},
	}

	curve := ImprovementCurve(runs)
	assert.Len(t, curve, 2)
	assert.Equal(t, 3.0, curve[0].ImprovementPct)
	assert.Equal(t, domain.SignificanceHigh, curve[0].Significance)
	assert.Equal(t, 3*time.Second, curve[1].From)
	assert.Equal(t, 0.0, curve[1].ImprovementPct)
	assert.Equal(t, domain.SignificanceNone, curve[1].Significance)
	assert.Equal(t, domain.SuddenConvergence, DetectPattern(curve))
	assert.Equal(t, domain.DiminishingReturns, DetectPattern(curve[1:]))
}

func TestRouteSimilarityIdentity(t *testing.T) {
	routes := []domain.Route{route(0, 0, 1, 2, 0), route(1, 0, 3, 4, 5, 0), route(2, 0, 0)}
	assert.Equal(t, 100.0, RouteSimilarity(routes, routes))
}

func TestRouteSimilarityEmpty(t *testing.T) {
	routes := []domain.Route{route(0, 0, 1, 0)}
	assert.Equal(t, 0.0, RouteSimilarity(routes, []domain.Route{route(0, 0, 0)}))
	assert.Equal(t, 0.0, RouteSimilarity(nil, routes))
}

func TestRouteSimilarityWeights(t *testing.T) {
	left := []domain.Route{route(0, 0, 1, 2, 0), route(1, 0, 3, 4, 0)}

	// Same assignment, one route reversed: 0.7*100 + 0.3*(1+0.7)/2*100.
	reordered := []domain.Route{route(0, 0, 2, 1, 0), route(1, 0, 3, 4, 0)}
	assert.InDelta(t, 95.5, RouteSimilarity(left, reordered), 1e-9)

	// Vehicles swapped: no customer on the same vehicle, every route matched.
	swapped := []domain.Route{route(0, 0, 3, 4, 0), route(1, 0, 1, 2, 0)}
	assert.InDelta(t, 30.0, RouteSimilarity(left, swapped), 1e-9)

	// One customer moved: 3/4 assignments agree, one route unmatched.
	moved := []domain.Route{route(0, 0, 1, 0), route(1, 0, 2, 3, 4, 0)}
	assert.InDelta(t, 0.7*75, RouteSimilarity(left, moved), 1e-9)
}

func TestRouteSimilaritySymmetric(t *testing.T) {
	cases := [][2][]domain.Route{
		{
			{route(0, 0, 1, 2, 0), route(1, 0, 3, 4, 0)},
			{route(0, 0, 2, 1, 0), route(1, 0, 4, 3, 0)},
		},
		{
			{route(0, 0, 1, 2, 3, 0), route(1, 0, 4, 5, 0), route(2, 0, 6, 0)},
			{route(0, 0, 1, 0), route(1, 0, 5, 4, 0), route(2, 0, 3, 2, 6, 0)},
		},
		{
			{route(0, 0, 1, 2, 3, 4, 5, 0)},
			{route(0, 0, 5, 4, 0), route(1, 0, 1, 2, 3, 0)},
		},
	}

	for _, c := range cases {
		assert.Equal(t, RouteSimilarity(c[0], c[1]), RouteSimilarity(c[1], c[0]))
	}
}

func TestAnalyzeDifferences(t *testing.T) {
	left := []domain.Route{route(0, 0, 1, 2, 0), route(1, 0, 3, 4, 0), route(2, 0, 0)}
	right := []domain.Route{route(0, 0, 2, 1, 0), route(1, 0, 3, 0), route(2, 0, 4, 0)}

	d := AnalyzeDifferences(left, right)
	assert.Equal(t, 1, d.DifferentAssignments)
	assert.Equal(t, 1, d.RouteOrderDifferences)
	assert.Equal(t, 4, d.TotalCustomers)
}

func TestPatternSimilarity(t *testing.T) {
	h := []domain.ImprovementRecord{{ImprovementPct: 1.0}, {ImprovementPct: 0.5}}
	o := []domain.ImprovementRecord{{ImprovementPct: 2.0}, {ImprovementPct: 0.5}}

	assert.InDelta(t, 95.0, PatternSimilarity(h, o), 1e-9)
	assert.Equal(t, 100.0, PatternSimilarity(h, h))
	assert.Equal(t, 0.0, PatternSimilarity(h, o[:1]))

	far := []domain.ImprovementRecord{{ImprovementPct: 30}, {ImprovementPct: 0.5}}
	assert.Equal(t, 0.0, PatternSimilarity(h, far))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, domain.VerdictVirtuallyIdentical, Classify(90, 95))
	assert.Equal(t, domain.VerdictSignificantlyDifferent, Classify(50, 50))
	assert.Equal(t, domain.VerdictVerySimilar, Classify(85, 90))
	assert.Equal(t, domain.VerdictSimilar, Classify(71, 10))
	assert.Equal(t, domain.VerdictSimilar, Classify(10, 71))
	assert.Equal(t, domain.VerdictSignificantlyDifferent, Classify(70, 70))
}

func TestCompareRoutesFlags(t *testing.T) {
	routes := []domain.Route{route(0, 0, 1, 2, 0), route(1, 0, 0)}
	sol := &domain.RouteSolution{Routes: routes, Solver: domain.SolverInfo{TimeLimit: time.Second}}

	c := CompareRoutes(sol, sol)
	assert.Equal(t, 100.0, c.Similarity)
	assert.True(t, c.IdenticalRoutes)
	assert.True(t, c.SimilarAssignments)
	assert.Len(t, c.Left, 1)
	assert.Equal(t, time.Second, c.TimeLimit)
}

package services

import (
	"fleet-dispatch-service/internal/domain"
	"math"
	"slices"
)

const (
	assignmentWeight = 0.7
	orderWeight      = 0.3
	// Credit for a route serving the same stops in a different order.
	reorderedRouteScore = 0.7

	identicalRoutesThreshold    = 95.0
	similarAssignmentsThreshold = 70.0
	suddenConvergencePct        = 2.0
)

// ImprovementPct is the percentage decrease from prev to curr, or 0 when
// prev is not positive. The result is rounded to three decimals.
func ImprovementPct(prev, curr int64) float64 {
	if prev <= 0 {
		return 0
	}
	return roundTo(float64(prev-curr)/float64(prev)*100, 3)
}

// ImprovementCurve compares each run with the previous one. Pairs where
// either run failed are skipped.
func ImprovementCurve(runs []domain.SweepRun) []domain.ImprovementRecord {
	out := make([]domain.ImprovementRecord, 0, len(runs))
	for i := 1; i < len(runs); i++ {
		prev, curr := runs[i-1], runs[i]
		if prev.Err != nil || curr.Err != nil {
			continue
		}
		pct := ImprovementPct(prev.EstimatedTime, curr.EstimatedTime)
		out = append(out, domain.ImprovementRecord{
			From:           prev.TimeLimit,
			To:             curr.TimeLimit,
			ImprovementPct: pct,
			Significance:   domain.SignificanceOf(pct),
		})
	}
	return out
}

// RouteSimilarity scores in [0,100] how closely two route sets over the same
// stops agree. Only routes serving customers are considered.
//
// The score blends assignment agreement (same vehicle per customer over the
// union of customers) and order agreement (per route, 1 for a route in the
// other set with the same stops in the same order, 0.7 for the same stops in
// another order, averaged over the larger route count).
func RouteSimilarity(left, right []domain.Route) float64 {
	r1, r2 := activeRoutes(left), activeRoutes(right)
	if len(r1) == 0 || len(r2) == 0 {
		return 0
	}

	a1, a2 := domain.CustomerAssignments(r1), domain.CustomerAssignments(r2)
	if len(a1) == 0 || len(a2) == 0 {
		return 0
	}

	union := len(a1)
	identical := 0
	for c, v := range a1 {
		if w, ok := a2[c]; ok && v == w {
			identical++
		}
	}
	for c := range a2 {
		if _, ok := a1[c]; !ok {
			union++
		}
	}

	exact, reordered := 0, 0
	for _, x := range r1 {
		xs := x.Customers()
		for _, y := range r2 {
			ys := y.Customers()
			if !sameStopSet(xs, ys) {
				continue
			}
			if slices.Equal(xs, ys) {
				exact++
			} else {
				reordered++
			}
			break
		}
	}

	assignment := float64(identical) / float64(union) * 100
	order := (float64(exact) + reorderedRouteScore*float64(reordered)) / float64(max(len(r1), len(r2))) * 100

	return assignmentWeight*assignment + orderWeight*order
}

// AnalyzeDifferences counts customers served by different vehicles and
// same-vehicle routes that visit the same stops in a different order.
func AnalyzeDifferences(left, right []domain.Route) domain.RouteDifferences {
	r1, r2 := activeRoutes(left), activeRoutes(right)
	a1, a2 := domain.CustomerAssignments(r1), domain.CustomerAssignments(r2)

	d := domain.RouteDifferences{TotalCustomers: len(a1)}
	for c, v := range a1 {
		if w, ok := a2[c]; ok && v != w {
			d.DifferentAssignments++
		}
	}

	for _, x := range r1 {
		for _, y := range r2 {
			if x.Vehicle != y.Vehicle {
				continue
			}
			xs, ys := x.Customers(), y.Customers()
			if sameStopSet(xs, ys) && !slices.Equal(xs, ys) {
				d.RouteOrderDifferences++
			}
		}
	}

	return d
}

// CompareRoutes builds the comparison of two solutions solved with the same budget.
func CompareRoutes(left, right *domain.RouteSolution) domain.RouteComparison {
	l, r := left.ActiveRoutes(), right.ActiveRoutes()
	sim := RouteSimilarity(l, r)
	return domain.RouteComparison{
		TimeLimit:          left.Solver.TimeLimit,
		Left:               l,
		Right:              r,
		Similarity:         sim,
		IdenticalRoutes:    sim > identicalRoutesThreshold,
		SimilarAssignments: sim > similarAssignmentsThreshold,
		Differences:        AnalyzeDifferences(l, r),
	}
}

// PatternSimilarity measures how closely two improvement curves track each
// other: 100 minus ten times the mean absolute difference, floored at 0.
// Curves of different lengths are not comparable and score 0.
func PatternSimilarity(h, o []domain.ImprovementRecord) float64 {
	if len(h) != len(o) {
		return 0
	}
	if len(h) == 0 {
		return 100
	}

	var sum float64
	for i := range h {
		sum += math.Abs(h[i].ImprovementPct - o[i].ImprovementPct)
	}
	return math.Max(0, 100-sum/float64(len(h))*10)
}

// Classify combines pattern and route similarity into a verdict.
func Classify(pattern, route float64) domain.Verdict {
	switch {
	case pattern > 85 && route > 90:
		return domain.VerdictVirtuallyIdentical
	case pattern > 80 && route > 80:
		return domain.VerdictVerySimilar
	case pattern > 70 || route > 70:
		return domain.VerdictSimilar
	default:
		return domain.VerdictSignificantlyDifferent
	}
}

// DetectPattern labels a curve sudden_convergence when any step improves by more than 2%.
func DetectPattern(curve []domain.ImprovementRecord) domain.ConvergencePattern {
	for _, r := range curve {
		if r.ImprovementPct > suddenConvergencePct {
			return domain.SuddenConvergence
		}
	}
	return domain.DiminishingReturns
}

func activeRoutes(routes []domain.Route) []domain.Route {
	out := make([]domain.Route, 0, len(routes))
	for _, r := range routes {
		if r.CustomersServed > 0 {
			out = append(out, r)
		}
	}
	return out
}

func sameStopSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := slices.Clone(a), slices.Clone(b)
	slices.Sort(sa)
	slices.Sort(sb)
	return slices.Equal(sa, sb)
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

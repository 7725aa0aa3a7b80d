package domain

import "time"

// Significance buckets an improvement percentage.
type Significance string

const (
	SignificanceHigh  Significance = "high"
	SignificanceGood  Significance = "good"
	SignificanceMinor Significance = "minor"
	SignificanceNone  Significance = "none"
)

func SignificanceOf(pct float64) Significance {
	switch {
	case pct > 1:
		return SignificanceHigh
	case pct > 0.1:
		return SignificanceGood
	case pct > 0:
		return SignificanceMinor
	default:
		return SignificanceNone
	}
}

// ImprovementRecord compares the objective between two adjacent time budgets.
type ImprovementRecord struct {
	From           time.Duration
	To             time.Duration
	ImprovementPct float64
	Significance   Significance
}

// RouteDifferences breaks down how two solutions disagree.
type RouteDifferences struct {
	DifferentAssignments  int
	RouteOrderDifferences int
	TotalCustomers        int
}

// RouteComparison pairs the active routes of two solutions solved with
// the same budget under different cost models.
type RouteComparison struct {
	TimeLimit          time.Duration
	Left               []Route
	Right              []Route
	Similarity         float64
	IdenticalRoutes    bool
	SimilarAssignments bool
	Differences        RouteDifferences
}

type ConvergencePattern string

const (
	SuddenConvergence  ConvergencePattern = "sudden_convergence"
	DiminishingReturns ConvergencePattern = "diminishing_returns"
)

type Verdict string

const (
	VerdictVirtuallyIdentical     Verdict = "virtually_identical"
	VerdictVerySimilar            Verdict = "very_similar"
	VerdictSimilar                Verdict = "similar"
	VerdictSignificantlyDifferent Verdict = "significantly_different"
)

// Conclusion returns the human-readable explanation for a verdict.
func (v Verdict) Conclusion() string {
	switch v {
	case VerdictVirtuallyIdentical:
		return "virtually identical methods: same routes and same optimization behavior"
	case VerdictVerySimilar:
		return "very similar methods: closely matching behavior and routes with minor differences"
	case VerdictSimilar:
		return "similar methods: some common patterns but notable differences in routes"
	default:
		return "different methods: significantly different behavior and routing decisions"
	}
}

// SweepRun is one solve inside a comparison sweep. Both cost models are
// projected onto time and distance with a constant average speed so runs
// can be compared: EstimatedTime is the objective tracked across budgets.
type SweepRun struct {
	CostModel         CostModel
	TimeLimit         time.Duration
	Solution          *RouteSolution
	EstimatedTime     int64 // seconds
	EstimatedDistance int64 // meters
	Err               error
}

// ComparisonReport is the full output of a comparison sweep.
type ComparisonReport struct {
	Vehicles             int
	Stops                int
	AvgSpeedKmh          float64
	Haversine            []SweepRun
	TravelTime           []SweepRun
	HaversineCurve       []ImprovementRecord
	TravelTimeCurve      []ImprovementRecord
	Comparisons          []RouteComparison
	AvgRouteSimilarity   float64
	PatternSimilarity    float64
	HaversinePattern     ConvergencePattern
	TravelTimePattern    ConvergencePattern
	Verdict              Verdict
	TravelTimeProvider   string
	TravelTimeMatrixTime time.Duration
}

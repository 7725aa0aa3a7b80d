package dto

import (
	"fleet-dispatch-service/internal/domain"
	"math"
	"time"
)

type CompareRequest struct {
	Vehicles     *int     `json:"vehicles" validate:"omitempty,min=1,max=20"`
	Points       []Point  `json:"points" validate:"min=3,max=150"`
	TimeLimitsMs []int    `json:"time_limits" validate:"omitempty,max=10,dive,min=1,max=120000"`
	AvgSpeedKmh  *float64 `json:"avg_speed_kmh" validate:"omitempty,gt=0,lte=300"`
}

const (
	methodHaversine = "haversine"
	methodOSRM      = "osrm"
)

type HaversineRun struct {
	TimeLimitMs    int64             `json:"time_limit_ms"`
	TotalDistanceM *int64            `json:"total_distance_m,omitempty"`
	EstimatedTimeS *int64            `json:"estimated_time_s,omitempty"`
	SolveTimeMs    *int64            `json:"solve_time_ms,omitempty"`
	Method         string            `json:"method"`
	Solution       *SolutionResponse `json:"solution,omitempty"`
	Error          string            `json:"error,omitempty"`
}

type TravelTimeRun struct {
	TimeLimitMs        int64             `json:"time_limit_ms"`
	TotalTimeS         *int64            `json:"total_time_s,omitempty"`
	EstimatedDistanceM *int64            `json:"estimated_distance_m,omitempty"`
	SolveTimeMs        *int64            `json:"solve_time_ms,omitempty"`
	Method             string            `json:"method"`
	Solution           *SolutionResponse `json:"solution,omitempty"`
	Error              string            `json:"error,omitempty"`
}

type Improvement struct {
	FromMs         int64   `json:"from_ms"`
	ToMs           int64   `json:"to_ms"`
	ImprovementPct float64 `json:"improvement_pct"`
	Significance   string  `json:"significance"`
}

type PercentageImprovements struct {
	Haversine []Improvement `json:"haversine"`
	OSRM      []Improvement `json:"osrm"`
}

type RouteSummary struct {
	Vehicle   int   `json:"vehicle"`
	Stops     []int `json:"stops"`
	Customers int   `json:"customers"`
}

type RouteDifferences struct {
	DifferentAssignments  int `json:"different_assignments"`
	RouteOrderDifferences int `json:"route_order_differences"`
	TotalCustomers        int `json:"total_customers"`
}

type DetailedComparison struct {
	TimeLimitMs        int64            `json:"time_limit_ms"`
	HaversineRoutes    []RouteSummary   `json:"haversine_routes"`
	OSRMRoutes         []RouteSummary   `json:"osrm_routes"`
	RouteSimilarityPct float64          `json:"route_similarity_pct"`
	IdenticalRoutes    bool             `json:"identical_routes"`
	SimilarAssignments bool             `json:"similar_assignments"`
	RouteAnalysis      RouteDifferences `json:"route_analysis"`
}

type RoutingInterpretation struct {
	IdenticalRouting bool   `json:"identical_routing"`
	SimilarRouting   bool   `json:"similar_routing"`
	DifferentRouting bool   `json:"different_routing"`
	Explanation      string `json:"explanation"`
}

type RouteAnalysis struct {
	DetailedComparisons   []DetailedComparison  `json:"detailed_comparisons"`
	AvgRouteSimilarityPct float64               `json:"avg_route_similarity_pct"`
	Interpretation        RoutingInterpretation `json:"interpretation"`
}

type PatternInterpretation struct {
	HighSimilarity  bool   `json:"high_similarity"`
	SimilarBehavior bool   `json:"similar_behavior"`
	Explanation     string `json:"explanation"`
}

type PatternAnalysis struct {
	AvgSpeedUsedKmh      float64               `json:"avg_speed_used_kmh"`
	PatternSimilarityPct float64               `json:"pattern_similarity_pct"`
	Interpretation       PatternInterpretation `json:"interpretation"`
}

type OverallComparison struct {
	PerformancePatternSimilarity float64 `json:"performance_pattern_similarity"`
	RoutingDecisionSimilarity    float64 `json:"routing_decision_similarity"`
	HaversinePattern             string  `json:"haversine_pattern"`
	OSRMPattern                  string  `json:"osrm_pattern"`
	Verdict                      string  `json:"verdict"`
	OverallConclusion            string  `json:"overall_conclusion"`
}

type CompareResponse struct {
	HaversineResults       []HaversineRun         `json:"haversine_results"`
	OSRMResults            []TravelTimeRun        `json:"osrm_results"`
	PercentageImprovements PercentageImprovements `json:"percentage_improvements"`
	RouteAnalysis          RouteAnalysis          `json:"route_analysis"`
	PatternAnalysis        PatternAnalysis        `json:"pattern_analysis"`
	OverallComparison      OverallComparison      `json:"overall_comparison"`
	TrafficInfo            *TrafficInfo           `json:"traffic_info,omitempty"`
	ValidPointIndices      []int                  `json:"valid_point_indices"`
	Warnings               []PointWarning         `json:"warnings,omitempty"`
}

const (
	routingExplanation = "high similarity means both methods make very similar routing decisions"
	patternExplanation = "high similarity means both methods follow similar optimization patterns"
)

// NewCompareResponse renders a comparison report. Percentages are rounded
// to one decimal place.
func NewCompareResponse(r *domain.ComparisonReport, stops domain.FilteredStops) CompareResponse {
	avgRoute := round1(r.AvgRouteSimilarity)
	pattern := round1(r.PatternSimilarity)

	out := CompareResponse{
		HaversineResults: make([]HaversineRun, 0, len(r.Haversine)),
		OSRMResults:      make([]TravelTimeRun, 0, len(r.TravelTime)),
		PercentageImprovements: PercentageImprovements{
			Haversine: improvements(r.HaversineCurve),
			OSRM:      improvements(r.TravelTimeCurve),
		},
		RouteAnalysis: RouteAnalysis{
			DetailedComparisons:   make([]DetailedComparison, 0, len(r.Comparisons)),
			AvgRouteSimilarityPct: avgRoute,
			Interpretation: RoutingInterpretation{
				IdenticalRouting: r.AvgRouteSimilarity > 95,
				SimilarRouting:   r.AvgRouteSimilarity > 80,
				DifferentRouting: r.AvgRouteSimilarity < 70,
				Explanation:      routingExplanation,
			},
		},
		PatternAnalysis: PatternAnalysis{
			AvgSpeedUsedKmh:      r.AvgSpeedKmh,
			PatternSimilarityPct: pattern,
			Interpretation: PatternInterpretation{
				HighSimilarity:  r.PatternSimilarity > 80,
				SimilarBehavior: r.PatternSimilarity > 60,
				Explanation:     patternExplanation,
			},
		},
		OverallComparison: OverallComparison{
			PerformancePatternSimilarity: pattern,
			RoutingDecisionSimilarity:    avgRoute,
			HaversinePattern:             string(r.HaversinePattern),
			OSRMPattern:                  string(r.TravelTimePattern),
			Verdict:                      string(r.Verdict),
			OverallConclusion:            r.Verdict.Conclusion(),
		},
		TrafficInfo: &TrafficInfo{
			Provider:            r.TravelTimeProvider,
			DepartureTime:       "now",
			MatrixCalculationMs: r.TravelTimeMatrixTime.Milliseconds(),
		},
		ValidPointIndices: stops.OriginalIndex,
		Warnings:          Warnings(stops),
	}

	for _, run := range r.Haversine {
		hr := HaversineRun{TimeLimitMs: run.TimeLimit.Milliseconds(), Method: methodHaversine}
		if run.Err != nil {
			hr.Error = run.Err.Error()
		} else {
			sol := NewSolutionResponse(run.Solution)
			hr.TotalDistanceM = ptr(run.EstimatedDistance)
			hr.EstimatedTimeS = ptr(run.EstimatedTime)
			hr.SolveTimeMs = ptr(run.Solution.Solver.SolveTime.Milliseconds())
			hr.Solution = &sol
		}
		out.HaversineResults = append(out.HaversineResults, hr)
	}

	for _, run := range r.TravelTime {
		tr := TravelTimeRun{TimeLimitMs: run.TimeLimit.Milliseconds(), Method: methodOSRM}
		if run.Err != nil {
			tr.Error = run.Err.Error()
		} else {
			sol := NewSolutionResponse(run.Solution)
			tr.TotalTimeS = ptr(run.EstimatedTime)
			tr.EstimatedDistanceM = ptr(run.EstimatedDistance)
			tr.SolveTimeMs = ptr(run.Solution.Solver.SolveTime.Milliseconds())
			tr.Solution = &sol
		}
		out.OSRMResults = append(out.OSRMResults, tr)
	}

	for _, c := range r.Comparisons {
		out.RouteAnalysis.DetailedComparisons = append(out.RouteAnalysis.DetailedComparisons, DetailedComparison{
			TimeLimitMs:        c.TimeLimit.Milliseconds(),
			HaversineRoutes:    summaries(c.Left),
			OSRMRoutes:         summaries(c.Right),
			RouteSimilarityPct: round1(c.Similarity),
			IdenticalRoutes:    c.IdenticalRoutes,
			SimilarAssignments: c.SimilarAssignments,
			RouteAnalysis: RouteDifferences{
				DifferentAssignments:  c.Differences.DifferentAssignments,
				RouteOrderDifferences: c.Differences.RouteOrderDifferences,
				TotalCustomers:        c.Differences.TotalCustomers,
			},
		})
	}

	return out
}

func improvements(curve []domain.ImprovementRecord) []Improvement {
	out := make([]Improvement, 0, len(curve))
	for _, rec := range curve {
		out = append(out, Improvement{
			FromMs:         ms(rec.From),
			ToMs:           ms(rec.To),
			ImprovementPct: rec.ImprovementPct,
			Significance:   string(rec.Significance),
		})
	}
	return out
}

func summaries(routes []domain.Route) []RouteSummary {
	out := make([]RouteSummary, 0, len(routes))
	for _, r := range routes {
		out = append(out, RouteSummary{Vehicle: r.Vehicle, Stops: r.Stops, Customers: r.CustomersServed})
	}
	return out
}

func ms(d time.Duration) int64 { return d.Milliseconds() }

func round1(x float64) float64 { return math.Round(x*10) / 10 }

package dto

import (
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/services"
	"math"

	"github.com/paulmach/orb/geojson"
)

type PlanRequest struct {
	Vehicles        *int    `json:"vehicles" validate:"omitempty,min=1,max=20"`
	Points          []Point `json:"points" validate:"min=3,max=150"`
	TimeLimitMs     *int    `json:"time_limit_ms" validate:"omitempty,min=1,max=120000"`
	IncludeGeometry bool    `json:"include_geometry"`
}

type TravelTimePlanRequest struct {
	PlanRequest
	DepartureTime string `json:"departure_time"`
}

type RouteResponse struct {
	Vehicle         int      `json:"vehicle"`
	Stops           []int    `json:"stops"`
	DistanceM       *int64   `json:"distance_m,omitempty"`
	TravelTimeS     *int64   `json:"travel_time_s,omitempty"`
	TravelTimeH     *float64 `json:"travel_time_h,omitempty"`
	CustomersServed int      `json:"customers_served"`
}

type SolverInfoResponse struct {
	ActualSolveTimeMs     int64  `json:"actual_solve_time_ms"`
	TimeLimitUsedMs       int64  `json:"time_limit_used_ms"`
	SolverStatus          string `json:"solver_status"`
	TimeLimitReached      bool   `json:"time_limit_reached"`
	FirstSolutionStrategy string `json:"first_solution_strategy,omitempty"`
	Metaheuristic         string `json:"metaheuristic,omitempty"`
}

type SolutionResponse struct {
	Routes             []RouteResponse    `json:"routes"`
	TotalDistanceM     *int64             `json:"total_distance_m,omitempty"`
	TotalTravelTimeS   *int64             `json:"total_travel_time_s,omitempty"`
	TotalTravelTimeH   *float64           `json:"total_travel_time_h,omitempty"`
	SolutionFound      bool               `json:"solution_found"`
	SolverInfo         SolverInfoResponse `json:"solver_info"`
	ActiveVehicles     int                `json:"active_vehicles"`
	VehicleUtilization float64            `json:"vehicle_utilization"`
}

type PlanMetrics struct {
	ValidateMs      int64  `json:"validate_ms"`
	MatrixMs        *int64 `json:"matrix_ms,omitempty"`
	TrafficMatrixMs *int64 `json:"traffic_matrix_ms,omitempty"`
	SolveMs         int64  `json:"solve_ms"`
	DurationMs      int64  `json:"duration_ms"`
}

type TrafficInfo struct {
	Provider            string `json:"provider"`
	HasRealtimeTraffic  bool   `json:"has_realtime_traffic"`
	DepartureTime       string `json:"departure_time"`
	MatrixCalculationMs int64  `json:"matrix_calculation_ms"`
	Cached              bool   `json:"cached"`
}

type PlanResponse struct {
	Solution          SolutionResponse           `json:"solution"`
	TrafficInfo       *TrafficInfo               `json:"traffic_info,omitempty"`
	Metrics           PlanMetrics                `json:"metrics"`
	ValidPointIndices []int                      `json:"valid_point_indices"`
	Warnings          []PointWarning             `json:"warnings,omitempty"`
	Geometry          *geojson.FeatureCollection `json:"geometry,omitempty"`
}

// NewSolutionResponse renders a solution with the field names of its cost
// model: meters for haversine, seconds and hours for travel time.
func NewSolutionResponse(sol *domain.RouteSolution) SolutionResponse {
	travelTime := sol.CostModel == domain.CostModelTravelTime

	out := SolutionResponse{
		Routes:             make([]RouteResponse, 0, len(sol.Routes)),
		SolutionFound:      sol.SolutionFound,
		ActiveVehicles:     sol.ActiveVehicles,
		VehicleUtilization: sol.VehicleUtilization,
		SolverInfo: SolverInfoResponse{
			ActualSolveTimeMs:     sol.Solver.SolveTime.Milliseconds(),
			TimeLimitUsedMs:       sol.Solver.TimeLimit.Milliseconds(),
			SolverStatus:          sol.Solver.Status,
			TimeLimitReached:      sol.Solver.TimeLimitReached,
			FirstSolutionStrategy: sol.Solver.FirstSolutionStrategy,
			Metaheuristic:         sol.Solver.Metaheuristic,
		},
	}

	for _, r := range sol.Routes {
		rr := RouteResponse{
			Vehicle:         r.Vehicle,
			Stops:           r.Stops,
			CustomersServed: r.CustomersServed,
		}
		if travelTime {
			rr.TravelTimeS, rr.TravelTimeH = seconds(r.Cost)
		} else {
			rr.DistanceM = ptr(r.Cost)
		}
		out.Routes = append(out.Routes, rr)
	}

	if travelTime {
		out.TotalTravelTimeS, out.TotalTravelTimeH = seconds(sol.TotalCost)
	} else {
		out.TotalDistanceM = ptr(sol.TotalCost)
	}
	return out
}

// NewPlanResponse builds the response for a geometric plan.
func NewPlanResponse(res *services.PlanResult, includeGeometry bool) PlanResponse {
	out := PlanResponse{
		Solution:          NewSolutionResponse(res.Solution),
		ValidPointIndices: res.Stops.OriginalIndex,
		Warnings:          Warnings(res.Stops),
		Metrics: PlanMetrics{
			ValidateMs: res.Timings.Validate.Milliseconds(),
			SolveMs:    res.Timings.Solve.Milliseconds(),
			DurationMs: res.Timings.Total.Milliseconds(),
		},
	}

	if res.TravelTime != nil {
		out.Metrics.TrafficMatrixMs = ptr(res.Timings.Matrix.Milliseconds())
	} else {
		out.Metrics.MatrixMs = ptr(res.Timings.Matrix.Milliseconds())
	}

	if includeGeometry {
		out.Geometry = RouteGeometry(res.Stops.Coords, res.Solution)
	}
	return out
}

// NewTravelTimePlanResponse adds provider details to a travel-time plan.
func NewTravelTimePlanResponse(res *services.PlanResult, departure string, includeGeometry bool) PlanResponse {
	out := NewPlanResponse(res, includeGeometry)
	if tt := res.TravelTime; tt != nil {
		out.TrafficInfo = &TrafficInfo{
			Provider:            tt.Provider,
			HasRealtimeTraffic:  tt.Realtime,
			DepartureTime:       departure,
			MatrixCalculationMs: tt.CalculationTime.Milliseconds(),
			Cached:              tt.Cached,
		}
	}
	return out
}

func seconds(s int64) (*int64, *float64) {
	h := math.Round(float64(s)/3600*100) / 100
	return &s, &h
}

func ptr[T any](v T) *T { return &v }

package services

import (
	"context"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/platform/obs"
	"fmt"
	"log/slog"
	"time"
)

const (
	MinPoints = 3
	MaxPoints = 150
)

type PlanRequest struct {
	Vehicles  int
	Stops     []domain.RawStop
	TimeLimit time.Duration
}

// PlanTimings records the wall-clock cost of each phase of a plan request.
type PlanTimings struct {
	Validate time.Duration
	Matrix   time.Duration
	Solve    time.Duration
	Total    time.Duration
}

type PlanResult struct {
	Solution *domain.RouteSolution
	Stops    domain.FilteredStops
	Timings  PlanTimings
	// Set only for travel-time plans.
	TravelTime *TravelTimeMatrix
}

// Planner validates stops, builds the cost matrix for the requested cost
// model and solves it.
type Planner struct {
	orchestrator *Orchestrator
	travelTimes  *TravelTimeMatrixBuilder
	logger       *slog.Logger
}

func NewPlanner(orchestrator *Orchestrator, travelTimes *TravelTimeMatrixBuilder, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{orchestrator: orchestrator, travelTimes: travelTimes, logger: logger}
}

// PlanHaversine solves with great-circle distances in meters.
func (p *Planner) PlanHaversine(ctx context.Context, req PlanRequest) (_ *PlanResult, err error) {
	defer obs.Time(ctx, p.logger, "planner.PlanHaversine")(&err)

	start := time.Now()
	stops, err := p.validate(ctx, req)
	if err != nil {
		return nil, err
	}
	tValidated := time.Now()

	m := BuildHaversineMatrix(stops.Coords)
	tMatrix := time.Now()

	sol, err := p.orchestrator.Solve(ctx, m, domain.CostModelHaversine, req.Vehicles, req.TimeLimit)
	if err != nil {
		return nil, fmt.Errorf("plan haversine: %w", err)
	}
	tSolved := time.Now()

	return &PlanResult{
		Solution: sol,
		Stops:    stops,
		Timings:  timings(start, tValidated, tMatrix, tSolved),
	}, nil
}

// PlanTravelTime solves with provider travel times in seconds. A provider
// failure aborts the plan.
func (p *Planner) PlanTravelTime(ctx context.Context, req PlanRequest) (_ *PlanResult, err error) {
	defer obs.Time(ctx, p.logger, "planner.PlanTravelTime")(&err)

	start := time.Now()
	stops, err := p.validate(ctx, req)
	if err != nil {
		return nil, err
	}
	tValidated := time.Now()

	tt, err := p.travelTimes.Build(ctx, stops.Coords)
	if err != nil {
		return nil, fmt.Errorf("plan travel time: %w", err)
	}
	tMatrix := time.Now()

	sol, err := p.orchestrator.Solve(ctx, tt.Matrix, domain.CostModelTravelTime, req.Vehicles, req.TimeLimit)
	if err != nil {
		return nil, fmt.Errorf("plan travel time: %w", err)
	}
	tSolved := time.Now()

	return &PlanResult{
		Solution:   sol,
		Stops:      stops,
		Timings:    timings(start, tValidated, tMatrix, tSolved),
		TravelTime: tt,
	}, nil
}

// FilterPoints checks the raw point count and drops unusable stops. Fewer
// than MinPoints remaining stops is a validation error.
func FilterPoints(raw []domain.RawStop) (domain.FilteredStops, error) {
	if len(raw) < MinPoints || len(raw) > MaxPoints {
		return domain.FilteredStops{}, domain.NewValidationError("points must be %d..%d", MinPoints, MaxPoints)
	}

	stops := domain.FilterStops(raw)
	if len(stops.Coords) < MinPoints {
		return stops, domain.NewValidationError(
			"at least %d points with valid coordinates are required, got %d", MinPoints, len(stops.Coords))
	}
	return stops, nil
}

func (p *Planner) validate(ctx context.Context, req PlanRequest) (domain.FilteredStops, error) {
	if req.Vehicles < MinVehicles || req.Vehicles > MaxVehicles {
		return domain.FilteredStops{}, domain.NewValidationError("vehicles must be %d..%d", MinVehicles, MaxVehicles)
	}
	if req.TimeLimit <= 0 {
		return domain.FilteredStops{}, domain.NewValidationError("time_limit_ms must be positive")
	}

	stops, err := FilterPoints(req.Stops)
	if err != nil {
		return stops, err
	}
	if len(stops.Warnings) > 0 {
		p.logger.InfoContext(ctx, "dropped invalid points",
			"req_id", obs.RequestID(ctx),
			"dropped", len(stops.Warnings),
			"kept", len(stops.Coords),
		)
	}
	return stops, nil
}

func timings(start, validated, matrix, solved time.Time) PlanTimings {
	return PlanTimings{
		Validate: validated.Sub(start),
		Matrix:   matrix.Sub(validated),
		Solve:    solved.Sub(matrix),
		Total:    solved.Sub(start),
	}
}

package services

import (
	"context"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/platform/obs"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const DefaultAvgSpeedKmh = 50.0

// DefaultTimeLimits is the budget sweep used when a request names none.
var DefaultTimeLimits = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
}

type CompareRequest struct {
	Vehicles    int
	Coords      []domain.Coordinates
	TimeLimits  []time.Duration
	AvgSpeedKmh float64
}

// Analyzer runs the same stops under the haversine and travel-time cost
// models across a sweep of time budgets and reports how the solutions
// converge and how similar their routing decisions are.
type Analyzer struct {
	orchestrator  *Orchestrator
	travelTimes   *TravelTimeMatrixBuilder
	maxConcurrent int
	maxSweep      time.Duration
	logger        *slog.Logger
}

func NewAnalyzer(
	orchestrator *Orchestrator,
	travelTimes *TravelTimeMatrixBuilder,
	maxConcurrent int,
	logger *slog.Logger,
) *Analyzer {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		orchestrator:  orchestrator,
		travelTimes:   travelTimes,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// SetMaxSweepDuration caps the estimated wall time of one sweep. Requests
// whose budgets would exceed it are rejected before any provider call, and
// accepted runs are cancelled once it elapses. Zero disables the cap.
func (a *Analyzer) SetMaxSweepDuration(d time.Duration) {
	a.maxSweep = d
}

// EstimateSweep is the wall time of a sweep when every solve uses its full
// budget: two solves per budget spread over maxConcurrent workers.
func EstimateSweep(limits []time.Duration, maxConcurrent int) time.Duration {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	var total time.Duration
	for _, tl := range limits {
		total += 2 * tl
	}
	return (total + time.Duration(maxConcurrent) - 1) / time.Duration(maxConcurrent)
}

// Compare fetches the travel-time matrix once, then solves every
// (budget, cost model) pair from scratch. Solves run concurrently up to the
// analyzer's limit; each builds its own engine problem. A travel-time
// failure aborts the run.
func (a *Analyzer) Compare(ctx context.Context, req CompareRequest) (_ *domain.ComparisonReport, err error) {
	defer obs.Time(ctx, a.logger, "analyzer.Compare")(&err)

	if req.Vehicles < MinVehicles || req.Vehicles > MaxVehicles {
		return nil, domain.NewValidationError("vehicles must be %d..%d", MinVehicles, MaxVehicles)
	}
	if len(req.Coords) < 3 {
		return nil, domain.NewValidationError("at least 3 valid points are required, got %d", len(req.Coords))
	}
	if req.AvgSpeedKmh <= 0 {
		return nil, domain.NewValidationError("avg_speed_kmh must be positive")
	}
	limits := req.TimeLimits
	if len(limits) == 0 {
		limits = DefaultTimeLimits
	}
	for _, tl := range limits {
		if tl <= 0 {
			return nil, domain.NewValidationError("time limits must be positive")
		}
	}
	if a.maxSweep > 0 {
		if est := EstimateSweep(limits, a.maxConcurrent); est > a.maxSweep {
			return nil, domain.NewValidationError(
				"time_limits would take about %s with %d concurrent solves, limit is %s",
				est.Round(time.Second), a.maxConcurrent, a.maxSweep)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.maxSweep)
		defer cancel()
	}

	geo := BuildHaversineMatrix(req.Coords)

	tt, err := a.travelTimes.Build(ctx, req.Coords)
	if err != nil {
		return nil, fmt.Errorf("compare: build travel-time matrix: %w", err)
	}

	report := &domain.ComparisonReport{
		Vehicles:             req.Vehicles,
		Stops:                len(req.Coords),
		AvgSpeedKmh:          req.AvgSpeedKmh,
		Haversine:            make([]domain.SweepRun, len(limits)),
		TravelTime:           make([]domain.SweepRun, len(limits)),
		TravelTimeProvider:   tt.Provider,
		TravelTimeMatrixTime: tt.CalculationTime,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)

	for i, tl := range limits {
		i, tl := i, tl
		g.Go(func() error {
			report.Haversine[i] = a.run(gctx, geo, domain.CostModelHaversine, req, tl)
			return nil
		})
		g.Go(func() error {
			report.TravelTime[i] = a.run(gctx, tt.Matrix, domain.CostModelTravelTime, req, tl)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	report.HaversineCurve = ImprovementCurve(report.Haversine)
	report.TravelTimeCurve = ImprovementCurve(report.TravelTime)
	report.PatternSimilarity = PatternSimilarity(report.HaversineCurve, report.TravelTimeCurve)

	for i := range limits {
		h, o := report.Haversine[i], report.TravelTime[i]
		if h.Err != nil || o.Err != nil {
			continue
		}
		report.Comparisons = append(report.Comparisons, CompareRoutes(h.Solution, o.Solution))
	}

	if len(report.Comparisons) > 0 {
		var sum float64
		for _, c := range report.Comparisons {
			sum += c.Similarity
		}
		report.AvgRouteSimilarity = sum / float64(len(report.Comparisons))
	}

	report.HaversinePattern = DetectPattern(report.HaversineCurve)
	report.TravelTimePattern = DetectPattern(report.TravelTimeCurve)
	report.Verdict = Classify(report.PatternSimilarity, report.AvgRouteSimilarity)

	a.logger.InfoContext(ctx, "comparison finished",
		"req_id", obs.RequestID(ctx),
		"stops", report.Stops,
		"vehicles", report.Vehicles,
		"budgets", len(limits),
		"pattern_similarity", roundTo(report.PatternSimilarity, 1),
		"route_similarity", roundTo(report.AvgRouteSimilarity, 1),
		"verdict", report.Verdict,
	)

	return report, nil
}

func (a *Analyzer) run(
	ctx context.Context,
	matrix domain.CostMatrix,
	model domain.CostModel,
	req CompareRequest,
	timeLimit time.Duration,
) domain.SweepRun {
	run := domain.SweepRun{CostModel: model, TimeLimit: timeLimit}

	sol, err := a.orchestrator.Solve(ctx, matrix, model, req.Vehicles, timeLimit)
	if err != nil {
		run.Err = err
		return run
	}
	run.Solution = sol

	switch model {
	case domain.CostModelHaversine:
		run.EstimatedDistance = sol.TotalCost
		run.EstimatedTime = int64(float64(sol.TotalCost) / 1000 / req.AvgSpeedKmh * 3600)
	default:
		run.EstimatedTime = sol.TotalCost
		run.EstimatedDistance = int64(float64(sol.TotalCost) / 3600 * req.AvgSpeedKmh * 1000)
	}

	return run
}

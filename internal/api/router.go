package api

import (
	"fleet-dispatch-service/internal/api/handlers"
	"fleet-dispatch-service/internal/platform/obs"
	"fleet-dispatch-service/internal/services"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	pathHealth       = "/health"
	pathMetrics      = "/metrics"
	pathPlan         = "/routes/plan"
	pathPlanWithOSRM = "/routes/plan-with-osrm"
	pathCompare      = "/debug/compare-haversine-vs-osrm"
)

type RouterDeps struct {
	Planner  *services.Planner
	Analyzer *services.Analyzer
	Logger   *slog.Logger
	Metrics  *obs.Metrics
	// Gatherer backs /metrics; the endpoint is omitted when nil.
	Gatherer prometheus.Gatherer
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	planHandler := handlers.NewPlanHandler(deps.Planner, logger)
	compareHandler := handlers.NewCompareHandler(deps.Analyzer, logger)

	mux.HandleFunc(pathHealth, handlers.Health(logger))
	mux.HandleFunc(pathPlan, planHandler.Plan)
	mux.HandleFunc(pathPlanWithOSRM, planHandler.PlanWithTravelTimes)
	mux.HandleFunc(pathCompare, compareHandler.Compare)
	if deps.Gatherer != nil {
		mux.Handle(pathMetrics, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return requestIDMiddleware(loggingMiddleware(logger, deps.Metrics, mux))
}

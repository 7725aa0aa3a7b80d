package handlers

import (
	"context"
	"fleet-dispatch-service/internal/api/dto"
	"fleet-dispatch-service/internal/services"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultVehicles            = 1
	defaultTimeLimit           = 3500 * time.Millisecond
	defaultTravelTimeTimeLimit = 4500 * time.Millisecond
	defaultDepartureTime       = "now"
)

type planner interface {
	PlanHaversine(ctx context.Context, req services.PlanRequest) (*services.PlanResult, error)
	PlanTravelTime(ctx context.Context, req services.PlanRequest) (*services.PlanResult, error)
}

type PlanHandler struct {
	planner   planner
	validator *validator.Validate
	logger    *slog.Logger
}

func NewPlanHandler(p planner, logger *slog.Logger) *PlanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanHandler{planner: p, validator: newValidator(), logger: logger}
}

// Plan solves the request with great-circle distances.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, h.logger, http.MethodPost) {
		return
	}

	var req dto.PlanRequest
	if err := decodeJSON(w, r, h.validator, &req); err != nil {
		writeError(w, r, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.planner.PlanHaversine(r.Context(), toPlanRequest(req, defaultTimeLimit))
	if err != nil {
		writeServiceError(w, r, h.logger, "plan", err)
		return
	}

	writeJSON(w, r, h.logger, http.StatusOK, dto.NewPlanResponse(res, req.IncludeGeometry))
}

// PlanWithTravelTimes solves the request with provider travel times.
func (h *PlanHandler) PlanWithTravelTimes(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, h.logger, http.MethodPost) {
		return
	}

	var req dto.TravelTimePlanRequest
	if err := decodeJSON(w, r, h.validator, &req); err != nil {
		writeError(w, r, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	departure := strings.TrimSpace(req.DepartureTime)
	if departure == "" {
		departure = defaultDepartureTime
	}

	res, err := h.planner.PlanTravelTime(r.Context(), toPlanRequest(req.PlanRequest, defaultTravelTimeTimeLimit))
	if err != nil {
		writeServiceError(w, r, h.logger, "plan with travel times", err)
		return
	}

	writeJSON(w, r, h.logger, http.StatusOK, dto.NewTravelTimePlanResponse(res, departure, req.IncludeGeometry))
}

func toPlanRequest(req dto.PlanRequest, timeLimit time.Duration) services.PlanRequest {
	vehicles := defaultVehicles
	if req.Vehicles != nil {
		vehicles = *req.Vehicles
	}
	if req.TimeLimitMs != nil {
		timeLimit = time.Duration(*req.TimeLimitMs) * time.Millisecond
	}
	return services.PlanRequest{
		Vehicles:  vehicles,
		Stops:     dto.RawStops(req.Points),
		TimeLimit: timeLimit,
	}
}

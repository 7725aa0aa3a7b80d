package handlers

import (
	"context"
	"fleet-dispatch-service/internal/api/dto"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/services"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

const defaultCompareVehicles = 3

type analyzer interface {
	Compare(ctx context.Context, req services.CompareRequest) (*domain.ComparisonReport, error)
}

type CompareHandler struct {
	analyzer  analyzer
	validator *validator.Validate
	logger    *slog.Logger
}

func NewCompareHandler(a analyzer, logger *slog.Logger) *CompareHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompareHandler{analyzer: a, validator: newValidator(), logger: logger}
}

// Compare runs the haversine vs travel-time sweep and returns the full
// report. Every budget is solved twice, so this endpoint is slow.
func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, h.logger, http.MethodPost) {
		return
	}

	var req dto.CompareRequest
	if err := decodeJSON(w, r, h.validator, &req); err != nil {
		writeError(w, r, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	stops, err := services.FilterPoints(dto.RawStops(req.Points))
	if err != nil {
		writeServiceError(w, r, h.logger, "compare", err)
		return
	}

	svcReq := services.CompareRequest{
		Vehicles:    defaultCompareVehicles,
		Coords:      stops.Coords,
		AvgSpeedKmh: services.DefaultAvgSpeedKmh,
	}
	if req.Vehicles != nil {
		svcReq.Vehicles = *req.Vehicles
	}
	if req.AvgSpeedKmh != nil {
		svcReq.AvgSpeedKmh = *req.AvgSpeedKmh
	}
	for _, tl := range req.TimeLimitsMs {
		svcReq.TimeLimits = append(svcReq.TimeLimits, time.Duration(tl)*time.Millisecond)
	}

	report, err := h.analyzer.Compare(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, r, h.logger, "compare", err)
		return
	}

	writeJSON(w, r, h.logger, http.StatusOK, dto.NewCompareResponse(report, stops))
}

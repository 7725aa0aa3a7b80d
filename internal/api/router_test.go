package api

import (
	"encoding/json"
	"errors"
	"fleet-dispatch-service/internal/adapters/solver"
	"fleet-dispatch-service/internal/adapters/traveltime"
	"fleet-dispatch-service/internal/platform/obs"
	"fleet-dispatch-service/internal/services"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	provider *traveltime.MockProvider
	metrics  *obs.Metrics
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	reg := obs.NewRegistry()
	metrics := obs.NewMetrics(reg)
	provider := traveltime.NewMockProvider(nil)

	orch := services.NewOrchestrator(solver.NewEngine(nil), nil, metrics)
	builder := services.NewTravelTimeMatrixBuilder(provider, services.TravelTimeBuilderOptions{
		Timeout: time.Second,
		Metrics: metrics,
	})

	analyzer := services.NewAnalyzer(orch, builder, 2, nil)
	analyzer.SetMaxSweepDuration(150 * time.Second)

	h := NewRouter(RouterDeps{
		Planner:  services.NewPlanner(orch, builder, nil),
		Analyzer: analyzer,
		Metrics:  metrics,
		Gatherer: reg,
	})
	return testServer{handler: h, provider: provider, metrics: metrics}
}

func (s testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

const fivePoints = `[
	{"lat": 4.60, "lng": -74.08},
	{"lat": "4.61", "lng": "-74.07"},
	{"lat": null, "lng": -74.06},
	{"lat": 4.63, "lng": -74.05},
	{"lat": 4.64, "lng": -74.04}
]`

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = s.do(t, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestPlanHaversine(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/routes/plan",
		`{"vehicles": 2, "time_limit_ms": 200, "include_geometry": true, "points": `+fivePoints+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Solution struct {
			Routes []struct {
				Vehicle         int    `json:"vehicle"`
				Stops           []int  `json:"stops"`
				DistanceM       *int64 `json:"distance_m"`
				TravelTimeS     *int64 `json:"travel_time_s"`
				CustomersServed int    `json:"customers_served"`
			} `json:"routes"`
			TotalDistanceM *int64 `json:"total_distance_m"`
			SolutionFound  bool   `json:"solution_found"`
			SolverInfo     struct {
				TimeLimitUsedMs int64  `json:"time_limit_used_ms"`
				SolverStatus    string `json:"solver_status"`
			} `json:"solver_info"`
		} `json:"solution"`
		Metrics           map[string]int64 `json:"metrics"`
		ValidPointIndices []int            `json:"valid_point_indices"`
		Warnings          []struct {
			Index int `json:"index"`
		} `json:"warnings"`
		Geometry struct {
			Type     string `json:"type"`
			Features []any  `json:"features"`
		} `json:"geometry"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.True(t, body.Solution.SolutionFound)
	require.NotNil(t, body.Solution.TotalDistanceM)
	assert.Positive(t, *body.Solution.TotalDistanceM)
	assert.Equal(t, int64(200), body.Solution.SolverInfo.TimeLimitUsedMs)
	require.Len(t, body.Solution.Routes, 2)

	served := 0
	for _, r := range body.Solution.Routes {
		require.NotNil(t, r.DistanceM)
		assert.Nil(t, r.TravelTimeS)
		served += r.CustomersServed
	}
	assert.Equal(t, 3, served)

	assert.Equal(t, []int{0, 1, 3, 4}, body.ValidPointIndices)
	require.Len(t, body.Warnings, 1)
	assert.Equal(t, 2, body.Warnings[0].Index)
	assert.Contains(t, body.Metrics, "matrix_ms")
	assert.NotContains(t, body.Metrics, "traffic_matrix_ms")

	assert.Equal(t, "FeatureCollection", body.Geometry.Type)
	assert.NotEmpty(t, body.Geometry.Features)
}

func TestPlanWithTravelTimes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/routes/plan-with-osrm",
		`{"time_limit_ms": 200, "points": `+fivePoints+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Solution struct {
			TotalTravelTimeS *int64   `json:"total_travel_time_s"`
			TotalTravelTimeH *float64 `json:"total_travel_time_h"`
			TotalDistanceM   *int64   `json:"total_distance_m"`
		} `json:"solution"`
		TrafficInfo struct {
			Provider      string `json:"provider"`
			DepartureTime string `json:"departure_time"`
		} `json:"traffic_info"`
		Metrics map[string]int64 `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.NotNil(t, body.Solution.TotalTravelTimeS)
	require.NotNil(t, body.Solution.TotalTravelTimeH)
	assert.Nil(t, body.Solution.TotalDistanceM)
	assert.Equal(t, "mock", body.TrafficInfo.Provider)
	assert.Equal(t, "now", body.TrafficInfo.DepartureTime)
	assert.Contains(t, body.Metrics, "traffic_matrix_ms")
	assert.Equal(t, 1, s.provider.Calls())
}

func TestPlanWithTravelTimesProviderFailure(t *testing.T) {
	s := newTestServer(t)
	s.provider.Err = errors.New("upstream unavailable")

	rec := s.do(t, http.MethodPost, "/routes/plan-with-osrm",
		`{"time_limit_ms": 200, "points": `+fivePoints+`}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream unavailable")
}

func TestPlanValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"too many vehicles", `{"vehicles": 21, "points": ` + fivePoints + `}`, "vehicles must be 1..20"},
		{"zero vehicles", `{"vehicles": 0, "points": ` + fivePoints + `}`, "vehicles must be 1..20"},
		{"too few points", `{"points": [{"lat": 1, "lng": 1}, {"lat": 2, "lng": 2}]}`, "points must be 3..150"},
		{"missing points", `{}`, "points must be 3..150"},
		{"too few valid points", `{"points": [{"lat": 1, "lng": 1}, {"lat": "x", "lng": 2}, {"lat": 91, "lng": 2}]}`, "at least 3 points"},
		{"unknown field", `{"truck_count": 2, "points": ` + fivePoints + `}`, "unknown field"},
		{"malformed", `{"points": [`, "invalid json body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/routes/plan", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
	assert.Zero(t, s.provider.Calls())
}

func TestCompare(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/debug/compare-haversine-vs-osrm",
		`{"vehicles": 2, "time_limits": [50, 100], "points": `+fivePoints+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		HaversineResults []struct {
			TimeLimitMs    int64  `json:"time_limit_ms"`
			TotalDistanceM *int64 `json:"total_distance_m"`
			Method         string `json:"method"`
		} `json:"haversine_results"`
		OSRMResults []struct {
			TotalTimeS *int64 `json:"total_time_s"`
			Method     string `json:"method"`
		} `json:"osrm_results"`
		PercentageImprovements struct {
			Haversine []any `json:"haversine"`
			OSRM      []any `json:"osrm"`
		} `json:"percentage_improvements"`
		RouteAnalysis struct {
			DetailedComparisons []any `json:"detailed_comparisons"`
		} `json:"route_analysis"`
		PatternAnalysis struct {
			AvgSpeedUsedKmh float64 `json:"avg_speed_used_kmh"`
		} `json:"pattern_analysis"`
		OverallComparison struct {
			OverallConclusion string `json:"overall_conclusion"`
		} `json:"overall_comparison"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.HaversineResults, 2)
	require.Len(t, body.OSRMResults, 2)
	assert.Equal(t, int64(50), body.HaversineResults[0].TimeLimitMs)
	assert.Equal(t, "haversine", body.HaversineResults[0].Method)
	assert.Equal(t, "osrm", body.OSRMResults[0].Method)
	assert.NotNil(t, body.HaversineResults[1].TotalDistanceM)
	assert.NotNil(t, body.OSRMResults[1].TotalTimeS)
	assert.Len(t, body.PercentageImprovements.Haversine, 1)
	assert.Len(t, body.PercentageImprovements.OSRM, 1)
	assert.Len(t, body.RouteAnalysis.DetailedComparisons, 2)
	assert.Equal(t, 50.0, body.PatternAnalysis.AvgSpeedUsedKmh)
	assert.NotEmpty(t, body.OverallComparison.OverallConclusion)
	assert.Equal(t, 1, s.provider.Calls())
}

func TestCompareValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/debug/compare-haversine-vs-osrm",
		`{"time_limits": [0], "points": `+fivePoints+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "time_limits[0]")

	rec = s.do(t, http.MethodPost, "/debug/compare-haversine-vs-osrm",
		`{"avg_speed_kmh": -5, "points": `+fivePoints+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "avg_speed_kmh")

	assert.Zero(t, s.provider.Calls())
}

func TestCompareRejectsSweepLongerThanWriteTimeout(t *testing.T) {
	s := newTestServer(t)

	limits := strings.TrimSuffix(strings.Repeat("120000,", 10), ",")
	rec := s.do(t, http.MethodPost, "/debug/compare-haversine-vs-osrm",
		`{"vehicles": 2, "time_limits": [`+limits+`], "points": `+fivePoints+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "time_limits would take about 20m0s")
	assert.Zero(t, s.provider.Calls())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/health", "")
	s.do(t, http.MethodGet, "/nope", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.HTTPRequests.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.HTTPRequests.WithLabelValues("GET", "other", "404")))

	rec := s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

package traveltime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/ports"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultORSBaseURL = "https://api.openrouteservice.org"
	DefaultORSProfile = "driving-car"
)

// ORSProvider implements ports.TravelTimeProvider using the
// OpenRouteService matrix endpoint.
//
// The provider is safe for concurrent use.
type ORSProvider struct {
	client  *httpClient
	baseURL string
	profile string
}

type ORSOptions struct {
	APIKey  string
	BaseURL string
	Profile string
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64
	Logger    *slog.Logger
	Client    *http.Client
}

func NewORSProvider(opts ORSOptions) (*ORSProvider, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	baseURL, err := validBaseURL("ors", opts.BaseURL, DefaultORSBaseURL)
	if err != nil {
		return nil, err
	}
	profile, err := validProfile("ors", opts.Profile, DefaultORSProfile)
	if err != nil {
		return nil, err
	}

	client := newHTTPClient("ors", opts.Client, opts.Timeout, opts.RateLimit, opts.Logger)
	client.header.Set("Authorization", apiKey)

	return &ORSProvider{
		client:  client,
		baseURL: baseURL,
		profile: profile,
	}, nil
}

func (o *ORSProvider) Name() string { return "ors/" + o.profile }

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Durations [][]*float64 `json:"durations"`
}

// TravelTimes fetches the full n×n duration table in seconds with a single
// matrix request. Unroutable pairs are returned as nil entries.
func (o *ORSProvider) TravelTimes(ctx context.Context, coords []domain.Coordinates) (ports.TravelTimeTable, error) {
	if len(coords) == 0 {
		return ports.TravelTimeTable{}, errors.New("ors matrix: no coordinates")
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	locations := make([][]float64, 0, len(coords))
	for _, c := range coords {
		locations = append(locations, c.CoordsToList())
	}

	payload, err := json.Marshal(matrixRequest{Locations: locations, Metrics: []string{"duration"}})
	if err != nil {
		return ports.TravelTimeTable{}, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.client.doWithRetry(ctx, func() (*http.Request, error) {
		return o.client.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return ports.TravelTimeTable{}, fmt.Errorf("ors matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return ports.TravelTimeTable{}, fmt.Errorf("decode ors matrix response: %w", err)
	}

	if len(mr.Durations) != len(coords) {
		return ports.TravelTimeTable{}, fmt.Errorf(
			"ors matrix: expected %d rows, got %d", len(coords), len(mr.Durations))
	}

	return ports.TravelTimeTable{
		Durations: mr.Durations,
		Provider:  "ors",
		Realtime:  false,
	}, nil
}

package traveltime

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultOSRMBaseURL = "http://router.project-osrm.org"
	DefaultOSRMProfile = "driving"
)

// OSRMProvider implements ports.TravelTimeProvider using the OSRM table
// service. One TravelTimes call issues one table request for all stops.
//
// Requests are rate limited client-side and transient failures are retried
// with exponential backoff. The provider is safe for concurrent use.
type OSRMProvider struct {
	client  *httpClient
	baseURL string
	profile string
}

type OSRMOptions struct {
	BaseURL string
	Profile string
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64
	Logger    *slog.Logger
	Client    *http.Client
}

func NewOSRMProvider(opts OSRMOptions) (*OSRMProvider, error) {
	baseURL, err := validBaseURL("osrm", opts.BaseURL, DefaultOSRMBaseURL)
	if err != nil {
		return nil, err
	}
	profile, err := validProfile("osrm", opts.Profile, DefaultOSRMProfile)
	if err != nil {
		return nil, err
	}

	// OSRM reports table errors such as InvalidQuery with a 400 and a JSON body.
	client := newHTTPClient("osrm", opts.Client, opts.Timeout, opts.RateLimit, opts.Logger)
	client.passBadRequest = true

	return &OSRMProvider{
		client:  client,
		baseURL: baseURL,
		profile: profile,
	}, nil
}

func (o *OSRMProvider) Name() string { return "osrm/" + o.profile }

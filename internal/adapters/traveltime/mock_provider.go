package traveltime

import (
	"context"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/ports"
	"fmt"
	"sync/atomic"
	"time"
)

// MockProvider returns a fixed table, or derives one from straight-line
// distance at a constant speed when no table is set. It is used in tests
// and for offline runs.
type MockProvider struct {
	Table    [][]*float64
	SpeedKmh float64
	Err      error
	// Delay blocks each call, honoring context cancellation.
	Delay time.Duration

	calls atomic.Int64
}

func NewMockProvider(table [][]*float64) *MockProvider {
	return &MockProvider{Table: table, SpeedKmh: 40}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Calls() int { return int(p.calls.Load()) }

func (p *MockProvider) TravelTimes(ctx context.Context, coords []domain.Coordinates) (ports.TravelTimeTable, error) {
	p.calls.Add(1)

	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ports.TravelTimeTable{}, ctx.Err()
		case <-timer.C:
		}
	}

	if p.Err != nil {
		return ports.TravelTimeTable{}, p.Err
	}

	if p.Table != nil {
		if len(p.Table) != len(coords) {
			return ports.TravelTimeTable{}, fmt.Errorf("mock table has %d rows for %d coordinates", len(p.Table), len(coords))
		}
		return ports.TravelTimeTable{Durations: p.Table, Provider: "mock"}, nil
	}

	speed := p.SpeedKmh
	if speed <= 0 {
		speed = 40
	}
	n := len(coords)
	out := make([][]*float64, n)
	for i := range out {
		out[i] = make([]*float64, n)
		for j := range out[i] {
			meters := domain.HaversineMeters(coords[i], coords[j])
			secs := meters / 1000 / speed * 3600
			out[i][j] = &secs
		}
	}
	return ports.TravelTimeTable{Durations: out, Provider: "mock"}, nil
}

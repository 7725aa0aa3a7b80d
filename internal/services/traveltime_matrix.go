package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/platform/obs"
	"fleet-dispatch-service/internal/ports"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"
)

// TravelTimeMatrix is a sanitized, generally asymmetric matrix of seconds.
type TravelTimeMatrix struct {
	Matrix          domain.CostMatrix
	Provider        string
	Realtime        bool
	CalculationTime time.Duration
	Cached          bool
}

type TravelTimeMatrixBuilder struct {
	provider ports.TravelTimeProvider
	cache    ports.TravelTimeCache
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *obs.Metrics
}

type TravelTimeBuilderOptions struct {
	// Cache is optional. It is read before the provider call and written after
	// a successful one; it is never used as a fallback after a failure.
	Cache   ports.TravelTimeCache
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *obs.Metrics
}

func NewTravelTimeMatrixBuilder(provider ports.TravelTimeProvider, opts TravelTimeBuilderOptions) *TravelTimeMatrixBuilder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TravelTimeMatrixBuilder{
		provider: provider,
		cache:    opts.Cache,
		timeout:  opts.Timeout,
		logger:   logger,
		metrics:  opts.Metrics,
	}
}

// Build fetches the full travel-time table for coords in a single provider
// call and sanitizes it. Any provider failure, including the timeout,
// surfaces as *domain.ProviderError and no partial matrix is returned.
func (b *TravelTimeMatrixBuilder) Build(ctx context.Context, coords []domain.Coordinates) (_ *TravelTimeMatrix, err error) {
	defer obs.Time(ctx, b.logger, "traveltime.Build")(&err)

	start := time.Now()
	name := b.provider.Name()

	var key string
	if b.cache != nil {
		key = TravelTimeCacheKey(name, coords)
		m, ok, cerr := b.cache.GetMatrix(ctx, key)
		switch {
		case cerr != nil:
			b.logger.WarnContext(ctx, "travel-time cache read failed", "err", cerr)
			b.metrics.CacheLookup("error")
		case ok && len(m) == len(coords):
			b.metrics.CacheLookup("hit")
			return &TravelTimeMatrix{
				Matrix:          m,
				Provider:        name,
				CalculationTime: time.Since(start),
				Cached:          true,
			}, nil
		default:
			b.metrics.CacheLookup("miss")
		}
	}

	fetchCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	table, err := b.provider.TravelTimes(fetchCtx, coords)
	b.metrics.ProviderRequest(name, outcome(err), time.Since(start))
	if err != nil {
		return nil, &domain.ProviderError{Provider: name, Err: err}
	}

	m, err := SanitizeTravelTimes(table.Durations, len(coords))
	if err != nil {
		return nil, &domain.ProviderError{Provider: name, Err: err}
	}

	if b.cache != nil {
		if perr := b.cache.PutMatrix(ctx, key, m); perr != nil {
			b.logger.WarnContext(ctx, "travel-time cache write failed", "err", perr)
		}
	}

	provider := table.Provider
	if provider == "" {
		provider = name
	}

	return &TravelTimeMatrix{
		Matrix:          m,
		Provider:        provider,
		Realtime:        table.Realtime,
		CalculationTime: time.Since(start),
	}, nil
}

// SanitizeTravelTimes converts a raw provider table into an n×n cost matrix.
// Null, NaN, infinite, negative and out-of-range entries (at or above the
// sentinel) become domain.UnreachableCost,
// finite values are truncated to whole seconds and the diagonal is zero.
func SanitizeTravelTimes(raw [][]*float64, n int) (domain.CostMatrix, error) {
	if len(raw) != n {
		return nil, fmt.Errorf("travel-time table has %d rows, want %d", len(raw), n)
	}

	m := make(domain.CostMatrix, n)
	for i, row := range raw {
		if len(row) != n {
			return nil, fmt.Errorf("travel-time table row %d has %d columns, want %d", i, len(row), n)
		}
		m[i] = make([]int64, n)
		for j, v := range row {
			switch {
			case i == j:
				m[i][j] = 0
			case v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 || *v >= float64(domain.UnreachableCost):
				m[i][j] = domain.UnreachableCost
			default:
				m[i][j] = int64(*v)
			}
		}
	}

	return m, nil
}

// TravelTimeCacheKey identifies a matrix by provider and the ordered stop list.
func TravelTimeCacheKey(provider string, coords []domain.Coordinates) string {
	h := sha256.New()
	h.Write([]byte(provider))
	buf := make([]byte, 0, 32)
	for _, c := range coords {
		buf = buf[:0]
		buf = append(buf, '|')
		buf = strconv.AppendFloat(buf, c.Lat, 'f', 6, 64)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, c.Lon, 'f', 6, 64)
		h.Write(buf)
	}
	return "traveltime:" + hex.EncodeToString(h.Sum(nil))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

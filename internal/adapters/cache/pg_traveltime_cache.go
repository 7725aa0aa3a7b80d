package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fleet-dispatch-service/internal/platform/obs"
	"fmt"
	"log/slog"
	"time"
)

// SQLTravelTimeCache is a Postgres-backed cache for sanitized travel-time
// matrices, keyed by provider and stop list.
type SQLTravelTimeCache struct {
	DB     *sql.DB
	TTL    time.Duration
	Logger *slog.Logger
}

func NewSQLTravelTimeCache(db *sql.DB, ttl time.Duration, logger *slog.Logger) *SQLTravelTimeCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLTravelTimeCache{DB: db, TTL: ttl, Logger: logger}
}

// Fetch a cached matrix. Entries older than the TTL are treated as misses.
func (s *SQLTravelTimeCache) GetMatrix(ctx context.Context, key string) (_ [][]int64, _ bool, err error) {
	defer obs.Time(ctx, s.Logger, "traveltime.cache.GetMatrix")(&err)

	if s.DB == nil {
		return nil, false, errors.New("travel-time cache: db is nil")
	}
	if key == "" {
		return nil, false, errors.New("get travel-time cache: key must not be empty")
	}

	q := `
	SELECT matrix
	FROM traveltime_cache
	WHERE cache_key = $1
		AND ($2::bigint = 0 OR created_at > now() - make_interval(secs => $2::bigint));
	`

	var raw []byte
	err = s.DB.QueryRowContext(ctx, q, key, int64(s.TTL.Seconds())).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get travel-time cache: query traveltime_cache table: %w", err)
	}

	var m [][]int64
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, fmt.Errorf("get travel-time cache: decode matrix: %w", err)
	}

	return m, true, nil
}

// Store a matrix, replacing any previous entry for the key.
func (s *SQLTravelTimeCache) PutMatrix(ctx context.Context, key string, m [][]int64) error {
	if s.DB == nil {
		return errors.New("travel-time cache: db is nil")
	}
	if key == "" {
		return errors.New("insert travel-time cache: key must not be empty")
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("insert travel-time cache: encode matrix: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO traveltime_cache (cache_key, size, matrix, created_at)
	VALUES ($1, $2, $3::jsonb, now())
	ON CONFLICT (cache_key) DO UPDATE
	SET size = EXCLUDED.size,
		matrix = EXCLUDED.matrix,
		created_at = EXCLUDED.created_at;
	`, key, len(m), string(payload))
	if err != nil {
		return fmt.Errorf("insert travel-time cache key=%q: %w", key, err)
	}

	return nil
}

// Delete entries older than the TTL. Returns the number of rows removed.
func (s *SQLTravelTimeCache) Prune(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("travel-time cache: db is nil")
	}
	if s.TTL <= 0 {
		return 0, nil
	}

	res, err := s.DB.ExecContext(ctx, `
	DELETE FROM traveltime_cache
	WHERE created_at <= now() - make_interval(secs => $1::bigint);
	`, int64(s.TTL.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("prune travel-time cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune travel-time cache: rows affected: %w", err)
	}
	return n, nil
}

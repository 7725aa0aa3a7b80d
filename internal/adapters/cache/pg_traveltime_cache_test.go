package cache

import (
	"context"
	"fleet-dispatch-service/internal/platform/db"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a reachable Postgres in DATABASE_URL.
func TestSQLTravelTimeCache(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	conn, err := db.Open(url)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, InitSchema(conn))

	c := NewSQLTravelTimeCache(conn, time.Hour, nil)
	ctx := context.Background()
	key := "traveltime:test:" + time.Now().Format(time.RFC3339Nano)

	_, ok, err := c.GetMatrix(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	m := [][]int64{{0, 10}, {12, 0}}
	require.NoError(t, c.PutMatrix(ctx, key, m))
	require.NoError(t, c.PutMatrix(ctx, key, m))

	got, ok, err := c.GetMatrix(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m, got)

	_, err = c.Prune(ctx)
	require.NoError(t, err)
}

func TestSQLTravelTimeCacheNilDB(t *testing.T) {
	c := NewSQLTravelTimeCache(nil, time.Hour, nil)
	_, _, err := c.GetMatrix(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, c.PutMatrix(context.Background(), "k", nil))
}

package ports

import "context"

// Optional cache for sanitized travel-time matrices.
type TravelTimeCache interface {
	GetMatrix(ctx context.Context, key string) ([][]int64, bool, error)
	PutMatrix(ctx context.Context, key string, m [][]int64) error
}

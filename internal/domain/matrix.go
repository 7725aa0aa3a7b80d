package domain

import "fmt"

// UnreachableCost replaces missing or non-finite travel costs so that
// downstream numeric code never sees NaN, Inf or negative entries.
const UnreachableCost int64 = 999999

// CostModel names the unit a cost matrix is expressed in.
type CostModel string

const (
	// Great-circle distance in meters.
	CostModelHaversine CostModel = "haversine"
	// Provider travel time in seconds.
	CostModelTravelTime CostModel = "travel_time"
)

// CostMatrix is a square matrix of non-negative integer traversal costs.
// Row/column 0 is the depot.
type CostMatrix [][]int64

func (m CostMatrix) Size() int { return len(m) }

// Validate checks that the matrix is square, non-negative and has a zero diagonal.
func (m CostMatrix) Validate() error {
	n := len(m)
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("cost matrix: row %d has %d columns, want %d", i, len(row), n)
		}
		for j, v := range row {
			if v < 0 {
				return fmt.Errorf("cost matrix: negative cost at (%d,%d)", i, j)
			}
		}
		if row[i] != 0 {
			return fmt.Errorf("cost matrix: non-zero diagonal at %d", i)
		}
	}
	return nil
}

// RouteCost sums consecutive-pair costs along stops.
func (m CostMatrix) RouteCost(stops []int) int64 {
	var total int64
	for i := 1; i < len(stops); i++ {
		total += m[stops[i-1]][stops[i]]
	}
	return total
}

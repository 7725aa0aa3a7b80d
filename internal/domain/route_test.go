package domain

import "testing"

func TestRouteSolutionCovers(t *testing.T) {
	sol := &RouteSolution{
		Routes: []Route{
			{Vehicle: 0, Stops: []int{0, 2, 1, 0}, CustomersServed: 2},
			{Vehicle: 1, Stops: []int{0, 3, 0}, CustomersServed: 1},
			{Vehicle: 2, Stops: []int{0, 0}},
		},
	}

	if err := sol.Covers(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(sol.ActiveRoutes()); got != 2 {
		t.Fatalf("active routes = %d, want 2", got)
	}

	a := sol.CustomerAssignments()
	if a[1] != 0 || a[2] != 0 || a[3] != 1 {
		t.Fatalf("unexpected assignments: %v", a)
	}

	sol.Routes[1].Stops = []int{0, 2, 0}
	if err := sol.Covers(4); err == nil {
		t.Fatal("expected error for duplicated stop")
	}
}

package solver

import "math"

// pathCheapestArc builds routes one vehicle at a time, always extending the
// current route with the cheapest feasible outgoing arc. Ties go to the lower
// node index so the result is deterministic.
func (s *search) pathCheapestArc() bool {
	visited := make([]bool, s.n)
	visited[s.depot] = true
	remaining := s.n - 1

	for v := 0; v < s.vehicles && remaining > 0; v++ {
		current := s.depot
		route := []int{s.depot}

		for remaining > 0 {
			if s.stopped() {
				return false
			}

			best := -1
			bestCost := int64(math.MaxInt64)
			for u := 0; u < s.n; u++ {
				if visited[u] || s.loads[v]+s.demand[u] > s.capacity[v] {
					continue
				}
				if c := s.c[current][u]; c < bestCost {
					best, bestCost = u, c
				}
			}
			if best < 0 {
				break
			}

			visited[best] = true
			remaining--
			route = append(route, best)
			s.loads[v] += s.demand[best]
			current = best
		}

		s.routes[v] = append(route, s.depot)
	}

	return remaining == 0
}

// parallelCheapestInsertion grows all routes at once: each step inserts the
// unrouted node whose cheapest feasible insertion, over every route and
// position, costs the least.
func (s *search) parallelCheapestInsertion() bool {
	routed := make([]bool, s.n)
	routed[s.depot] = true

	for remaining := s.n - 1; remaining > 0; remaining-- {
		if s.stopped() {
			return false
		}

		bestNode, bestVehicle, bestPos := -1, -1, -1
		bestDelta := int64(math.MaxInt64)

		for u := 0; u < s.n; u++ {
			if routed[u] {
				continue
			}
			for v, r := range s.routes {
				if s.loads[v]+s.demand[u] > s.capacity[v] {
					continue
				}
				for k := 0; k < len(r)-1; k++ {
					x, y := r[k], r[k+1]
					delta := s.c[x][u] + s.c[u][y] - s.c[x][y]
					if delta < bestDelta {
						bestNode, bestVehicle, bestPos, bestDelta = u, v, k, delta
					}
				}
			}
		}

		if bestNode < 0 {
			return false
		}

		s.routes[bestVehicle] = insertAt(s.routes[bestVehicle], bestPos+1, bestNode)
		s.loads[bestVehicle] += s.demand[bestNode]
		routed[bestNode] = true
	}

	return true
}

func insertAt(r []int, pos, node int) []int {
	r = append(r, 0)
	copy(r[pos+1:], r[pos:])
	r[pos] = node
	return r
}

func removeAt(r []int, pos int) []int {
	return append(r[:pos], r[pos+1:]...)
}

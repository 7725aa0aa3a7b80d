package solver

// Fraction of the average arc cost added per penalty unit.
const glsLambdaCoefficient = 0.1

// guidedLocalSearch escapes local optima by penalizing the arcs of the
// current solution with the highest utility c/(1+p) and re-running local
// search on the penalized costs. The best solution by real cost is kept in
// s.best.
func (s *search) guidedLocalSearch() searchStats {
	s.localSearch()
	s.best = s.cloneRoutes()
	stats := searchStats{bestCost: s.realCost(s.best)}

	s.pen = make([][]int32, s.n)
	for i := range s.pen {
		s.pen[i] = make([]int32, s.n)
	}

	arcs := s.arcCount()
	if arcs == 0 || stats.bestCost == 0 {
		return stats
	}
	s.lambda = glsLambdaCoefficient * float64(stats.bestCost) / float64(arcs)

	for !s.stopped() {
		if s.maxIter > 0 && stats.iterations >= s.maxIter {
			break
		}
		stats.iterations++

		if !s.penalize() {
			break
		}
		s.localSearch()

		if cost := s.realCost(s.routes); cost < stats.bestCost {
			stats.bestCost = cost
			stats.improvements++
			s.best = s.cloneRoutes()
		}
	}

	return stats
}

func (s *search) arcCount() int {
	arcs := 0
	for _, r := range s.routes {
		if len(r) > 2 {
			arcs += len(r) - 1
		}
	}
	return arcs
}

// penalize increments the penalty of every maximum-utility arc in the
// current solution. It reports false when no arc can be penalized.
func (s *search) penalize() bool {
	maxUtil := 0.0
	for _, r := range s.routes {
		for k := 1; k < len(r); k++ {
			a, b := r[k-1], r[k]
			if a == b {
				continue
			}
			if u := float64(s.c[a][b]) / (1 + float64(s.pen[a][b])); u > maxUtil {
				maxUtil = u
			}
		}
	}
	if maxUtil <= 0 {
		return false
	}

	for _, r := range s.routes {
		for k := 1; k < len(r); k++ {
			a, b := r[k-1], r[k]
			if a == b {
				continue
			}
			if u := float64(s.c[a][b]) / (1 + float64(s.pen[a][b])); u >= maxUtil-eps {
				s.pen[a][b]++
			}
		}
	}
	return true
}

package solver

const eps = 1e-9

// localSearch applies first-improvement moves until no operator finds an
// improving move or the search is stopped.
func (s *search) localSearch() int {
	moves := 0
	for !s.stopped() {
		if !(s.relocate() || s.exchange() || s.twoOpt() || s.twoOptStar()) {
			break
		}
		moves++
	}
	return moves
}

// relocate moves one customer to another position, in its own route or
// in another route with spare capacity.
func (s *search) relocate() bool {
	for r1 := range s.routes {
		if s.stopped() {
			return false
		}
		for i := 1; i < len(s.routes[r1])-1; i++ {
			seq := s.routes[r1]
			a, u, b := seq[i-1], seq[i], seq[i+1]
			gain := s.arc(a, u) + s.arc(u, b) - s.arc(a, b)

			for r2 := range s.routes {
				if r2 != r1 && s.loads[r2]+s.demand[u] > s.capacity[r2] {
					continue
				}
				target := s.routes[r2]
				for k := 0; k < len(target)-1; k++ {
					if r2 == r1 && (k == i-1 || k == i) {
						continue
					}
					x, y := target[k], target[k+1]
					delta := s.arc(x, u) + s.arc(u, y) - s.arc(x, y) - gain
					if delta < -eps {
						s.applyRelocate(r1, i, r2, k)
						return true
					}
				}
			}
		}
	}
	return false
}

// applyRelocate removes the node at position i of route r1 and inserts it
// after position k of route r2 (k indexes r2 before the removal).
func (s *search) applyRelocate(r1, i, r2, k int) {
	u := s.routes[r1][i]
	s.routes[r1] = removeAt(s.routes[r1], i)
	if r1 == r2 && k > i {
		k--
	}
	s.routes[r2] = insertAt(s.routes[r2], k+1, u)
	s.loads[r1] -= s.demand[u]
	s.loads[r2] += s.demand[u]
}

// exchange swaps two customers served by different routes.
func (s *search) exchange() bool {
	for r1 := range s.routes {
		if s.stopped() {
			return false
		}
		for r2 := r1 + 1; r2 < len(s.routes); r2++ {
			s1, s2 := s.routes[r1], s.routes[r2]
			for i := 1; i < len(s1)-1; i++ {
				a, u, b := s1[i-1], s1[i], s1[i+1]
				for j := 1; j < len(s2)-1; j++ {
					x, v, y := s2[j-1], s2[j], s2[j+1]
					if s.loads[r1]-s.demand[u]+s.demand[v] > s.capacity[r1] ||
						s.loads[r2]-s.demand[v]+s.demand[u] > s.capacity[r2] {
						continue
					}
					delta := s.arc(a, v) + s.arc(v, b) + s.arc(x, u) + s.arc(u, y) -
						s.arc(a, u) - s.arc(u, b) - s.arc(x, v) - s.arc(v, y)
					if delta < -eps {
						s1[i], s2[j] = v, u
						s.loads[r1] += s.demand[v] - s.demand[u]
						s.loads[r2] += s.demand[u] - s.demand[v]
						return true
					}
				}
			}
		}
	}
	return false
}

// twoOpt reverses a segment inside one route. Forward and backward prefix
// sums keep the move evaluation exact for asymmetric costs.
func (s *search) twoOpt() bool {
	for r := range s.routes {
		if s.stopped() {
			return false
		}
		seq := s.routes[r]
		if len(seq) < 4 {
			continue
		}

		fwd := make([]float64, len(seq))
		bwd := make([]float64, len(seq))
		for t := 1; t < len(seq); t++ {
			fwd[t] = fwd[t-1] + s.arc(seq[t-1], seq[t])
			bwd[t] = bwd[t-1] + s.arc(seq[t], seq[t-1])
		}

		for i := 1; i < len(seq)-2; i++ {
			for j := i + 1; j < len(seq)-1; j++ {
				before := s.arc(seq[i-1], seq[i]) + (fwd[j] - fwd[i]) + s.arc(seq[j], seq[j+1])
				after := s.arc(seq[i-1], seq[j]) + (bwd[j] - bwd[i]) + s.arc(seq[i], seq[j+1])
				if after-before < -eps {
					reverse(seq[i : j+1])
					return true
				}
			}
		}
	}
	return false
}

// twoOptStar exchanges the tails of two routes after positions i and j.
func (s *search) twoOptStar() bool {
	for r1 := range s.routes {
		if s.stopped() {
			return false
		}
		for r2 := r1 + 1; r2 < len(s.routes); r2++ {
			s1, s2 := s.routes[r1], s.routes[r2]
			pre1 := prefixLoads(s1, s.demand)
			pre2 := prefixLoads(s2, s.demand)

			for i := 0; i < len(s1)-1; i++ {
				for j := 0; j < len(s2)-1; j++ {
					if i == len(s1)-2 && j == len(s2)-2 {
						continue
					}
					load1 := pre1[i] + s.loads[r2] - pre2[j]
					load2 := pre2[j] + s.loads[r1] - pre1[i]
					if load1 > s.capacity[r1] || load2 > s.capacity[r2] {
						continue
					}
					delta := s.arc(s1[i], s2[j+1]) + s.arc(s2[j], s1[i+1]) -
						s.arc(s1[i], s1[i+1]) - s.arc(s2[j], s2[j+1])
					if delta < -eps {
						tail1 := append([]int(nil), s1[i+1:]...)
						tail2 := append([]int(nil), s2[j+1:]...)
						s.routes[r1] = append(s1[:i+1:i+1], tail2...)
						s.routes[r2] = append(s2[:j+1:j+1], tail1...)
						s.loads[r1], s.loads[r2] = load1, load2
						return true
					}
				}
			}
		}
	}
	return false
}

// prefixLoads[k] is the demand served by seq[0..k].
func prefixLoads(seq []int, demand []int64) []int64 {
	out := make([]int64, len(seq))
	var acc int64
	for k, node := range seq {
		acc += demand[node]
		out[k] = acc
	}
	return out
}

func reverse(seq []int) {
	for i, j := 0, len(seq)-1; i < j; i, j = i+1, j-1 {
		seq[i], seq[j] = seq[j], seq[i]
	}
}

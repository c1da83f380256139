package match

import (
	"math"
	"runtime"
	"slices"
	"sync"
)

// CostFunc scores the edit cost of pairing an ancestor and a version id.
// Costs are non-negative; math.Inf(1) rejects a pair outright. The match
// map holds the pairs accumulated so far and must be treated as read-only.
type CostFunc[R Ref] func(ancestor, version R, m *RefMatch[R]) float64

// Pass is one round of the matching algorithm: a cost function plus the
// threshold a candidate pair's cost must stay strictly below to be accepted.
type Pass[R Ref] struct {
	Cost      CostFunc[R]
	Threshold float64
}

// Objects greedily matches two unordered id-keyed collections. Each step
// scans all remaining pairs for the minimum cost under the current pass;
// if that minimum clears the pass threshold the pair is recorded and both
// ids retire, otherwise the next pass takes over. Matching stops when a
// side is exhausted or the passes run out.
//
// The pass list must be non-empty. Ties between equal-cost pairs resolve
// arbitrarily.
func Objects[R Ref, T any](ancestor, version map[R]T, passes []Pass[R]) *RefMatch[R] {
	if len(passes) == 0 {
		panic("match: empty pass list")
	}

	m := NewRefMatch[R]()

	remAncestor := sortedKeys(ancestor)
	remVersion := sortedKeys(version)

	pass := 0
	for len(remAncestor) > 0 && len(remVersion) > 0 {
		a, v, cost := minCostPair(remAncestor, remVersion, passes[pass].Cost, m)
		if cost < passes[pass].Threshold {
			m.AddMatch(a, v)
			remAncestor = removeRef(remAncestor, a)
			remVersion = removeRef(remVersion, v)
			continue
		}
		pass++
		if pass >= len(passes) {
			break
		}
	}
	return m
}

// minCostPair scans remAncestor x remVersion for the cheapest pair. The scan
// is split across workers; each keeps a local best and the results reduce
// under a mutex. A zero-cost pair cannot be beaten, so finding one stops
// the remaining workers early.
func minCostPair[R Ref](remAncestor, remVersion []R, cost CostFunc[R], m *RefMatch[R]) (R, R, float64) {
	var (
		mu       sync.Mutex
		bestCost = math.Inf(1)
		bestA    R
		bestV    R
		foundMin bool
	)

	workers := runtime.GOMAXPROCS(0)
	if workers > len(remVersion) {
		workers = len(remVersion)
	}

	var wg sync.WaitGroup
	chunk := (len(remVersion) + workers - 1) / workers
	for lo := 0; lo < len(remVersion); lo += chunk {
		hi := lo + chunk
		if hi > len(remVersion) {
			hi = len(remVersion)
		}
		wg.Add(1)
		go func(versions []R) {
			defer wg.Done()
			localCost := math.Inf(1)
			var localA, localV R
			for _, v := range versions {
				mu.Lock()
				stop := foundMin
				mu.Unlock()
				if stop {
					return
				}
				for _, a := range remAncestor {
					if c := cost(a, v, m); c <= localCost {
						localCost, localA, localV = c, a, v
						if c == 0 {
							break
						}
					}
				}
				if localCost == 0 {
					break
				}
			}
			mu.Lock()
			if localCost <= bestCost {
				bestCost, bestA, bestV = localCost, localA, localV
				if bestCost == 0 {
					foundMin = true
				}
			}
			mu.Unlock()
		}(remVersion[lo:hi])
	}
	wg.Wait()
	return bestA, bestV, bestCost
}

func sortedKeys[R Ref, T any](m map[R]T) []R {
	keys := make([]R, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func removeRef[R Ref](refs []R, r R) []R {
	for i, x := range refs {
		if x == r {
			return append(refs[:i], refs[i+1:]...)
		}
	}
	return refs
}

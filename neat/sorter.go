package neat

import "sync"

// compatibilityDistance implements spec §4.C's formula. Both networks'
// connection columns must already be sorted by innovation number ascending
// (invariant 4), so the lock-step walk below never needs to sort.
func compatibilityDistance(pop *Population, a, b NetworkIndex, cfg DistanceConfig) float32 {
	ra, rb := pop.Networks[a].Connections, pop.Networks[b].Connections
	infoA, infoB := Span(ra, pop.ConnectionInfos), Span(rb, pop.ConnectionInfos)
	weightA, weightB := Span(ra, pop.ConnectionWeights), Span(rb, pop.ConnectionWeights)

	var matching, disjoint int
	var weightDeltaSum float32
	i, j := 0, 0
	for i < len(infoA) && j < len(infoB) {
		switch {
		case infoA[i].Innovation == infoB[j].Innovation:
			delta := weightA[i] - weightB[j]
			if delta < 0 {
				delta = -delta
			}
			weightDeltaSum += delta
			matching++
			i++
			j++
		case infoA[i].Innovation < infoB[j].Innovation:
			disjoint++
			i++
		default:
			disjoint++
			j++
		}
	}
	excess := (len(infoA) - i) + (len(infoB) - j)

	n := len(infoA)
	if len(infoB) > n {
		n = len(infoB)
	}
	if n < 20 {
		n = 1
	}

	var avgWeightDelta float32
	if matching > 0 {
		avgWeightDelta = weightDeltaSum / float32(matching)
	}

	return cfg.CExcess*float32(excess)/float32(n) +
		cfg.CDisjoint*float32(disjoint)/float32(n) +
		cfg.CAvgWeight*avgWeightDelta
}

// SpeciesSorter buckets networks by compatibility distance under a threshold
// (spec §4.C). A sorter instance is reused across generations: Clear resets
// it, then SortInto is called (possibly from several worker goroutines, each
// on a disjoint sub-range) before Finalize flattens the buckets into the
// offspring population's Species/Networks layout.
//
// The source guards the characteristic list and each bucket with independent
// test-and-set spinlocks and lets the match search run unlocked between a
// snapshot and a re-check, to minimize time spent holding any one lock. This
// port coarsens the match-and-maybe-create-species step into one mutex
// (documented in DESIGN.md): the bucket append keeps its own lock, so
// concurrent workers still append to different buckets in parallel, but the
// search itself is serialized instead of running lock-free between a
// snapshot and a re-scan. The resulting bucket assignment is identical to
// the source's; only the contention profile differs, which spec §9
// explicitly allows ("the spinlock choice is a micro-optimization ... not a
// correctness requirement").
type SpeciesSorter struct {
	mu              sync.Mutex
	characteristics []NetworkIndex

	bucketMus []sync.Mutex
	buckets   [][]NetworkIndex
}

// NewSpeciesSorter preallocates bucket storage for up to capacity species
// (bounded by population size: no generation can have more species than
// networks), so bucketMus never reallocates while another goroutine might be
// holding one of its mutexes.
func NewSpeciesSorter(capacity int) *SpeciesSorter {
	return &SpeciesSorter{
		characteristics: make([]NetworkIndex, 0, capacity),
		bucketMus:       make([]sync.Mutex, capacity),
		buckets:         make([][]NetworkIndex, 0, capacity),
	}
}

// Clear empties all buckets and characteristics, ready for a new generation.
func (s *SpeciesSorter) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characteristics = s.characteristics[:0]
	s.buckets = s.buckets[:0]
}

// SortInto assigns every network index in r (from pop) to a bucket,
// creating new species/characteristics as needed. Safe to call concurrently
// with other SortInto calls on disjoint ranges of the same population.
func (s *SpeciesSorter) SortInto(pop *Population, cfg DistanceConfig, r Range[NetworkIndex]) {
	for idx := r.Begin; idx < r.End; idx++ {
		s.assign(pop, cfg, idx)
	}
}

func (s *SpeciesSorter) assign(pop *Population, cfg DistanceConfig, network NetworkIndex) {
	s.mu.Lock()
	matched := -1
	for k, characteristic := range s.characteristics {
		if compatibilityDistance(pop, network, characteristic, cfg) < cfg.Threshold {
			matched = k
			break
		}
	}
	if matched == -1 {
		matched = len(s.characteristics)
		s.characteristics = append(s.characteristics, network)
		s.buckets = append(s.buckets, nil)
	}
	s.mu.Unlock()

	s.bucketMus[matched].Lock()
	s.buckets[matched] = append(s.buckets[matched], network)
	s.bucketMus[matched].Unlock()
}

// Finalize flattens the buckets into pop's Species/Networks columns: each
// bucket becomes one contiguous run of networks, in bucket-creation order.
// Reordering Networks never touches the Connections/ConnectionWeights/
// ConnectionInfos columns — a Network only holds a range into them, so a
// permutation of the Networks slice is a cheap, allocation-light operation
// (spec §4.A: "no per-connection allocation").
func (s *SpeciesSorter) Finalize(pop *Population) {
	sorted := make([]Network, 0, len(pop.Networks))
	species := make([]Species, 0, len(s.buckets))

	for _, bucket := range s.buckets {
		begin := NetworkIndex(len(sorted))
		for _, idx := range bucket {
			sorted = append(sorted, pop.Networks[idx])
		}
		end := NetworkIndex(len(sorted))
		species = append(species, Species{Networks: Range[NetworkIndex]{Begin: begin, End: end}})
	}

	pop.Networks = sorted
	pop.Species = species
}

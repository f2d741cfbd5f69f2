package neat

import "sync"

// nodePair is an unordered pair of node indices, stored with the smaller
// index first so that (a,b) and (b,a) hash to the same structural gene
// identity (spec §4.B).
type nodePair struct {
	smaller, bigger NodeIndex
}

func makeNodePair(a, b NodeIndex) nodePair {
	if a > b {
		a, b = b, a
	}
	return nodePair{smaller: a, bigger: b}
}

func (p nodePair) less(other nodePair) bool {
	if p.smaller != other.smaller {
		return p.smaller < other.smaller
	}
	return p.bigger < other.bigger
}

// InnovationRegistry maps unordered node-pair gene identity to a monotone
// innovation number. It is shared by every mutation worker during a single
// Evolve call and cleared at the start of the next one (spec §4.B, §9 note
// 2): innovation numbers are a per-generation equivalence, not a lifetime
// NEAT history.
//
// The source guards this with a test-and-set spinlock; a sync.Mutex is used
// here instead, which spec §9 explicitly sanctions as a semantically
// equivalent substitution for a short, low-contention critical section.
type InnovationRegistry struct {
	mu      sync.Mutex
	pairs   []nodePair
	numbers []InnovationNumber
	counter InnovationNumber
}

// NewInnovationRegistry returns an empty registry.
func NewInnovationRegistry() *InnovationRegistry {
	return &InnovationRegistry{}
}

// Clear empties the pair lookup so structural identity is only recognized
// within the current generation, but leaves counter untouched: innovation
// numbers are globally monotone for the trainer's whole lifetime (spec §3
// invariant 5), not reset per generation. Resetting it would let a
// freshly-registered gene land below an inherited one already present in an
// offspring's connection slice, breaking the ascending-innovation-number
// invariant crossoverWalk and compatibilityDistance both rely on. Called at
// the start of every Evolve.
func (r *InnovationRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = r.pairs[:0]
	r.numbers = r.numbers[:0]
}

// lowerBound returns the index of the first pair >= target (binary search
// over the sorted pair list), and whether that slot is an exact match.
func (r *InnovationRegistry) lowerBound(target nodePair) (int, bool) {
	lo, hi := 0, len(r.pairs)
	for lo < hi {
		mid := (lo + hi) / 2
		if r.pairs[mid].less(target) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	found := lo < len(r.pairs) && r.pairs[lo] == target
	return lo, found
}

// RegisterOrLookup locates the gene identity {from,to} by binary search; on
// a miss it inserts the pair in sorted-list order and assigns the next
// innovation number. It then writes Enabled=true and the innovation number
// into info.
func (r *InnovationRegistry) RegisterOrLookup(from, to NodeIndex, info *ConnectionInfo) {
	pair := makeNodePair(from, to)

	r.mu.Lock()
	defer r.mu.Unlock()

	idx, found := r.lowerBound(pair)
	var number InnovationNumber
	if found {
		number = r.numbers[idx]
	} else {
		number = r.counter
		r.counter++
		r.pairs = append(r.pairs, nodePair{})
		copy(r.pairs[idx+1:], r.pairs[idx:])
		r.pairs[idx] = pair

		r.numbers = append(r.numbers, 0)
		copy(r.numbers[idx+1:], r.numbers[idx:])
		r.numbers[idx] = number
	}

	info.Enabled = true
	info.Innovation = number
}

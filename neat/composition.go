package neat

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ParentPair names the two ancestor networks a crossover offspring is bred
// from; A is always the in-species parent.
type ParentPair struct {
	A, B NetworkIndex
}

// speciesComposition is the per-species breakdown spec §4.D calls "offspring
// composition": how many offspring of each category to produce and which
// ancestor indices to draw them from. Ancestor indices are into the
// ancestor ("current") population, in the fixed lookup order spec §9 /
// SPEC_FULL.md Part D name: mutation ancestors, then champion, then
// in-species crossover pairs, then inter-species crossover pairs.
type speciesComposition struct {
	AddConnCount        int
	AddNodeCount        int
	WeightMutationCount int
	MutationAncestors   []NetworkIndex // len == AddConnCount+AddNodeCount+WeightMutationCount

	HasChampion      bool
	ChampionAncestor NetworkIndex

	InSpeciesCrossover    []ParentPair
	InterSpeciesCrossover []ParentPair
}

func (c speciesComposition) offspringCount() int {
	n := len(c.MutationAncestors) + len(c.InSpeciesCrossover) + len(c.InterSpeciesCrossover)
	if c.HasChampion {
		n++
	}
	return n
}

// scoredMember pairs an ancestor network index with its fitness, for sorting
// during the extinction filter.
type scoredMember struct {
	index   NetworkIndex
	fitness float32
}

// applyExtinctionFilter drops the worst-fitness members of a species,
// bounded by both caps simultaneously (spec §4.D "Extinction filter"), and
// returns the survivors sorted ascending by fitness (so the fittest is
// last) together with the full original sort (needed for champion lookup,
// which spec ties to the species' original size, not the post-filter size).
func applyExtinctionFilter(members []scoredMember, cfg ExtinctionConfig) (survivors, original []scoredMember) {
	original = make([]scoredMember, len(members))
	copy(original, members)
	sort.Slice(original, func(i, j int) bool { return original[i].fitness < original[j].fitness })

	if len(original) == 0 {
		return nil, original
	}

	minF, maxF := original[0].fitness, original[len(original)-1].fitness
	scoreThreshold := lerp(minF, maxF, cfg.MaxRemoveScorePortion)

	belowThreshold := 0
	for _, m := range original {
		if m.fitness < scoreThreshold {
			belowThreshold++
		} else {
			break
		}
	}

	capByPortion := int(float32(len(original)) * cfg.MaxRemovePopulationPortion)
	removeCount := capByPortion
	if belowThreshold < removeCount {
		removeCount = belowThreshold
	}
	if removeCount > len(original) {
		removeCount = len(original)
	}

	survivors = original[removeCount:]
	return survivors, original
}

// sampleMutationCounts draws add_conn/add_node counts from Binomial(n, p)
// and clamps their sum to target by alternating decrements (spec §4.D),
// returning the clamped counts and the weight-mutation remainder. target is
// computed from the species' full offspring budget (before the champion
// slot is set aside), while n — the Binomial trial count — is the remaining
// budget after it (see DESIGN.md): the champion slot never competes for a
// mutation category, but it still counts toward how many of the remaining
// offspring should land in p_mutate's target.
func sampleMutationCounts(rng *rand.Rand, n, target int, cfg MutationConfig) (addConn, addNode, weightMutation int) {
	if target > n {
		target = n
	}

	addConn = binomial(rng, n, float64(cfg.PAddConn))
	addNode = binomial(rng, n, float64(cfg.PAddNode))

	decrementConn := true
	for addConn+addNode > target {
		if decrementConn && addConn > 0 {
			addConn--
		} else if addNode > 0 {
			addNode--
		} else if addConn > 0 {
			addConn--
		} else {
			break
		}
		decrementConn = !decrementConn
	}

	weightMutation = target - addConn - addNode
	if weightMutation < 0 {
		weightMutation = 0
	}
	return addConn, addNode, weightMutation
}

// binomial draws one Binomial(n, p) sample via gonum's distuv, the
// ecosystem's standard distribution-sampling package (gonum's stat and
// floats packages are already used for species-fitness statistics in
// budget.go).
func binomial(rng *rand.Rand, n int, p float64) int {
	if n <= 0 || p <= 0 {
		return 0
	}
	dist := distuv.Binomial{N: float64(n), P: p, Src: rand.NewSource(rng.Int63())}
	return int(dist.Rand())
}

// buildSpeciesComposition implements spec §4.D end to end for one species:
// extinction filter, champion selection, Binomial-sampled mutation counts,
// crossover counts, and ancestor sampling, including the degenerate-input
// policies from spec §7 (single surviving member, zero species count).
func buildSpeciesComposition(
	rng *rand.Rand,
	members []scoredMember,
	budget int,
	speciesRange Range[NetworkIndex],
	populationSize NetworkIndex,
	numSpecies int,
	cfg EvolutionConfig,
) speciesComposition {
	var comp speciesComposition
	if budget <= 0 || len(members) == 0 {
		return comp
	}

	survivors, original := applyExtinctionFilter(members, cfg.Extinction)
	if len(survivors) == 0 {
		survivors = original
	}

	comp.HasChampion = budget > 0 && len(original) >= cfg.Mutation.MinNetworkChampionSize
	remaining := budget
	if comp.HasChampion {
		comp.ChampionAncestor = original[len(original)-1].index
		remaining--
	}
	if remaining <= 0 {
		return comp
	}

	target := roundHalfAwayFromZero(float32(budget) * cfg.Mutation.PMutate)
	addConn, addNode, weightMutation := sampleMutationCounts(rng, remaining, target, cfg.Mutation)
	mutationTotal := addConn + addNode + weightMutation
	crossoverBudget := remaining - mutationTotal

	interSpecies := 0
	if numSpecies >= 2 {
		interSpecies = binomial(rng, remaining, float64(cfg.Mutation.PInterSpecies))
		if interSpecies > crossoverBudget {
			interSpecies = crossoverBudget
		}
	}
	inSpecies := crossoverBudget - interSpecies

	// Degenerate-input policy (spec §7): a species with a single survivor
	// cannot supply two distinct in-species crossover parents. Promote the
	// slots to inter-species crossovers, or failing that (only one species
	// total), to add-connection mutations.
	if len(survivors) < 2 && inSpecies > 0 {
		if numSpecies >= 2 {
			interSpecies += inSpecies
		} else {
			addConn += inSpecies
		}
		inSpecies = 0
	}

	comp.AddConnCount = addConn
	comp.AddNodeCount = addNode
	comp.WeightMutationCount = weightMutation
	comp.MutationAncestors = sampleWithReplacement(rng, survivors, addConn+addNode+weightMutation)

	comp.InSpeciesCrossover = make([]ParentPair, 0, inSpecies)
	for i := 0; i < inSpecies; i++ {
		a, b := sampleDistinctPair(rng, survivors)
		comp.InSpeciesCrossover = append(comp.InSpeciesCrossover, ParentPair{A: a, B: b})
	}

	comp.InterSpeciesCrossover = make([]ParentPair, 0, interSpecies)
	for i := 0; i < interSpecies; i++ {
		a := survivors[rng.Intn(len(survivors))].index
		b := sampleNonSpeciesMember(rng, speciesRange, populationSize)
		comp.InterSpeciesCrossover = append(comp.InterSpeciesCrossover, ParentPair{A: a, B: b})
	}

	return comp
}

func sampleWithReplacement(rng *rand.Rand, pool []scoredMember, n int) []NetworkIndex {
	if n <= 0 {
		return nil
	}
	out := make([]NetworkIndex, n)
	for i := range out {
		out[i] = pool[rng.Intn(len(pool))].index
	}
	return out
}

// sampleDistinctPair draws two distinct members uniformly with replacement
// (retrying on collision), per spec §4.D "ensuring the two parents differ".
func sampleDistinctPair(rng *rand.Rand, pool []scoredMember) (NetworkIndex, NetworkIndex) {
	if len(pool) == 1 {
		return pool[0].index, pool[0].index
	}
	a := pool[rng.Intn(len(pool))].index
	b := a
	for b == a {
		b = pool[rng.Intn(len(pool))].index
	}
	return a, b
}

// sampleNonSpeciesMember draws a uniformly random network index outside
// speciesRange from the full ancestor population.
func sampleNonSpeciesMember(rng *rand.Rand, speciesRange Range[NetworkIndex], populationSize NetworkIndex) NetworkIndex {
	outside := int(populationSize) - int(speciesRange.Size())
	if outside <= 0 {
		return speciesRange.Begin
	}
	pick := NetworkIndex(rng.Intn(outside))
	if pick >= speciesRange.Begin {
		pick += speciesRange.Size()
	}
	return pick
}

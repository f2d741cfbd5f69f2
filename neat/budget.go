package neat

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// speciesMeanFitness computes each species' raw fitness as the mean fitness
// of its members (spec §4.D: "Per-species raw fitness"). ancestorFitness is
// indexed by NetworkIndex into the ancestor ("current") population.
func speciesMeanFitness(pop *Population, ancestorFitness []float32) []float32 {
	means := make([]float32, len(pop.Species))
	buf := make([]float64, 0, 64)
	for i, sp := range pop.Species {
		buf = buf[:0]
		for n := sp.Networks.Begin; n < sp.Networks.End; n++ {
			buf = append(buf, float64(ancestorFitness[n]))
		}
		if len(buf) == 0 {
			means[i] = 0
			continue
		}
		means[i] = float32(stat.Mean(buf, nil))
	}
	return means
}

// residue pairs a species index with the fractional remainder of its
// unrounded offspring share, used to distribute leftover slots to the
// species with the largest residues (spec §4.D, §9 note 3).
type residue struct {
	species  int
	fraction float32
}

// divideOffspringBetweenSpecies converts per-species mean fitness into an
// exact offspring budget summing to populationSize (spec §4.D "Offspring
// partitioning between species").
func divideOffspringBetweenSpecies(meanFitness []float32, populationSize int) []int {
	n := len(meanFitness)
	budgets := make([]int, n)
	if n == 0 {
		return budgets
	}

	fitness64 := make([]float64, n)
	for i, f := range meanFitness {
		fitness64[i] = float64(f)
	}
	lo, hi := floats.Min(fitness64), floats.Max(fitness64)

	if hi-lo == 0 {
		// Zero variance: split the population as evenly as possible.
		base := populationSize / n
		remainder := populationSize % n
		for i := range budgets {
			budgets[i] = base
			if i < remainder {
				budgets[i]++
			}
		}
		return budgets
	}

	portions := make([]float32, n)
	for i, f := range meanFitness {
		portions[i] = (f - float32(lo)) / float32(hi-lo)
	}
	portionSum := float32(0)
	for _, p := range portions {
		portionSum += p
	}

	exact := make([]float32, n)
	residues := make([]residue, n)
	assigned := 0
	for i, p := range portions {
		share := p / portionSum * float32(populationSize)
		exact[i] = share
		floor := int(share)
		budgets[i] = floor
		assigned += floor
		residues[i] = residue{species: i, fraction: share - float32(floor)}
	}

	missing := populationSize - assigned
	sort.SliceStable(residues, func(i, j int) bool {
		return residues[i].fraction > residues[j].fraction
	})

	// Preserve the source's exact bound: top up at most
	// min(missing, len(residues)) species, even though missing can never
	// exceed len(residues) in practice (spec §9 note 3).
	topUps := missing
	if topUps > len(residues) {
		topUps = len(residues)
	}
	for k := 0; k < topUps; k++ {
		budgets[residues[k].species]++
	}

	return budgets
}

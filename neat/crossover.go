package neat

import "math/rand"

// crossoverWalk implements spec §4.F: a lock-step walk of two parents' gene
// lists (both sorted by innovation number, invariant 4) that decides, gene
// by gene, whether it is inherited by the offspring. emit is called once
// per inherited gene with which parent it came from and that parent's
// connection-column index; emit may be a no-op (the counting pass) or an
// actual write (the emitting pass) — either way crossoverWalk draws exactly
// the same sequence of random numbers from the seed-constructed RNG, so
// both passes inherit the identical set of genes and therefore the
// identical count. This is the "critical subtlety" spec §4.F/§9 names: a
// counting pass must run before the offspring arena is allocated, and its
// tie-breaking coin flips must exactly match the later emitting pass.
func crossoverWalk(
	pop *Population,
	parentA, parentB NetworkIndex,
	fitnessA, fitnessB, fitnessEpsilon float32,
	seed int64,
	keepDisabledRate float32,
	emit func(fromA bool, connIdx int, enabled bool),
) int {
	rng := rand.New(rand.NewSource(seed))

	rangeA, rangeB := pop.Networks[parentA].Connections, pop.Networks[parentB].Connections
	connsA, connsB := Span(rangeA, pop.Connections), Span(rangeB, pop.Connections)
	infosA, infosB := Span(rangeA, pop.ConnectionInfos), Span(rangeB, pop.ConnectionInfos)

	aFitter := fitnessA > fitnessB+fitnessEpsilon
	bFitter := fitnessB > fitnessA+fitnessEpsilon
	tie := !aFitter && !bFitter

	count := 0
	i, j := 0, 0
	for i < len(connsA) && j < len(connsB) {
		switch {
		case infosA[i].Innovation == infosB[j].Innovation:
			fromA := rng.Float32() < 0.5
			enabled := true
			if !infosA[i].Enabled || !infosB[j].Enabled {
				enabled = rng.Float32() >= keepDisabledRate
			}
			if emit != nil {
				emit(fromA, pickIdx(fromA, i, j), enabled)
			}
			count++
			i++
			j++
		case infosA[i].Innovation < infosB[j].Innovation:
			if keep := decideKeep(rng, tie, aFitter); keep {
				if emit != nil {
					emit(true, i, infosA[i].Enabled)
				}
				count++
			}
			i++
		default:
			if keep := decideKeep(rng, tie, bFitter); keep {
				if emit != nil {
					emit(false, j, infosB[j].Enabled)
				}
				count++
			}
			j++
		}
	}

	// Excess: whichever side still has genes remaining.
	for i < len(connsA) {
		if keep := decideKeep(rng, tie, aFitter); keep {
			if emit != nil {
				emit(true, i, infosA[i].Enabled)
			}
			count++
		}
		i++
	}
	for j < len(connsB) {
		if keep := decideKeep(rng, tie, bFitter); keep {
			if emit != nil {
				emit(false, j, infosB[j].Enabled)
			}
			count++
		}
		j++
	}

	return count
}

// decideKeep draws the RNG coin used for a disjoint/excess gene: under a
// tie it is a 50/50 keep; otherwise it is deterministically kept iff it
// belongs to the fitter parent. The coin is always drawn (even when its
// result is unused in the non-tie branches) so that counting and emitting
// consume an identical RNG sequence regardless of which branch a given
// offspring's parents fall into at replay time — in practice callers always
// pass the same (tie, fitter) values to both passes, but drawing
// unconditionally keeps the two passes trivially in lock-step even if that
// ever changes.
func decideKeep(rng *rand.Rand, tie bool, fitterSide bool) bool {
	coin := rng.Float32() < 0.5
	if tie {
		return coin
	}
	return fitterSide
}

func pickIdx(fromA bool, i, j int) int {
	if fromA {
		return i
	}
	return j
}

// countCrossoverOffspring runs the counting pass and returns the connection
// count the emitting pass (given the same seed) will produce.
func countCrossoverOffspring(pop *Population, parentA, parentB NetworkIndex, fitnessA, fitnessB, epsilon float32, seed int64, keepDisabledRate float32) int {
	return crossoverWalk(pop, parentA, parentB, fitnessA, fitnessB, epsilon, seed, keepDisabledRate, nil)
}

// emitCrossoverOffspring runs the emitting pass, writing exactly the
// connections the matching counting-pass call would have counted into dest
// (which must have at least that many slots).
func emitCrossoverOffspring(
	pop *Population,
	dest []Connection, destInfos []ConnectionInfo, destWeights []float32,
	parentA, parentB NetworkIndex,
	fitnessA, fitnessB, epsilon float32,
	seed int64,
	keepDisabledRate float32,
) int {
	rangeA, rangeB := pop.Networks[parentA].Connections, pop.Networks[parentB].Connections
	connsA, connsB := Span(rangeA, pop.Connections), Span(rangeB, pop.Connections)
	weightsA, weightsB := Span(rangeA, pop.ConnectionWeights), Span(rangeB, pop.ConnectionWeights)
	infosA, infosB := Span(rangeA, pop.ConnectionInfos), Span(rangeB, pop.ConnectionInfos)

	out := 0
	count := crossoverWalk(pop, parentA, parentB, fitnessA, fitnessB, epsilon, seed, keepDisabledRate,
		func(fromA bool, idx int, enabled bool) {
			if fromA {
				dest[out] = connsA[idx]
				destWeights[out] = weightsA[idx]
				destInfos[out] = ConnectionInfo{Enabled: enabled, Innovation: infosA[idx].Innovation}
			} else {
				dest[out] = connsB[idx]
				destWeights[out] = weightsB[idx]
				destInfos[out] = ConnectionInfo{Enabled: enabled, Innovation: infosB[idx].Innovation}
			}
			out++
		})
	return count
}

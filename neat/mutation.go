package neat

import "math/rand"

// maxCycleCheckSteps bounds the depth-first reachability search in
// wouldCreateCycle. The source (would_create_loop) uses the same bound and
// falls back to "assume a cycle" on exhaustion rather than searching
// unboundedly (SPEC_FULL.md Part D).
const maxCycleCheckSteps = 100_000

// wouldCreateCycle reports whether adding edge from->to would create a
// cycle in the enabled subgraph of conns, via bounded DFS from `to` back
// towards `from` (spec §4.E).
func wouldCreateCycle(conns []Connection, infos []ConnectionInfo, from, to NodeIndex) bool {
	if from == to {
		return true
	}
	stack := make([]NodeIndex, 0, 64)
	stack = append(stack, to)
	visited := make(map[NodeIndex]bool, 64)

	for steps := 0; len(stack) > 0; steps++ {
		if steps >= maxCycleCheckSteps {
			return true
		}
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == from {
			return true
		}
		if visited[node] {
			continue
		}
		visited[node] = true
		for i, c := range conns {
			if infos[i].Enabled && c.From == node {
				stack = append(stack, c.To)
			}
		}
	}
	return false
}

// sampleWeight draws a weight uniformly from [min,max].
func sampleWeight(rng *rand.Rand, cfg WeightConfig) float32 {
	return cfg.WeightMin + rng.Float32()*(cfg.WeightMax-cfg.WeightMin)
}

// applyAddConnMutation implements spec §4.E "Add-connection". dest is the
// offspring's reserved connection slice (ancestor's connections already
// copied into dest[:ancestorCount], capacity for one extra gene); the
// function returns the actual connection count after either appending the
// new gene or leaving the offspring unchanged on saturation.
//
// src/dst node domains: a source is any input or hidden node; a destination
// is any output or hidden node. inputCount/outputCount/hiddenCount describe
// the offspring's own node bands.
func applyAddConnMutation(
	rng *rand.Rand,
	registry *InnovationRegistry,
	dest []Connection, destInfos []ConnectionInfo, destWeights []float32,
	ancestorCount int,
	inputCount, outputCount, hiddenCount NodeIndex,
	cfg WeightConfig,
) int {
	numSrc := int(inputCount + hiddenCount)
	numDst := int(outputCount + hiddenCount)
	if numSrc == 0 || numDst == 0 {
		return ancestorCount
	}

	budget := numSrc*numDst + 1
	for attempt := 0; attempt < budget; attempt++ {
		src := sampleSrcNode(rng, inputCount, outputCount, hiddenCount)
		dst := sampleDstNode(rng, inputCount, outputCount, hiddenCount)

		if src == dst || edgeExists(dest[:ancestorCount], src, dst) {
			continue
		}
		if wouldCreateCycle(dest[:ancestorCount], destInfos[:ancestorCount], src, dst) {
			continue
		}

		dest[ancestorCount] = Connection{From: src, To: dst}
		destWeights[ancestorCount] = sampleWeight(rng, cfg)
		registry.RegisterOrLookup(src, dst, &destInfos[ancestorCount])
		return ancestorCount + 1
	}

	// Saturation: no admissible edge found within budget; leave unchanged
	// and shrink the reserved slot back off (spec §7).
	return ancestorCount
}

func sampleSrcNode(rng *rand.Rand, inputCount, outputCount, hiddenCount NodeIndex) NodeIndex {
	n := int(inputCount + hiddenCount)
	i := rng.Intn(n)
	if i < int(inputCount) {
		return NodeIndex(i)
	}
	return inputCount + outputCount + NodeIndex(i-int(inputCount))
}

func sampleDstNode(rng *rand.Rand, inputCount, outputCount, hiddenCount NodeIndex) NodeIndex {
	n := int(outputCount + hiddenCount)
	i := rng.Intn(n)
	if i < int(outputCount) {
		return inputCount + NodeIndex(i)
	}
	return inputCount + outputCount + NodeIndex(i-int(outputCount))
}

func edgeExists(conns []Connection, from, to NodeIndex) bool {
	for _, c := range conns {
		if c.From == from && c.To == to {
			return true
		}
	}
	return false
}

// applyAddNodeMutation implements spec §4.E "Add-node": split a random
// enabled connection, disabling it and inserting two new ones through a
// fresh hidden node. dest has ancestorCount existing connections plus
// capacity for two more. Returns the new connection count and hidden node
// count; on an empty ancestor it shrinks by releasing both reserved slots
// and leaves hiddenCount unchanged (spec §7 "Add-node with empty parent").
func applyAddNodeMutation(
	rng *rand.Rand,
	registry *InnovationRegistry,
	dest []Connection, destInfos []ConnectionInfo, destWeights []float32,
	ancestorCount int,
	inputCount, outputCount, hiddenCount NodeIndex,
) (newCount int, newHiddenCount NodeIndex) {
	enabled := make([]int, 0, ancestorCount)
	for i := 0; i < ancestorCount; i++ {
		if destInfos[i].Enabled {
			enabled = append(enabled, i)
		}
	}
	if len(enabled) == 0 {
		return ancestorCount, hiddenCount
	}

	split := enabled[rng.Intn(len(enabled))]
	oldFrom, oldTo := dest[split].From, dest[split].To
	oldWeight := destWeights[split]
	destInfos[split].Enabled = false

	newHidden := inputCount + outputCount + hiddenCount
	newHiddenCount = hiddenCount + 1

	dest[ancestorCount] = Connection{From: oldFrom, To: newHidden}
	destWeights[ancestorCount] = oldWeight
	registry.RegisterOrLookup(oldFrom, newHidden, &destInfos[ancestorCount])

	dest[ancestorCount+1] = Connection{From: newHidden, To: oldTo}
	destWeights[ancestorCount+1] = 1.0
	registry.RegisterOrLookup(newHidden, oldTo, &destInfos[ancestorCount+1])

	return ancestorCount + 2, newHiddenCount
}

// mutateWeightsAllConnections implements the "all-connections" weight
// mutation variant (spec §4.E): every connection of the network is
// perturbed or resampled.
func mutateWeightsAllConnections(rng *rand.Rand, weights []float32, cfg EvolutionConfig) {
	for i := range weights {
		weights[i] = mutateOneWeight(rng, weights[i], cfg)
	}
}

// mutateWeightsSomeConnections implements the "some-connections" variant:
// the whole network is gated by p_network_mutation before any of its
// connections are touched.
func mutateWeightsSomeConnections(rng *rand.Rand, weights []float32, cfg EvolutionConfig) {
	if rng.Float32() >= cfg.Mutation.PNetworkMutation {
		return
	}
	mutateWeightsAllConnections(rng, weights, cfg)
}

func mutateOneWeight(rng *rand.Rand, w float32, cfg EvolutionConfig) float32 {
	if rng.Float32() < cfg.Mutation.PUniformMutation {
		offset := cfg.Weights.OffsetMin + rng.Float32()*(cfg.Weights.OffsetMax-cfg.Weights.OffsetMin)
		return clamp(w+offset, cfg.Weights.WeightMin, cfg.Weights.WeightMax)
	}
	return sampleWeight(rng, cfg.Weights)
}

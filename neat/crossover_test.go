package neat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildCrossoverPopulation() *Population {
	pop := &Population{Iface: InterfaceConfig{InputCount: 2, OutputCount: 1}}

	// Parent A: innovations 0 (enabled), 1 (enabled), 3 (excess, enabled).
	aBegin := ConnIndex(0)
	pop.Connections = append(pop.Connections,
		Connection{From: 0, To: 2}, Connection{From: 1, To: 2}, Connection{From: 0, To: 3})
	pop.ConnectionWeights = append(pop.ConnectionWeights, 0.1, 0.2, 0.3)
	pop.ConnectionInfos = append(pop.ConnectionInfos,
		ConnectionInfo{Enabled: true, Innovation: 0},
		ConnectionInfo{Enabled: true, Innovation: 1},
		ConnectionInfo{Enabled: true, Innovation: 3})
	pop.Networks = append(pop.Networks, Network{HiddenNodeCount: 1, Connections: Range[ConnIndex]{Begin: aBegin, End: ConnIndex(len(pop.Connections))}})

	// Parent B: innovations 0 (enabled), 2 (disjoint, enabled).
	bBegin := ConnIndex(len(pop.Connections))
	pop.Connections = append(pop.Connections, Connection{From: 0, To: 2}, Connection{From: 1, To: 3})
	pop.ConnectionWeights = append(pop.ConnectionWeights, 0.9, 0.4)
	pop.ConnectionInfos = append(pop.ConnectionInfos,
		ConnectionInfo{Enabled: true, Innovation: 0},
		ConnectionInfo{Enabled: true, Innovation: 2})
	pop.Networks = append(pop.Networks, Network{HiddenNodeCount: 1, Connections: Range[ConnIndex]{Begin: bBegin, End: ConnIndex(len(pop.Connections))}})

	return pop
}

func TestCrossoverCountingPassMatchesEmittingPass(t *testing.T) {
	pop := buildCrossoverPopulation()
	const seed = int64(99)

	count := countCrossoverOffspring(pop, 0, 1, 10, 5, 0.001, seed, 0.75)

	dest := make([]Connection, count)
	destInfos := make([]ConnectionInfo, count)
	destWeights := make([]float32, count)
	emitted := emitCrossoverOffspring(pop, dest, destInfos, destWeights, 0, 1, 10, 5, 0.001, seed, 0.75)

	require.Equal(t, count, emitted, "counting and emitting passes must agree on gene count given the same seed")
}

func TestCrossoverOfFitterParentKeepsAllItsExcessGenes(t *testing.T) {
	pop := buildCrossoverPopulation()
	const seed = int64(7)

	// Parent A (index 0) is strictly fitter, so every disjoint/excess gene
	// from A must be kept and every one from B dropped.
	count := countCrossoverOffspring(pop, 0, 1, 100, 1, 0.001, seed, 0.75)
	dest := make([]Connection, count)
	destInfos := make([]ConnectionInfo, count)
	destWeights := make([]float32, count)
	emitCrossoverOffspring(pop, dest, destInfos, destWeights, 0, 1, 100, 1, 0.001, seed, 0.75)

	innovations := make(map[InnovationNumber]bool, count)
	for _, info := range destInfos {
		innovations[info.Innovation] = true
	}
	require.True(t, innovations[3], "A's excess gene (innovation 3) must survive when A is fitter")
	require.False(t, innovations[2], "B's disjoint gene (innovation 2) must be dropped when A is fitter")
}

func TestCrossoverSelfIsIdentity(t *testing.T) {
	pop := buildCrossoverPopulation()

	count := countCrossoverOffspring(pop, 0, 0, 5, 5, 0.001, 1, 0.75)
	require.Equal(t, 3, count, "crossing a network with itself must keep every one of its genes")
}

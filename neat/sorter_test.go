package neat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func twoNodeNetwork(pop *Population, innovation InnovationNumber, weight float32, enabled bool) Network {
	begin := ConnIndex(len(pop.Connections))
	pop.Connections = append(pop.Connections, Connection{From: 0, To: 2})
	pop.ConnectionWeights = append(pop.ConnectionWeights, weight)
	pop.ConnectionInfos = append(pop.ConnectionInfos, ConnectionInfo{Enabled: enabled, Innovation: innovation})
	return Network{Connections: Range[ConnIndex]{Begin: begin, End: ConnIndex(len(pop.Connections))}}
}

func TestCompatibilityDistanceOfIdenticalNetworksIsZero(t *testing.T) {
	pop := &Population{Iface: InterfaceConfig{InputCount: 2, OutputCount: 1}}
	pop.Networks = append(pop.Networks, twoNodeNetwork(pop, 0, 0.5, true))
	pop.Networks = append(pop.Networks, twoNodeNetwork(pop, 0, 0.5, true))

	d := compatibilityDistance(pop, 0, 1, DefaultDistanceConfig())
	require.Zero(t, d)
}

func TestCompatibilityDistanceIsSymmetric(t *testing.T) {
	pop := &Population{Iface: InterfaceConfig{InputCount: 2, OutputCount: 1}}
	pop.Networks = append(pop.Networks, twoNodeNetwork(pop, 0, 0.5, true))
	pop.Networks = append(pop.Networks, twoNodeNetwork(pop, 1, 0.9, true))

	require.Equal(t,
		compatibilityDistance(pop, 0, 1, DefaultDistanceConfig()),
		compatibilityDistance(pop, 1, 0, DefaultDistanceConfig()))
}

func TestCompatibilityDistanceGrowsWithWeightDelta(t *testing.T) {
	pop := &Population{Iface: InterfaceConfig{InputCount: 2, OutputCount: 1}}
	pop.Networks = append(pop.Networks, twoNodeNetwork(pop, 0, 0.0, true))
	pop.Networks = append(pop.Networks, twoNodeNetwork(pop, 0, 1.0, true))

	cfg := DefaultDistanceConfig()
	d := compatibilityDistance(pop, 0, 1, cfg)
	require.InDelta(t, cfg.CAvgWeight*1.0, d, 1e-6)
}

func TestSpeciesSorterPartitionsCoverPopulationExactlyOnce(t *testing.T) {
	pop := &Population{Iface: InterfaceConfig{InputCount: 2, OutputCount: 1}}
	for i := 0; i < 10; i++ {
		// Half the population shares innovation 0, the other half innovation 1,
		// with a large compatibility gap so they fall in separate species.
		innov := InnovationNumber(i % 2)
		pop.Networks = append(pop.Networks, twoNodeNetwork(pop, innov, float32(i%2), true))
	}

	sorter := NewSpeciesSorter(10)
	cfg := DefaultDistanceConfig()
	cfg.Threshold = 0.01 // tight enough that the two innovation groups separate
	sorter.SortInto(pop, cfg, Range[NetworkIndex]{Begin: 0, End: 10})
	sorter.Finalize(pop)

	require.Len(t, pop.Networks, 10)

	var total NetworkIndex
	seen := make(map[NetworkIndex]bool)
	for _, sp := range pop.Species {
		total += sp.Networks.Size()
		for n := sp.Networks.Begin; n < sp.Networks.End; n++ {
			require.False(t, seen[n], "network %d claimed by more than one species", n)
			seen[n] = true
		}
	}
	require.Equal(t, NetworkIndex(10), total)
	require.Len(t, seen, 10)
}

func TestSpeciesSorterGroupsIdenticalNetworksIntoOneSpecies(t *testing.T) {
	pop := &Population{Iface: InterfaceConfig{InputCount: 2, OutputCount: 1}}
	for i := 0; i < 6; i++ {
		pop.Networks = append(pop.Networks, twoNodeNetwork(pop, 0, 0.5, true))
	}

	sorter := NewSpeciesSorter(6)
	sorter.SortInto(pop, DefaultDistanceConfig(), Range[NetworkIndex]{Begin: 0, End: 6})
	sorter.Finalize(pop)

	require.Len(t, pop.Species, 1)
	require.Equal(t, NetworkIndex(6), pop.Species[0].Networks.Size())
}

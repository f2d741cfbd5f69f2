package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcanumlabs/neatcore/neat/inference"
)

// scaledSigmoid mirrors the inference package's unexported activation
// function so tests can compute expected values independently.
func scaledSigmoid(x float32) float32 {
	return 1.0 / (2.0 + float32(math.Exp(float64(-4.9*x))))
}

// chainPopulation builds one network: input0 -> hidden0 -> output0, plus an
// unconnected output1, plus a hidden node unreachable from any output.
func chainPopulation() *Population {
	pop := &Population{Iface: InterfaceConfig{InputCount: 1, OutputCount: 2}}
	// Node indices: input 0; outputs 1,2; hidden 3 (reachable), 4 (dead end).
	pop.Connections = []Connection{
		{From: 0, To: 3}, // input -> hidden
		{From: 3, To: 1}, // hidden -> output0
		{From: 0, To: 4}, // input -> dead hidden node, never reaches an output
	}
	pop.ConnectionWeights = []float32{2, 3, 9}
	pop.ConnectionInfos = []ConnectionInfo{
		{Enabled: true, Innovation: 0},
		{Enabled: true, Innovation: 1},
		{Enabled: true, Innovation: 2},
	}
	pop.Networks = []Network{{HiddenNodeCount: 2, Connections: Range[ConnIndex]{Begin: 0, End: 3}}}
	return pop
}

func TestBuildInferencePlanOmitsUnreachableNodes(t *testing.T) {
	pop := chainPopulation()
	plan, err := BuildInferencePlan(pop, 2)
	require.NoError(t, err)
	require.Len(t, plan.Networks, 1)

	net := plan.Networks[0]
	nodeCount := net.IncomingCountRange[1] - net.IncomingCountRange[0]
	// Reachable from outputs: hidden(3), output(1), output(2). The dead hidden
	// node 4 is never pushed from an output and must not appear.
	require.Equal(t, 3, nodeCount, "dead-end hidden node must be omitted from the plan")
}

func TestBuildInferencePlanEvaluatesDependencyChainCorrectly(t *testing.T) {
	pop := chainPopulation()
	plan, err := BuildInferencePlan(pop, 1)
	require.NoError(t, err)

	input := float32(0.3)
	inputs := []float32{input}
	outputs := make([]float32, 2)
	inference.Evaluate(plan, inputs, outputs, 0, 1)

	hidden := scaledSigmoid(2 * input)
	wantOutput0 := scaledSigmoid(3 * hidden)
	wantOutput1 := scaledSigmoid(0) // unconnected output

	require.InDelta(t, wantOutput0, outputs[0], 1e-6)
	require.InDelta(t, wantOutput1, outputs[1], 1e-6)
}

func TestBuildInferencePlanIncludesUnconnectedOutputs(t *testing.T) {
	pop := chainPopulation()
	plan, err := BuildInferencePlan(pop, 1)
	require.NoError(t, err)

	net := plan.Networks[0]
	outputLookup := plan.IncomingCountsAndOutputLookup[net.IncomingCountRange[1]:]
	require.Len(t, outputLookup, 2)
}

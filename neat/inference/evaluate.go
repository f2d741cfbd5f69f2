package inference

// Evaluate runs networks [begin, end) of group on a flat input buffer of
// size group-network-count * InputCount and writes into a flat output
// buffer of size group-network-count * OutputCount, at the positions that
// belong to networks in [begin, end) (spec §4.H, §6 "evaluate(plan, inputs,
// outputs, range)").
//
// Index-out-of-range or length-mismatch inputs are programmer errors
// (contract violations) and panic rather than returning an error, per the
// error handling design: the core recognizes only programmer-error and
// degenerate-input faults, and a malformed buffer is the former.
func Evaluate(group *Plan, inputs, outputs []float32, begin, end int) {
	if begin >= end {
		return
	}
	if begin < 0 || end > len(group.Networks) {
		panic("inference: network range out of bounds")
	}
	if len(inputs)%group.InputCount != 0 || len(outputs)%group.OutputCount != 0 {
		panic("inference: buffer length not a multiple of network arity")
	}

	scratch := make([]float32, 0, 64)

	for networkIndex := begin; networkIndex < end; networkIndex++ {
		network := group.Networks[networkIndex]
		nodeCount := network.IncomingCountRange[1] - network.IncomingCountRange[0]

		scratch = scratch[:0]
		if cap(scratch) < group.InputCount+nodeCount {
			scratch = make([]float32, group.InputCount+nodeCount)
		} else {
			scratch = scratch[:group.InputCount+nodeCount]
		}

		copy(scratch[:group.InputCount], inputs[networkIndex*group.InputCount:(networkIndex+1)*group.InputCount])
		for i := group.InputCount; i < len(scratch); i++ {
			scratch[i] = 0
		}

		incomingCounts := group.IncomingCountsAndOutputLookup[network.IncomingCountRange[0]:network.IncomingCountRange[1]]
		connIdx := network.ConnectionsBegin
		for nodeOffset, incomingCount := range incomingCounts {
			var sum float32
			for k := 0; k < int(incomingCount); k++ {
				conn := group.Connections[connIdx]
				sum += conn.Weight * scratch[conn.SourceNodeIndex]
				connIdx++
			}
			scratch[group.InputCount+nodeOffset] = activationFunction(sum)
		}

		outputLookupBegin := network.IncomingCountRange[1]
		outputLookup := group.IncomingCountsAndOutputLookup[outputLookupBegin : outputLookupBegin+group.OutputCount]
		outBase := networkIndex * group.OutputCount
		for k, nodePos := range outputLookup {
			outputs[outBase+k] = scratch[nodePos]
		}
	}
}

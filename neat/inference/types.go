// Package inference holds the packed, topologically sorted evaluation plan
// that the trainer rebuilds every generation (spec §4.G) and the evaluator
// that runs it (spec §4.H). It knows nothing about genomes, species or
// mutation — only about a flat node/connection plan and an activation
// function, mirroring the decoupling between neat::inference and neat in
// the reference implementation this module is ported from.
package inference

import "math"

// NodeIndex indexes a plan's renumbered, emission-ordered node list.
type NodeIndex uint32

// InvalidNodeIndex marks an unset lookup slot.
const InvalidNodeIndex = ^NodeIndex(0)

// WeightedConnection is one inference-time edge: a source node (already
// renumbered to its position in the owning network's node list) and a
// weight. There is no destination field — connections are grouped
// contiguously by destination, and the destination is implied by which
// node's incoming-connection-count window they fall in (spec §3).
type WeightedConnection struct {
	SourceNodeIndex NodeIndex
	Weight          float32
}

// Network describes one genome's slice of a Plan: where its connections
// begin in the shared Connections column, and the range within
// IncomingCountsAndOutputLookup holding its per-node incoming-connection
// counts. Its output-node lookup tail (Plan.OutputCount entries) follows
// immediately after the end of that range.
type Network struct {
	ConnectionsBegin        int
	IncomingCountRange      [2]int // [begin, end) into IncomingCountsAndOutputLookup; node count == end-begin
}

// Plan is a packed group of inference-ready networks (spec §3 "inference
// plan"). One Plan is rebuilt per generation by the trainer's plan builder.
type Plan struct {
	Networks []Network

	// IncomingCountsAndOutputLookup packs, per network: `node_count`
	// incoming-connection counts (one per emitted node, in evaluation
	// order) followed immediately by `OutputCount` renumbered output-node
	// positions. Both halves live in the same slice per spec §3's layout
	// diagram so a single range (Network.IncomingCountRange) addresses the
	// node-count half, and OutputCount more entries right after it are the
	// output lookup.
	IncomingCountsAndOutputLookup []uint32

	Connections []WeightedConnection

	InputCount  int
	OutputCount int
}

// activationFunction is the fixed scaled-sigmoid spec §4.H mandates,
// preserved literally including its non-standard denominator (spec §9 note
// 1): f(x) = 1 / (2 + exp(-4.9x)), ranging over (0, 0.5) rather than (0, 1).
func activationFunction(signal float32) float32 {
	return 1.0 / (2.0 + float32(math.Exp(float64(-4.9*signal))))
}

package neat

import (
	"golang.org/x/sync/errgroup"

	"github.com/arcanumlabs/neatcore/neat/inference"
)

// networkFragment holds one network's contribution to a Plan, built in
// isolation so that many networks can be built concurrently with no shared
// mutable state (spec §5: "no synchronization is needed on offspring
// columns"); BuildInferencePlan concatenates fragments sequentially.
type networkFragment struct {
	incomingCountsAndLookup []uint32
	connections             []inference.WeightedConnection
}

// BuildInferencePlan implements spec §4.G: for every network in pop, an
// iterative post-order traversal of the enabled-edge subgraph rooted at its
// output nodes, renumbering non-input nodes to their emission position and
// appending the output-node lookup tail. Work is partitioned across workers
// goroutines, one balanced contiguous network segment each (spec §5); each
// worker only ever touches its own segment's fragments, so no locking is
// needed beyond the final sequential concatenation.
func BuildInferencePlan(pop *Population, workers int) (*inference.Plan, error) {
	fragments := make([]networkFragment, len(pop.Networks))

	segments := balancedSegments(Range[NetworkIndex]{Begin: 0, End: NetworkIndex(len(pop.Networks))}, workers)
	g := new(errgroup.Group)
	for _, seg := range segments {
		seg := seg
		g.Go(func() error {
			for n := seg.Begin; n < seg.End; n++ {
				fragments[n] = buildNetworkFragment(pop, n)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan := &inference.Plan{
		InputCount:  int(pop.Iface.InputCount),
		OutputCount: int(pop.Iface.OutputCount),
		Networks:    make([]inference.Network, len(fragments)),
	}
	for i, frag := range fragments {
		countBegin := len(plan.IncomingCountsAndOutputLookup)
		plan.Networks[i] = inference.Network{
			ConnectionsBegin:   len(plan.Connections),
			IncomingCountRange: [2]int{countBegin, countBegin + len(frag.incomingCountsAndLookup) - int(pop.Iface.OutputCount)},
		}
		plan.IncomingCountsAndOutputLookup = append(plan.IncomingCountsAndOutputLookup, frag.incomingCountsAndLookup...)
		plan.Connections = append(plan.Connections, frag.connections...)
	}
	return plan, nil
}

// buildNetworkFragment runs the post-order traversal for a single network.
func buildNetworkFragment(pop *Population, n NetworkIndex) networkFragment {
	iface := pop.Iface
	network := pop.Networks[n]
	connRange := network.Connections
	conns := Span(connRange, pop.Connections)
	infos := Span(connRange, pop.ConnectionInfos)
	weights := Span(connRange, pop.ConnectionWeights)

	incomingByDest := make(map[NodeIndex][]int, len(conns))
	for i, c := range conns {
		if infos[i].Enabled {
			incomingByDest[c.To] = append(incomingByDest[c.To], i)
		}
	}

	const (
		stateNone = iota
		stateVisiting
		stateEmitted
	)
	state := make(map[NodeIndex]int)
	renumbered := make(map[NodeIndex]NodeIndex)
	order := make([]NodeIndex, 0, len(conns))

	stack := make([]NodeIndex, 0, int(iface.OutputCount)+len(conns))
	for o := NodeIndex(0); o < iface.OutputCount; o++ {
		stack = append(stack, iface.InputCount+o)
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]

		switch state[node] {
		case stateEmitted:
			stack = stack[:len(stack)-1]
		case stateVisiting:
			stack = stack[:len(stack)-1]
			renumbered[node] = iface.InputCount + NodeIndex(len(order))
			order = append(order, node)
			state[node] = stateEmitted
		default:
			state[node] = stateVisiting
			for _, connIdx := range incomingByDest[node] {
				pred := conns[connIdx].From
				if pred < iface.InputCount {
					continue // inputs need no traversal; their index is already final
				}
				if state[pred] == stateNone {
					stack = append(stack, pred)
				}
			}
		}
	}

	frag := networkFragment{
		incomingCountsAndLookup: make([]uint32, 0, len(order)+int(iface.OutputCount)),
		connections:             make([]inference.WeightedConnection, 0, len(conns)),
	}
	for _, node := range order {
		incoming := incomingByDest[node]
		for _, connIdx := range incoming {
			src := conns[connIdx].From
			renumberedSrc := src
			if src >= iface.InputCount {
				renumberedSrc = renumbered[src]
			}
			frag.connections = append(frag.connections, inference.WeightedConnection{
				SourceNodeIndex: inference.NodeIndex(renumberedSrc),
				Weight:          weights[connIdx],
			})
		}
		frag.incomingCountsAndLookup = append(frag.incomingCountsAndLookup, uint32(len(incoming)))
	}
	for o := NodeIndex(0); o < iface.OutputCount; o++ {
		outputNode := iface.InputCount + o
		frag.incomingCountsAndLookup = append(frag.incomingCountsAndLookup, uint32(renumbered[outputNode]))
	}

	return frag
}

package neat

// NodeIndex, ConnIndex, NetworkIndex and SpeciesIndex are the implicit index
// spaces the arena is built from. Nodes are never materialized as objects:
// indices [0, I) are inputs, [I, I+O) are outputs, [I+O, I+O+hidden) are
// hidden, where I and O come from the trainer's InterfaceConfig and hidden is
// per-network (Network.HiddenNodeCount).
type (
	NodeIndex        uint32
	ConnIndex        uint32
	NetworkIndex     uint32
	SpeciesIndex     uint32
	InnovationNumber uint64
)

// InterfaceConfig fixes a trainer's input/output arity for its lifetime; see
// the Non-goal against dynamic resizing.
type InterfaceConfig struct {
	InputCount  NodeIndex
	OutputCount NodeIndex
}

// Connection is a single structural gene: an edge between two implicit node
// indices. It is never boxed; it only ever lives inside Population.Connections.
type Connection struct {
	From, To NodeIndex
}

// ConnectionInfo carries the mutable, per-generation side of a gene: whether
// it is currently enabled and its innovation number (see InnovationRegistry).
type ConnectionInfo struct {
	Enabled    bool
	Innovation InnovationNumber
}

// Network is one genome: a hidden-node count and a half-open range into the
// population's connection columns. Cloning a network is a range copy across
// Connections, ConnectionWeights and ConnectionInfos — never a deep copy of
// individual connections.
type Network struct {
	HiddenNodeCount NodeIndex
	Connections     Range[ConnIndex]
}

// NodeCount returns the network's total node count: inputs, outputs and
// hidden nodes. The input and output counts come from iface, not the
// network, since every network in an arena shares one InterfaceConfig.
func (n Network) NodeCount(iface InterfaceConfig) NodeIndex {
	return iface.InputCount + iface.OutputCount + n.HiddenNodeCount
}

// Species is a half-open range of network indices; species partition
// [0, population_size) and never overlap (invariant 6).
type Species struct {
	Networks Range[NetworkIndex]
}

// Population is one generation stored column-wise: no connection or node is
// ever wrapped in a per-item heap object. Appending, resizing and
// slicing-by-range are the only operations the rest of the package needs.
type Population struct {
	Iface InterfaceConfig

	Species           []Species
	Networks          []Network
	Connections       []Connection
	ConnectionWeights []float32
	ConnectionInfos   []ConnectionInfo
}

// reset empties all columns (preserving capacity) so the arena can be reused
// across generations without reallocating.
func (p *Population) reset(iface InterfaceConfig) {
	p.Iface = iface
	p.Species = p.Species[:0]
	p.Networks = p.Networks[:0]
	p.Connections = p.Connections[:0]
	p.ConnectionWeights = p.ConnectionWeights[:0]
	p.ConnectionInfos = p.ConnectionInfos[:0]
}

// networkConnections returns the connection range (enabled and disabled
// genes alike) of network n.
func (p *Population) networkConnections(n NetworkIndex) Range[ConnIndex] {
	return p.Networks[n].Connections
}

// appendConnection appends one gene across all three connection columns and
// returns its new index.
func (p *Population) appendConnection(c Connection, weight float32, info ConnectionInfo) ConnIndex {
	idx := ConnIndex(len(p.Connections))
	p.Connections = append(p.Connections, c)
	p.ConnectionWeights = append(p.ConnectionWeights, weight)
	p.ConnectionInfos = append(p.ConnectionInfos, info)
	return idx
}

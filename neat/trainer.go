package neat

import (
	"fmt"
	"math/rand"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/arcanumlabs/neatcore/neat/inference"
)

// Trainer owns one generation's double-buffered arenas plus the shared,
// per-generation state that ties them together: the innovation registry and
// the species sorter (spec §4.A, §4.I). current holds the population last
// handed out via Plan/Evolve's return value, the one ancestorFitness in the
// next Evolve call is indexed against; next is scratch space for the
// offspring being built, swapped into current at the end of Evolve.
type Trainer struct {
	iface          InterfaceConfig
	populationSize int
	threadCount    int
	cfg            EvolutionConfig

	registry *InnovationRegistry
	sorter   *SpeciesSorter

	current *Population
	next    *Population

	rng *rand.Rand

	// Verbose gates per-generation progress lines to stderr (ambient logging,
	// SPEC_FULL.md Part B) — off by default.
	Verbose bool
}

// NewTrainer builds the generation-zero population: populationSize fully
// disconnected networks (no hidden nodes, no connections), all of which fall
// into a single species since compatibility_distance of two empty networks
// is zero (spec §4.C).
func NewTrainer(cfg EvolutionConfig, iface InterfaceConfig, populationSize, threadCount int) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if iface.InputCount == 0 || iface.OutputCount == 0 {
		return nil, fmt.Errorf("neat: InputCount and OutputCount must both be > 0")
	}
	if populationSize <= 0 {
		return nil, fmt.Errorf("neat: populationSize must be > 0, got %d", populationSize)
	}
	if threadCount <= 0 {
		threadCount = 1
	}

	current := &Population{Iface: iface}
	current.Networks = make([]Network, populationSize)
	for i := range current.Networks {
		current.Networks[i] = Network{Connections: Range[ConnIndex]{Begin: 0, End: 0}}
	}

	sorter := NewSpeciesSorter(populationSize)
	sorter.SortInto(current, cfg.Distance, Range[NetworkIndex]{Begin: 0, End: NetworkIndex(populationSize)})
	sorter.Finalize(current)

	t := &Trainer{
		iface:          iface,
		populationSize: populationSize,
		threadCount:    threadCount,
		cfg:            cfg,
		registry:       NewInnovationRegistry(),
		sorter:         sorter,
		current:        current,
		next:           &Population{Iface: iface},
		rng:            rand.New(rand.NewSource(rand.Int63())),
	}
	return t, nil
}

// Plan builds the inference plan for the current generation (spec §4.G),
// ready to be evaluated and the resulting fitness handed to Evolve.
func (t *Trainer) Plan() (*inference.Plan, error) {
	return BuildInferencePlan(t.current, t.threadCount)
}

func (t *Trainer) logf(format string, args ...interface{}) {
	if t.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

func (t *Trainer) nextSeed() int64 {
	return t.rng.Int63()
}

type jobKind int

const (
	jobAddConn jobKind = iota
	jobAddNode
	jobWeightMutation
	jobChampion
	jobCrossover
)

// offspringJob fully describes one offspring network's provenance; the
// layout pass resolves connCount for every job (running crossover's counting
// pass where needed) before any arena column is allocated, and the fill pass
// then writes each job's connections independently of every other job (spec
// §4.F/§9: "counting pass before allocation, emit pass replays the same
// seed").
type offspringJob struct {
	kind               jobKind
	ancestor           NetworkIndex
	parentA, parentB   NetworkIndex
	fitnessA, fitnessB float32
	seed               int64
	connCount          int
	hidden             NodeIndex
}

// Evolve implements spec §4.I end to end: per-species offspring budgeting,
// per-species composition, a counting pass sizing every offspring's
// connection slice, a single arena allocation, a parallel fill pass, a
// re-speciation of the new generation, and the rebuilt inference plan.
func (t *Trainer) Evolve(ancestorFitness []float32) (*inference.Plan, error) {
	if len(ancestorFitness) != len(t.current.Networks) {
		return nil, fmt.Errorf("neat: fitness length %d does not match population size %d", len(ancestorFitness), len(t.current.Networks))
	}

	meanFitness := speciesMeanFitness(t.current, ancestorFitness)
	budgets := divideOffspringBetweenSpecies(meanFitness, t.populationSize)

	jobs := make([]offspringJob, 0, t.populationSize)
	nextSpecies := make([]Species, 0, len(t.current.Species))

	for i, sp := range t.current.Species {
		members := make([]scoredMember, 0, sp.Networks.Size())
		for n := sp.Networks.Begin; n < sp.Networks.End; n++ {
			members = append(members, scoredMember{index: n, fitness: ancestorFitness[n]})
		}
		comp := buildSpeciesComposition(t.rng, members, budgets[i], sp.Networks, NetworkIndex(t.populationSize), len(t.current.Species), t.cfg)

		begin := NetworkIndex(len(jobs))
		mutIdx := 0
		for k := 0; k < comp.AddConnCount; k++ {
			jobs = append(jobs, offspringJob{kind: jobAddConn, ancestor: comp.MutationAncestors[mutIdx], seed: t.nextSeed()})
			mutIdx++
		}
		for k := 0; k < comp.AddNodeCount; k++ {
			jobs = append(jobs, offspringJob{kind: jobAddNode, ancestor: comp.MutationAncestors[mutIdx], seed: t.nextSeed()})
			mutIdx++
		}
		for k := 0; k < comp.WeightMutationCount; k++ {
			jobs = append(jobs, offspringJob{kind: jobWeightMutation, ancestor: comp.MutationAncestors[mutIdx], seed: t.nextSeed()})
			mutIdx++
		}
		if comp.HasChampion {
			jobs = append(jobs, offspringJob{kind: jobChampion, ancestor: comp.ChampionAncestor})
		}
		for _, pair := range comp.InSpeciesCrossover {
			jobs = append(jobs, offspringJob{kind: jobCrossover, parentA: pair.A, parentB: pair.B, seed: t.nextSeed()})
		}
		for _, pair := range comp.InterSpeciesCrossover {
			jobs = append(jobs, offspringJob{kind: jobCrossover, parentA: pair.A, parentB: pair.B, seed: t.nextSeed()})
		}
		end := NetworkIndex(len(jobs))
		nextSpecies = append(nextSpecies, Species{Networks: Range[NetworkIndex]{Begin: begin, End: end}})
	}

	t.logf("neat: generation has %d species, %d offspring slots", len(t.current.Species), len(jobs))

	// Resolve every job's exact connection count. Crossover must run its
	// counting pass now, before the arena is sized (spec §4.F).
	for i := range jobs {
		job := &jobs[i]
		switch job.kind {
		case jobAddConn:
			ancestor := t.current.Networks[job.ancestor]
			job.connCount = int(ancestor.Connections.Size()) + 1
			job.hidden = ancestor.HiddenNodeCount
		case jobAddNode:
			ancestor := t.current.Networks[job.ancestor]
			job.connCount = int(ancestor.Connections.Size()) + 2
			job.hidden = ancestor.HiddenNodeCount + 1
		case jobWeightMutation:
			ancestor := t.current.Networks[job.ancestor]
			job.connCount = int(ancestor.Connections.Size())
			job.hidden = ancestor.HiddenNodeCount
		case jobChampion:
			ancestor := t.current.Networks[job.ancestor]
			job.connCount = int(ancestor.Connections.Size())
			job.hidden = ancestor.HiddenNodeCount
		case jobCrossover:
			job.fitnessA, job.fitnessB = ancestorFitness[job.parentA], ancestorFitness[job.parentB]
			job.connCount = countCrossoverOffspring(t.current, job.parentA, job.parentB, job.fitnessA, job.fitnessB, t.cfg.FitnessEpsilon, job.seed, t.cfg.Mutation.KeepDisabledRate)
			// hidden is resolved from the actual emitted genes in the fill
			// pass below, since a crossover child's hidden-node band is not
			// simply either parent's (spec §9 / DESIGN.md).
		}
	}

	totalConns := 0
	connOffsets := make([]int, len(jobs))
	for i, job := range jobs {
		connOffsets[i] = totalConns
		totalConns += job.connCount
	}

	t.next.Iface = t.iface
	t.next.Species = nextSpecies
	t.next.Networks = make([]Network, len(jobs))
	t.next.Connections = make([]Connection, totalConns)
	t.next.ConnectionWeights = make([]float32, totalConns)
	t.next.ConnectionInfos = make([]ConnectionInfo, totalConns)
	for i, job := range jobs {
		t.next.Networks[i] = Network{
			HiddenNodeCount: job.hidden,
			Connections:     Range[ConnIndex]{Begin: ConnIndex(connOffsets[i]), End: ConnIndex(connOffsets[i] + job.connCount)},
		}
	}

	t.registry.Clear()

	g := new(errgroup.Group)
	for _, seg := range balancedSegments(Range[NetworkIndex]{Begin: 0, End: NetworkIndex(len(jobs))}, t.threadCount) {
		seg := seg
		g.Go(func() error {
			for idx := seg.Begin; idx < seg.End; idx++ {
				t.fillOffspring(jobs[idx], idx)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.current, t.next = t.next, t.current

	t.sorter.Clear()
	segG := new(errgroup.Group)
	for _, seg := range balancedSegments(Range[NetworkIndex]{Begin: 0, End: NetworkIndex(len(t.current.Networks))}, t.threadCount) {
		seg := seg
		segG.Go(func() error {
			t.sorter.SortInto(t.current, t.cfg.Distance, seg)
			return nil
		})
	}
	if err := segG.Wait(); err != nil {
		return nil, err
	}
	t.sorter.Finalize(t.current)

	return BuildInferencePlan(t.current, t.threadCount)
}

// fillOffspring writes network idx of t.next according to job, reading only
// from t.current (the ancestor generation) and writing only to idx's own
// reserved connection range — disjoint across every concurrent call, so no
// synchronization is needed (spec §5, §9 note "no synchronization is needed
// on offspring columns").
func (t *Trainer) fillOffspring(job offspringJob, idx NetworkIndex) {
	dest := Span(t.next.Networks[idx].Connections, t.next.Connections)
	destWeights := Span(t.next.Networks[idx].Connections, t.next.ConnectionWeights)
	destInfos := Span(t.next.Networks[idx].Connections, t.next.ConnectionInfos)

	switch job.kind {
	case jobAddConn:
		ancestor := t.current.Networks[job.ancestor]
		copyAncestor(t.current, ancestor, dest, destWeights, destInfos)
		rng := rand.New(rand.NewSource(job.seed))
		newCount := applyAddConnMutation(rng, t.registry, dest, destInfos, destWeights,
			int(ancestor.Connections.Size()), t.iface.InputCount, t.iface.OutputCount, ancestor.HiddenNodeCount, t.cfg.Weights)
		t.next.Networks[idx].Connections.End = t.next.Networks[idx].Connections.Begin + ConnIndex(newCount)
		mutateWeightsSomeConnections(rng, destWeights[:newCount], t.cfg)

	case jobAddNode:
		ancestor := t.current.Networks[job.ancestor]
		copyAncestor(t.current, ancestor, dest, destWeights, destInfos)
		rng := rand.New(rand.NewSource(job.seed))
		newCount, newHidden := applyAddNodeMutation(rng, t.registry, dest, destInfos, destWeights,
			int(ancestor.Connections.Size()), t.iface.InputCount, t.iface.OutputCount, ancestor.HiddenNodeCount)
		t.next.Networks[idx].Connections.End = t.next.Networks[idx].Connections.Begin + ConnIndex(newCount)
		t.next.Networks[idx].HiddenNodeCount = newHidden
		mutateWeightsSomeConnections(rng, destWeights[:newCount], t.cfg)

	case jobWeightMutation:
		ancestor := t.current.Networks[job.ancestor]
		copyAncestor(t.current, ancestor, dest, destWeights, destInfos)
		rng := rand.New(rand.NewSource(job.seed))
		mutateWeightsAllConnections(rng, destWeights, t.cfg)

	case jobChampion:
		ancestor := t.current.Networks[job.ancestor]
		copyAncestor(t.current, ancestor, dest, destWeights, destInfos)

	case jobCrossover:
		emitted := emitCrossoverOffspring(t.current, dest, destInfos, destWeights,
			job.parentA, job.parentB,
			job.fitnessA, job.fitnessB,
			t.cfg.FitnessEpsilon, job.seed, t.cfg.Mutation.KeepDisabledRate)

		hiddenBand := t.iface.InputCount + t.iface.OutputCount
		maxHidden := NodeIndex(0)
		any := false
		for _, c := range dest {
			for _, n := range [2]NodeIndex{c.From, c.To} {
				if n >= hiddenBand {
					rank := n - hiddenBand + 1
					if !any || rank > maxHidden {
						maxHidden = rank
						any = true
					}
				}
			}
		}
		t.next.Networks[idx].HiddenNodeCount = maxHidden

		// A seed distinct from the crossover walk's own (job.seed) so the
		// weight-perturbation draws aren't a verbatim replay of the gene
		// keep/drop coin flips above.
		rng := rand.New(rand.NewSource(job.seed + 1))
		mutateWeightsSomeConnections(rng, destWeights[:emitted], t.cfg)
	}
}

func copyAncestor(pop *Population, ancestor Network, dest []Connection, destWeights []float32, destInfos []ConnectionInfo) {
	copy(dest, Span(ancestor.Connections, pop.Connections))
	copy(destWeights, Span(ancestor.Connections, pop.ConnectionWeights))
	copy(destInfos, Span(ancestor.Connections, pop.ConnectionInfos))
}

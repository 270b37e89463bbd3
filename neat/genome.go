package neat

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
)

// Genome represents an individual organism in the population.
// It consists of NodeGenes and ConnectionGenes.
type Genome struct {
	Key         int                               // Unique identifier for this genome.
	Nodes       map[int]*NodeGene                 // Map node ID -> NodeGene; inputs are never stored
	Connections map[ConnectionKey]*ConnectionGene // Map connection key -> ConnectionGene
	Fitnesses   map[int]float64                   // Generation -> fitness
	Config      *GenomeConfig
}

// NewGenome creates an empty Genome with the specified key and config reference.
func NewGenome(key int, config *GenomeConfig) *Genome {
	return &Genome{
		Key:         key,
		Nodes:       make(map[int]*NodeGene),
		Connections: make(map[ConnectionKey]*ConnectionGene),
		Fitnesses:   make(map[int]float64),
		Config:      config,
	}
}

// ConfigureNew initializes a new genome: output nodes, NumHidden hidden
// nodes and the initial connections described by policy.
func (g *Genome) ConfigureNew(policy ConnectivityPolicy, rng *RNG) {
	for _, nodeKey := range g.Config.OutputKeys {
		g.Nodes[nodeKey] = NewNodeGene(nodeKey, g.Config, rng)
	}
	for i := 0; i < g.Config.NumHidden; i++ {
		nodeKey := g.nextNodeKey()
		g.Nodes[nodeKey] = NewNodeGene(nodeKey, g.Config, rng)
	}
	g.connectInitial(policy, rng)
}

func (g *Genome) connectInitial(policy ConnectivityPolicy, rng *RNG) {
	policy, _ = policy.Resolve(len(g.hiddenKeys()))

	var inputs []int
	switch policy.Selection {
	case Unconnected:
		return
	case SingleSelection:
		inputs = []int{g.Config.InputKeys[rng.Intn(len(g.Config.InputKeys))]}
	case PartialSelection:
		for _, ik := range g.Config.InputKeys {
			if rng.Float64() < policy.Probability {
				inputs = append(inputs, ik)
			}
		}
	case FullSelection:
		inputs = g.Config.InputKeys
	}

	var targets []int
	switch policy.Target {
	case TargetAll:
		targets = g.NodeKeys()
	case TargetHidden:
		targets = g.hiddenKeys()
	case TargetOutput:
		targets = g.Config.OutputKeys
	}

	for _, out := range targets {
		for _, in := range inputs {
			key := ConnectionKey{InNodeID: in, OutNodeID: out}
			if _, exists := g.Connections[key]; !exists {
				g.Connections[key] = NewConnectionGene(key, g.Config, rng)
			}
		}
	}
}

// NewGenomeFromCrossover creates a child genome from two parents. The fitter
// parent (by latest fitness, a on ties) defines the topology; genes both
// parents share are crossed attribute by attribute, genes only the fitter
// parent has are copied and genes only the other parent has are dropped.
func NewGenomeFromCrossover(key int, a, b *Genome, rng *RNG) *Genome {
	primary, secondary := a, b
	if b.LatestFitness() > a.LatestFitness() {
		primary, secondary = b, a
	}

	child := NewGenome(key, primary.Config)
	for _, nk := range primary.NodeKeys() {
		node := primary.Nodes[nk]
		if other, ok := secondary.Nodes[nk]; ok {
			child.Nodes[nk] = node.Crossover(other, rng)
		} else {
			child.Nodes[nk] = node.Copy()
		}
	}
	for _, ck := range primary.ConnectionKeys() {
		conn := primary.Connections[ck]
		if other, ok := secondary.Connections[ck]; ok {
			child.Connections[ck] = conn.Crossover(other, rng)
		} else {
			child.Connections[ck] = conn.Copy()
		}
	}
	return child
}

// Copy returns a deep copy of the genome under a new key, fitness history included.
func (g *Genome) Copy(key int) *Genome {
	c := NewGenome(key, g.Config)
	for k, n := range g.Nodes {
		c.Nodes[k] = n.Copy()
	}
	for k, conn := range g.Connections {
		c.Connections[k] = conn.Copy()
	}
	maps.Copy(c.Fitnesses, g.Fitnesses)
	return c
}

// --------------------------- Fitness ---------------------------

// SetFitness records the fitness measured in generation gen.
func (g *Genome) SetFitness(gen int, fitness float64) {
	g.Fitnesses[gen] = fitness
}

// Fitness returns the fitness measured in generation gen. Asking for a
// generation the genome was never evaluated in is a programming error.
func (g *Genome) Fitness(gen int) float64 {
	f, ok := g.Fitnesses[gen]
	if !ok {
		panic(fmt.Sprintf("neat: genome %d has no fitness for generation %d", g.Key, gen))
	}
	return f
}

// HasFitness reports whether the genome was evaluated in generation gen.
func (g *Genome) HasFitness(gen int) bool {
	_, ok := g.Fitnesses[gen]
	return ok
}

// LatestFitness returns the fitness of the most recent evaluation, or -Inf
// when the genome was never evaluated.
func (g *Genome) LatestFitness() float64 {
	if len(g.Fitnesses) == 0 {
		return math.Inf(-1)
	}
	return g.Fitnesses[slices.Max(slices.Collect(maps.Keys(g.Fitnesses)))]
}

// --------------------------- Mutation ---------------------------

// Mutate applies structural mutations followed by an attribute mutation of
// every remaining gene.
//
// One draw is compared against each structural probability; the passing
// operators are shuffled and only the last AllowedStructuralMutations of them
// are applied.
func (g *Genome) Mutate(rng *RNG) {
	r := rng.Float64()
	var ops []func(*RNG)
	if r < g.Config.NodeAddProb {
		ops = append(ops, g.mutateAddNode)
	}
	if r < g.Config.NodeDeleteProb {
		ops = append(ops, g.mutateDeleteNode)
	}
	if r < g.Config.ConnAddProb {
		ops = append(ops, g.mutateAddConnection)
	}
	if r < g.Config.ConnDeleteProb {
		ops = append(ops, g.mutateDeleteConnection)
	}
	rng.Shuffle(len(ops), func(i, j int) { ops[i], ops[j] = ops[j], ops[i] })
	if allowed := g.Config.AllowedStructuralMutations(); len(ops) > allowed {
		ops = ops[len(ops)-allowed:]
	}
	for _, op := range ops {
		op(rng)
	}

	for _, nk := range g.NodeKeys() {
		g.Nodes[nk].Mutate(rng)
	}
	for _, ck := range g.ConnectionKeys() {
		g.Connections[ck].Mutate(rng)
	}
}

// mutateAddNode splits a random connection with a new node.
func (g *Genome) mutateAddNode(rng *RNG) {
	if len(g.Connections) == 0 {
		if g.Config.EnsureStructuralMutation() {
			g.mutateAddConnection(rng)
		}
		return
	}

	keys := g.ConnectionKeys()
	toSplit := g.Connections[keys[rng.Intn(len(keys))]]
	toSplit.Enabled = g.Config.EnabledConfig().With(false)

	newNodeKey := g.nextNodeKey()
	g.Nodes[newNodeKey] = NewNodeGene(newNodeKey, g.Config, rng)

	inKey := ConnectionKey{InNodeID: toSplit.Key.InNodeID, OutNodeID: newNodeKey}
	g.Connections[inKey] = &ConnectionGene{
		Key:     inKey,
		Weight:  g.Config.WeightConfig().With(1.0),
		Enabled: g.Config.EnabledConfig().With(true),
	}
	outKey := ConnectionKey{InNodeID: newNodeKey, OutNodeID: toSplit.Key.OutNodeID}
	g.Connections[outKey] = &ConnectionGene{
		Key:     outKey,
		Weight:  toSplit.Weight,
		Enabled: g.Config.EnabledConfig().With(true),
	}
}

// mutateDeleteNode removes a random hidden node and every connection touching it.
func (g *Genome) mutateDeleteNode(rng *RNG) {
	hidden := g.hiddenKeys()
	if len(hidden) == 0 {
		return
	}
	victim := hidden[rng.Intn(len(hidden))]
	delete(g.Nodes, victim)
	for key := range g.Connections {
		if key.InNodeID == victim || key.OutNodeID == victim {
			delete(g.Connections, key)
		}
	}
}

// mutateAddConnection connects a random valid (source, target) pair, or
// re-enables a disabled connection that already occupies the pair. Nothing
// happens when no valid pair exists.
func (g *Genome) mutateAddConnection(rng *RNG) {
	targets := g.NodeKeys()
	sources := append(slices.Clone(g.Config.InputKeys), targets...)

	pairs := make([]ConnectionKey, 0, len(targets)*len(sources))
	for _, out := range targets {
		for _, in := range sources {
			pairs = append(pairs, ConnectionKey{InNodeID: in, OutNodeID: out})
		}
	}
	rng.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })

	for _, key := range pairs {
		if existing, ok := g.Connections[key]; ok {
			if existing.Enabled.Value {
				continue
			}
			existing.Enabled = g.Config.EnabledConfig().With(true)
			return
		}
		if g.Config.FeedForward && g.createsCycle(key) {
			continue
		}
		g.Connections[key] = NewConnectionGene(key, g.Config, rng)
		return
	}
}

// mutateDeleteConnection removes a random connection.
func (g *Genome) mutateDeleteConnection(rng *RNG) {
	if len(g.Connections) == 0 {
		return
	}
	keys := g.ConnectionKeys()
	delete(g.Connections, keys[rng.Intn(len(keys))])
}

// createsCycle reports whether adding key would close a cycle: the source is
// forward-reachable from the target over the existing connections, disabled
// ones included so that a later re-enable can never close a loop either.
func (g *Genome) createsCycle(key ConnectionKey) bool {
	if key.InNodeID == key.OutNodeID {
		return true
	}
	return g.Reachable(key.OutNodeID)[key.InNodeID]
}

// Reachable returns the set of node ids reachable from start by following
// existing connections forward. start itself is included.
func (g *Genome) Reachable(start int) map[int]bool {
	adjacency := make(map[int][]int, len(g.Nodes))
	for key := range g.Connections {
		adjacency[key.InNodeID] = append(adjacency[key.InNodeID], key.OutNodeID)
	}

	visited := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}

// --------------------------- Distance ---------------------------

// Distance calculates the genetic distance between this genome and another:
// the node distance plus the connection distance, each normalised by the
// larger gene count.
func (g *Genome) Distance(other *Genome) float64 {
	nodes := geneListDistance(g.Nodes, other.Nodes, g.Config,
		func(a, b *NodeGene) float64 { return a.Distance(b) })
	conns := geneListDistance(g.Connections, other.Connections, g.Config,
		func(a, b *ConnectionGene) float64 { return a.Distance(b) })
	return nodes + conns
}

func geneListDistance[K comparable, G any](a, b map[K]G, config *GenomeConfig, distance func(G, G) float64) float64 {
	matched := 0.0
	disjoint := 0
	for k, ga := range a {
		if gb, ok := b[k]; ok {
			matched += distance(ga, gb) * config.CompatibilityWeightCoefficient
		} else {
			disjoint++
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			disjoint++
		}
	}
	n := max(len(a), len(b), 1)
	return (matched + float64(disjoint)*config.CompatibilityDisjointCoefficient) / float64(n)
}

// --------------------------- Helpers ---------------------------

// Size returns the number of nodes and enabled connections.
func (g *Genome) Size() (nodes, enabledConnections int) {
	for _, c := range g.Connections {
		if c.Enabled.Value {
			enabledConnections++
		}
	}
	return len(g.Nodes), enabledConnections
}

// NodeKeys returns the node ids in ascending order.
func (g *Genome) NodeKeys() []int {
	return slices.Sorted(maps.Keys(g.Nodes))
}

// ConnectionKeys returns the connection keys ordered by source then target.
func (g *Genome) ConnectionKeys() []ConnectionKey {
	return slices.SortedFunc(maps.Keys(g.Connections), func(a, b ConnectionKey) int {
		return cmp.Or(cmp.Compare(a.InNodeID, b.InNodeID), cmp.Compare(a.OutNodeID, b.OutNodeID))
	})
}

func (g *Genome) hiddenKeys() []int {
	var hidden []int
	for _, nk := range g.NodeKeys() {
		if !g.Config.IsOutput(nk) {
			hidden = append(hidden, nk)
		}
	}
	return hidden
}

// nextNodeKey mints the id one above the largest node id in the genome.
// Ids are local to the genome: other genomes may mint the same id for a
// different node, and deleting the largest node frees its id again.
func (g *Genome) nextNodeKey() int {
	next := g.Config.NumOutputs
	for nk := range g.Nodes {
		if nk >= next {
			next = nk + 1
		}
	}
	return next
}

// String returns a short summary of the genome.
func (g *Genome) String() string {
	nodes, conns := g.Size()
	return fmt.Sprintf("Genome(Key: %d, Nodes: %d, Enabled connections: %d, Fitness: %.4f)",
		g.Key, nodes, conns, g.LatestFitness())
}

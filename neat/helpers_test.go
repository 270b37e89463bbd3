package neat

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// testConfig returns the built-in XOR configuration with a fixed seed after
// applying mutate.
func testConfig(t *testing.T, mutate func(*Config)) *Config {
	t.Helper()
	c := DefaultConfig()
	c.Neat.Seed = 42
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, c.Validate())
	return c
}

func testNode(cfg *GenomeConfig, key int, bias float64) *NodeGene {
	return &NodeGene{
		Key:         key,
		Bias:        cfg.BiasConfig().With(bias),
		Response:    cfg.ResponseConfig().With(1),
		Activation:  ActivationAttribute{Value: "sigmoid", Config: cfg.ActivationConfig()},
		Aggregation: AggregationAttribute{Value: "sum", Config: cfg.AggregationConfig()},
	}
}

func testConn(cfg *GenomeConfig, in, out int, weight float64) *ConnectionGene {
	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	return &ConnectionGene{
		Key:     key,
		Weight:  cfg.WeightConfig().With(weight),
		Enabled: cfg.EnabledConfig().With(true),
	}
}

// testGenome builds a genome holding every output node (bias 0) and the
// given connections, each with weight 1.
func testGenome(cfg *GenomeConfig, key int, conns ...ConnectionKey) *Genome {
	g := NewGenome(key, cfg)
	for _, ok := range cfg.OutputKeys {
		g.Nodes[ok] = testNode(cfg, ok, 0)
	}
	for _, ck := range conns {
		for _, nk := range []int{ck.InNodeID, ck.OutNodeID} {
			if _, exists := g.Nodes[nk]; !exists && !cfg.IsInput(nk) {
				g.Nodes[nk] = testNode(cfg, nk, 0)
			}
		}
		g.Connections[ck] = testConn(cfg, ck.InNodeID, ck.OutNodeID, 1)
	}
	return g
}

func ck(in, out int) ConnectionKey {
	return ConnectionKey{InNodeID: in, OutNodeID: out}
}

// hasCycle reports whether the connections of g, disabled ones included,
// contain a directed cycle.
func hasCycle(g *Genome) bool {
	for key := range g.Connections {
		if key.InNodeID == key.OutNodeID || g.Reachable(key.OutNodeID)[key.InNodeID] {
			return true
		}
	}
	return false
}

// recordingListener collects every notified state.
type recordingListener struct {
	states []State
}

func (r *recordingListener) OnState(s State) { r.states = append(r.states, s) }

func (r *recordingListener) kinds() []StateKind {
	out := make([]StateKind, len(r.states))
	for i, s := range r.states {
		out[i] = s.Kind
	}
	return out
}

// recordingReporter keeps every message it receives.
type recordingReporter struct {
	recordingListener

	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []error
}

func (r *recordingReporter) Info(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, msg)
}

func (r *recordingReporter) Warn(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, msg)
}

func (r *recordingReporter) Error(msg string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recordingReporter) errs() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.errors)
}

// evaluatedSpecies builds a species whose members carry the given fitnesses
// in generation gen. Member keys are key*100 + index.
func evaluatedSpecies(cfg *GenomeConfig, key, gen int, fitnesses ...float64) *Species {
	members := make([]*Genome, len(fitnesses))
	for i, f := range fitnesses {
		g := testGenome(cfg, key*100+i)
		g.SetFitness(gen, f)
		members[i] = g
	}
	return NewSpecies(key, 0, members[0], members)
}

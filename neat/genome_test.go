package neat

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureNewConnectivity(t *testing.T) {
	tests := []struct {
		name      string
		policy    string
		numHidden int
		wantNodes int
		wantConns []ConnectionKey
	}{
		{name: "unconnected", policy: "unconnected", wantNodes: 1},
		{name: "full all", policy: "full all", wantNodes: 1, wantConns: []ConnectionKey{ck(-2, 0), ck(-1, 0)}},
		{
			name: "full all with hidden", policy: "full", numHidden: 1, wantNodes: 2,
			wantConns: []ConnectionKey{ck(-2, 0), ck(-2, 1), ck(-1, 0), ck(-1, 1)},
		},
		{name: "full hidden", policy: "full hidden", numHidden: 1, wantNodes: 2, wantConns: []ConnectionKey{ck(-2, 1), ck(-1, 1)}},
		{name: "full output", policy: "full output", numHidden: 1, wantNodes: 2, wantConns: []ConnectionKey{ck(-2, 0), ck(-1, 0)}},
		{name: "hidden falls back to all", policy: "full hidden", wantNodes: 1, wantConns: []ConnectionKey{ck(-2, 0), ck(-1, 0)}},
		{name: "partial none", policy: "partial 0 all", wantNodes: 1},
		{name: "partial every", policy: "partial 1 output", wantNodes: 1, wantConns: []ConnectionKey{ck(-2, 0), ck(-1, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &testConfig(t, func(c *Config) {
				c.Genome.InitialConnection = tt.policy
				c.Genome.NumHidden = tt.numHidden
			}).Genome
			g := NewGenome(1, cfg)
			g.ConfigureNew(cfg.Connectivity, NewRNG(1))

			assert.Len(t, g.Nodes, tt.wantNodes)
			if diff := cmp.Diff(tt.wantConns, g.ConnectionKeys(), cmpEmptySlices); diff != "" {
				t.Errorf("connections mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

var cmpEmptySlices = cmp.FilterValues(func(a, b []ConnectionKey) bool {
	return len(a) == 0 && len(b) == 0
}, cmp.Ignore())

func TestConfigureNewSingleConnectsOneInput(t *testing.T) {
	cfg := &testConfig(t, func(c *Config) { c.Genome.InitialConnection = "fs_neat" }).Genome
	g := NewGenome(1, cfg)
	g.ConfigureNew(cfg.Connectivity, NewRNG(5))
	require.Len(t, g.Connections, 1)
	for key := range g.Connections {
		assert.True(t, cfg.IsInput(key.InNodeID))
		assert.Equal(t, 0, key.OutNodeID)
	}
}

func TestGenomeDistance(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	a := testGenome(cfg, 1)
	b := testGenome(cfg, 2)
	c := testGenome(cfg, 3, ck(-1, 0))

	assert.Equal(t, 0.0, a.Distance(b))
	assert.InDelta(t, 1.0, a.Distance(c), 1e-12)
	assert.Equal(t, a.Distance(c), c.Distance(a))

	d := testGenome(cfg, 4, ck(-1, 0))
	d.Connections[ck(-1, 0)].Weight = cfg.WeightConfig().With(3)
	// (|1-3| * 0.5) / 1 on the connection list
	assert.InDelta(t, 1.0, c.Distance(d), 1e-12)
}

func TestCrossoverFollowsFitterParent(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	a := testGenome(cfg, 1, ck(-1, 0))
	b := testGenome(cfg, 2, ck(-2, 0), ck(-1, 1), ck(1, 0))
	a.SetFitness(1, 1)
	b.SetFitness(1, 2)

	child := NewGenomeFromCrossover(3, a, b, NewRNG(1))
	assert.Equal(t, 3, child.Key)
	assert.Equal(t, b.ConnectionKeys(), child.ConnectionKeys())
	assert.Equal(t, b.NodeKeys(), child.NodeKeys())
	assert.Empty(t, child.Fitnesses)

	a.SetFitness(2, 5)
	child = NewGenomeFromCrossover(4, a, b, NewRNG(1))
	assert.Equal(t, a.ConnectionKeys(), child.ConnectionKeys())
}

func TestCrossoverTieKeepsFirstParent(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	a := testGenome(cfg, 1, ck(-1, 0))
	b := testGenome(cfg, 2, ck(-2, 0))
	child := NewGenomeFromCrossover(3, a, b, NewRNG(1))
	assert.Equal(t, a.ConnectionKeys(), child.ConnectionKeys())
}

func TestGenomeCopyIsDeep(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	g := testGenome(cfg, 1, ck(-1, 0))
	g.SetFitness(1, 2.5)

	c := g.Copy(9)
	c.Connections[ck(-1, 0)].Weight = cfg.WeightConfig().With(-4)
	c.Nodes[0].Bias = cfg.BiasConfig().With(3)
	c.SetFitness(2, 1)

	assert.Equal(t, 9, c.Key)
	assert.Equal(t, 1.0, g.Connections[ck(-1, 0)].Weight.Value)
	assert.Equal(t, 0.0, g.Nodes[0].Bias.Value)
	assert.False(t, g.HasFitness(2))
	assert.Equal(t, 2.5, c.Fitness(1))
}

func TestGenomeFitness(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	g := testGenome(cfg, 1)
	assert.True(t, math.IsInf(g.LatestFitness(), -1))
	assert.Panics(t, func() { g.Fitness(1) })

	g.SetFitness(1, 3)
	g.SetFitness(4, 1)
	g.SetFitness(2, 7)
	assert.Equal(t, 1.0, g.LatestFitness())
	assert.Equal(t, 7.0, g.Fitness(2))
}

func TestMutateAddNodeSplitsConnection(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	g := testGenome(cfg, 1, ck(-1, 0))
	g.Connections[ck(-1, 0)].Weight = cfg.WeightConfig().With(0.7)

	g.mutateAddNode(NewRNG(1))

	require.Len(t, g.Nodes, 2)
	require.Contains(t, g.Nodes, 1)
	assert.False(t, g.Connections[ck(-1, 0)].Enabled.Value)
	require.Contains(t, g.Connections, ck(-1, 1))
	require.Contains(t, g.Connections, ck(1, 0))
	assert.Equal(t, 1.0, g.Connections[ck(-1, 1)].Weight.Value)
	assert.Equal(t, 0.7, g.Connections[ck(1, 0)].Weight.Value)
	assert.True(t, g.Connections[ck(1, 0)].Enabled.Value)
}

func TestMutateAddNodeWithoutConnections(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	g := testGenome(cfg, 1)
	g.mutateAddNode(NewRNG(1))
	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Connections)

	cfg = &testConfig(t, func(c *Config) { c.Genome.StructuralMutationSurer = "true" }).Genome
	g = testGenome(cfg, 1)
	g.mutateAddNode(NewRNG(1))
	assert.Len(t, g.Nodes, 1)
	assert.Len(t, g.Connections, 1)
}

func TestMutateDeleteNodeKeepsOutputs(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	g := testGenome(cfg, 1, ck(-1, 1), ck(1, 0), ck(-2, 0))
	rng := NewRNG(1)
	g.mutateDeleteNode(rng)
	assert.Equal(t, []int{0}, g.NodeKeys())
	assert.Equal(t, []ConnectionKey{ck(-2, 0)}, g.ConnectionKeys())

	g.mutateDeleteNode(rng)
	assert.Equal(t, []int{0}, g.NodeKeys())
}

func TestMutateAddConnectionReenablesDisabled(t *testing.T) {
	cfg := &testConfig(t, func(c *Config) { c.Genome.NumInputs = 1 }).Genome
	g := testGenome(cfg, 1, ck(-1, 0))
	g.Connections[ck(-1, 0)].Enabled = cfg.EnabledConfig().With(false)

	// The only acyclic pair is -1->0; 0->0 is a self loop.
	g.mutateAddConnection(NewRNG(1))
	assert.Len(t, g.Connections, 1)
	assert.True(t, g.Connections[ck(-1, 0)].Enabled.Value)

	// Nothing left to add.
	g.mutateAddConnection(NewRNG(2))
	assert.Len(t, g.Connections, 1)
}

func TestMutateAddConnectionAllowsRecurrence(t *testing.T) {
	cfg := &testConfig(t, func(c *Config) {
		c.Genome.NumInputs = 1
		c.Genome.FeedForward = false
	}).Genome
	g := testGenome(cfg, 1, ck(-1, 0))
	g.mutateAddConnection(NewRNG(1))
	assert.Contains(t, g.Connections, ck(0, 0))
}

func TestMutateKeepsFeedForwardGenomesAcyclic(t *testing.T) {
	cfg := &testConfig(t, func(c *Config) {
		c.Genome.NodeAddProb = 0.6
		c.Genome.ConnAddProb = 0.9
		c.Genome.ConnDeleteProb = 0.1
		c.Genome.NodeDeleteProb = 0.1
		c.Genome.EnabledMutateRate = 0.3
	}).Genome
	rng := NewRNG(99)
	g := NewGenome(1, cfg)
	g.ConfigureNew(cfg.Connectivity, rng)
	for i := 0; i < 300; i++ {
		g.Mutate(rng)
		require.False(t, hasCycle(g), "cycle after %d mutations: %v", i+1, g.ConnectionKeys())
		for _, ok := range cfg.OutputKeys {
			require.Contains(t, g.Nodes, ok)
		}
	}
}

func TestMutateRespectsStructuralLimit(t *testing.T) {
	cfg := &testConfig(t, func(c *Config) {
		c.Genome.NodeAddProb = 1
		c.Genome.ConnAddProb = 1
		c.Genome.ConnDeleteProb = 0
		c.Genome.NodeDeleteProb = 0
		c.Genome.SingleStructuralMutation = true
	}).Genome
	rng := NewRNG(3)
	g := testGenome(cfg, 1, ck(-1, 0))
	before := len(g.Connections)
	g.Mutate(rng)
	// add-node brings two connections, add-connection one; never both.
	assert.Contains(t, []int{before + 1, before + 2}, len(g.Connections))
	assert.LessOrEqual(t, len(g.Nodes), 2)
}

func TestReachable(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	g := testGenome(cfg, 1, ck(-1, 2), ck(2, 0), ck(-2, 3))
	g.Connections[ck(2, 0)].Enabled = cfg.EnabledConfig().With(false)

	assert.Equal(t, map[int]bool{-1: true, 2: true, 0: true}, g.Reachable(-1))
	assert.Equal(t, map[int]bool{3: true}, g.Reachable(3))
	assert.True(t, g.createsCycle(ck(0, -1)))
	assert.True(t, g.createsCycle(ck(2, 2)))
	assert.False(t, g.createsCycle(ck(3, 0)))
}

func TestNextNodeKey(t *testing.T) {
	cfg := &testConfig(t, func(c *Config) { c.Genome.NumOutputs = 2 }).Genome
	g := testGenome(cfg, 1)
	assert.Equal(t, 2, g.nextNodeKey())
	g.Nodes[7] = testNode(cfg, 7, 0)
	assert.Equal(t, 8, g.nextNodeKey())

	// Another genome with a different hidden node mints the same id.
	other := testGenome(cfg, 2)
	other.Nodes[7] = testNode(cfg, 7, 0)
	assert.Equal(t, g.nextNodeKey(), other.nextNodeKey())

	delete(g.Nodes, 7)
	assert.Equal(t, 2, g.nextNodeKey(), "the id of a deleted top node is reused")
}

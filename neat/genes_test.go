package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeGeneDistance(t *testing.T) {
	cfg := &testConfig(t, func(c *Config) {
		c.Genome.ActivationOptions = []string{"sigmoid", "tanh"}
	}).Genome
	a := testNode(cfg, 0, 0.5)
	b := testNode(cfg, 0, -0.5)
	assert.InDelta(t, 1.0, a.Distance(b), 1e-12)

	b.Activation = ActivationAttribute{Value: "tanh", Config: cfg.ActivationConfig()}
	assert.InDelta(t, 2.0, a.Distance(b), 1e-12)
	assert.InDelta(t, a.Distance(b), b.Distance(a), 1e-12)
}

func TestConnectionGeneDistance(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	a := testConn(cfg, -1, 0, 1)
	b := testConn(cfg, -1, 0, 0.25)
	assert.InDelta(t, 0.75, a.Distance(b), 1e-12)

	b.Enabled = cfg.EnabledConfig().With(false)
	assert.InDelta(t, 1.75, a.Distance(b), 1e-12)
}

func TestGeneCrossoverInheritsFromEitherParent(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	a := testConn(cfg, -1, 0, 1)
	b := testConn(cfg, -1, 0, -1)
	b.Enabled = cfg.EnabledConfig().With(false)

	rng := NewRNG(7)
	seen := map[float64]bool{}
	for i := 0; i < 50; i++ {
		child := a.Crossover(b, rng)
		require.Equal(t, a.Key, child.Key)
		require.Contains(t, []float64{1, -1}, child.Weight.Value)
		seen[child.Weight.Value] = true
	}
	assert.Len(t, seen, 2, "both parents should contribute over many crossovers")
}

func TestGeneCrossoverKeyMismatchPanics(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	rng := NewRNG(1)
	assert.Panics(t, func() { testNode(cfg, 0, 0).Crossover(testNode(cfg, 1, 0), rng) })
	assert.Panics(t, func() { testConn(cfg, -1, 0, 1).Crossover(testConn(cfg, -2, 0, 1), rng) })
}

func TestWithAttributesRequiresEveryAttribute(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	conn := testConn(cfg, -1, 0, 1)

	attrs := map[string]Attribute{AttrWeight: cfg.WeightConfig().With(2)}
	assert.Panics(t, func() { conn.WithAttributes(attrs) })

	attrs[AttrEnabled] = cfg.WeightConfig().With(1)
	assert.Panics(t, func() { conn.WithAttributes(attrs) }, "wrong attribute kind")

	attrs[AttrEnabled] = cfg.EnabledConfig().With(false)
	got := conn.WithAttributes(attrs)
	assert.Equal(t, 2.0, got.Weight.Value)
	assert.False(t, got.Enabled.Value)
	assert.Equal(t, 1.0, conn.Weight.Value)
}

func TestGeneCopyIsIndependent(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	n := testNode(cfg, 3, 0.1)
	c := n.Copy()
	c.Bias = cfg.BiasConfig().With(2)
	assert.Equal(t, 0.1, n.Bias.Value)
}

func TestNewGenesUseConfiguredDefaults(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	rng := NewRNG(3)
	n := NewNodeGene(0, cfg, rng)
	assert.Equal(t, "sigmoid", n.Activation.Value)
	assert.Equal(t, "sum", n.Aggregation.Value)
	assert.Equal(t, 1.0, n.Response.Value)

	c := NewConnectionGene(ck(-1, 0), cfg, rng)
	assert.True(t, c.Enabled.Value)
	assert.Equal(t, cfg.EnabledMutateRate, c.Enabled.Rate)
}

func TestGeneCopyFromManagedAttributes(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	rng := NewRNG(13)

	node := NewNodeGene(3, cfg, rng)
	nodeCopy := node.WithAttributes(node.ManagedAttributes())
	assert.Zero(t, node.Distance(nodeCopy))
	assert.Equal(t, node, nodeCopy)
	assert.NotSame(t, node, nodeCopy)

	conn := NewConnectionGene(ck(-1, 3), cfg, rng)
	connCopy := conn.WithAttributes(conn.ManagedAttributes())
	assert.Zero(t, conn.Distance(connCopy))
	assert.Equal(t, conn, connCopy)
	assert.NotSame(t, conn, connCopy)
}

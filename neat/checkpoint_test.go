package neat

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evolvedPipeline runs a pipeline until it is about to leave the given state
// of generation 2 and returns it stopped there.
func evolvedPipeline(t *testing.T, kind StateKind) *Pipeline {
	t.Helper()
	var p *Pipeline
	stop := StateListenerFunc(func(s State) {
		if s.Kind == kind && s.Generation == 2 {
			p.Terminate()
		}
	})
	p, err := NewPipeline(pipelineConfig(t, nil),
		func(g *Genome) float64 { return float64(len(g.Connections)) },
		WithStateListener(stop))
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	return p
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	for _, kind := range []StateKind{GenerationFinished, ReproducedPopulation, Culled} {
		t.Run(kind.String(), func(t *testing.T) {
			p := evolvedPipeline(t, kind)
			snap := p.snapshot(kind)
			assert.Equal(t, kind == ReproducedPopulation, snap.HasOffspring)

			var buf bytes.Buffer
			require.NoError(t, EncodeSnapshot(&buf, snap))
			decoded, err := DecodeSnapshot(&buf)
			require.NoError(t, err)

			restored, err := NewPipeline(pipelineConfig(t, nil), constantFitness(0))
			require.NoError(t, err)
			require.NoError(t, restored.restore(decoded))

			assert.Equal(t, 2, restored.Generation())
			assert.Equal(t, p.Best().Key, restored.Best().Key)
			if diff := cmp.Diff(snap, restored.snapshot(kind), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("restored snapshot mismatch (-saved +restored):\n%s", diff)
			}
		})
	}
}

func TestRestoredGenomesUsePipelineConfig(t *testing.T) {
	p := evolvedPipeline(t, GenerationFinished)
	snap := p.snapshot(GenerationFinished)

	config := pipelineConfig(t, nil)
	restored, err := NewPipeline(config, constantFitness(0))
	require.NoError(t, err)
	require.NoError(t, restored.restore(snap))

	for _, g := range restored.Population() {
		assert.Same(t, &config.Genome, g.Config)
		for _, n := range g.Nodes {
			assert.Same(t, config.Genome.BiasConfig(), n.Bias.Config)
		}
		assert.True(t, g.HasFitness(2))
	}
}

func TestRestoreRejectsInconsistentSnapshots(t *testing.T) {
	base := func() *Snapshot {
		return &Snapshot{
			Generation:     1,
			Resume:         GenerationFinished,
			Genomes:        []GenomeRecord{{Key: 1, Fitnesses: map[int]float64{1: 0.5}}},
			PopulationKeys: []int{1},
			Species:        []SpeciesRecord{{Key: 1, Representative: 1, Members: []int{1}}},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"transient resume state", func(s *Snapshot) { s.Resume = Evaluating }},
		{"saved resume state", func(s *Snapshot) { s.Resume = Saved }},
		{"unknown population genome", func(s *Snapshot) { s.PopulationKeys = []int{2} }},
		{"unknown member", func(s *Snapshot) { s.Species[0].Members = []int{1, 3} }},
		{"representative outside species", func(s *Snapshot) { s.Species[0].Representative = 7 }},
		{"missing offspring", func(s *Snapshot) { s.Resume = ReproducedPopulation }},
		{"unknown best", func(s *Snapshot) { s.BestKey = 9 }},
		{"unknown activation", func(s *Snapshot) {
			s.Genomes[0].Nodes = []NodeRecord{{Key: 0, Activation: "swish", Aggregation: "sum"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPipeline(pipelineConfig(t, nil), constantFitness(0))
			require.NoError(t, err)
			snap := base()
			require.NoError(t, p.restore(snap))

			snap = base()
			tt.mutate(snap)
			assert.Error(t, p.restore(snap))
		})
	}
}

func TestFileCheckpointer(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "run.ckpt")
	c := &FileCheckpointer{Path: path}

	_, err := c.Load(ctx)
	assert.Error(t, err)

	first := &Snapshot{Generation: 3, Resume: Culled, PopulationKeys: []int{4, 5}}
	require.NoError(t, c.Save(ctx, first))
	second := &Snapshot{Generation: 4, Resume: Speciated, PopulationKeys: []int{6}}
	require.NoError(t, c.Save(ctx, second))

	loaded, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Generation)
	assert.Equal(t, Speciated, loaded.Resume)
	assert.Equal(t, []int{6}, loaded.PopulationKeys)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, c.Save(cancelled, first), context.Canceled)
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	_, err := DecodeSnapshot(bytes.NewReader([]byte("not a snapshot")))
	assert.Error(t, err)
}

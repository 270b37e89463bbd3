package neat

import (
	"cmp"
	"compress/gzip"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// Checkpointer persists pipeline snapshots.
type Checkpointer interface {
	// Save stores snap, replacing or adding to what was stored before.
	Save(ctx context.Context, snap *Snapshot) error
	// Load returns the most recently saved snapshot.
	Load(ctx context.Context) (*Snapshot, error)
}

// NodeRecord is the serialized form of a NodeGene.
type NodeRecord struct {
	Key         int
	Bias        float64
	Response    float64
	Activation  string
	Aggregation string
}

// ConnectionRecord is the serialized form of a ConnectionGene.
type ConnectionRecord struct {
	In, Out     int
	Weight      float64
	Enabled     bool
	EnabledRate float64
}

// GenomeRecord is the serialized form of a Genome. The genome configuration
// is not stored; it is bound again from the pipeline's configuration on restore.
type GenomeRecord struct {
	Key         int
	Nodes       []NodeRecord
	Connections []ConnectionRecord
	Fitnesses   map[int]float64
}

// SpeciesRecord is the serialized form of a Species; genomes are referenced by key.
type SpeciesRecord struct {
	Key            int
	Representative int
	Members        []int
	CreatedIn      int
	LastImproved   int
	CurrentFitness float64
	FitnessHistory []float64
	Stagnant       bool
}

// Snapshot is everything needed to continue a pipeline from a stable state.
type Snapshot struct {
	Generation int
	Resume     StateKind // Stable state the loaded pipeline continues with

	Genomes        []GenomeRecord // Every genome referenced below, once
	PopulationKeys []int
	Species        []SpeciesRecord

	// Offspring awaiting culling; only set when Resume is ReproducedPopulation.
	HasOffspring       bool
	OffspringKeys      []int
	OffspringBySpecies map[int][]int

	BestKey     int // 0 when nothing was evaluated yet
	BestFitness float64

	NextGenomeKey  int
	NextSpeciesKey int
	Ancestors      map[int][]int
}

// EncodeSnapshot writes snap to w as gzip-compressed gob.
func EncodeSnapshot(w io.Writer, snap *Snapshot) error {
	gzWriter := gzip.NewWriter(w)
	if err := gob.NewEncoder(gzWriter).Encode(snap); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a snapshot written by EncodeSnapshot.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for snapshot: %w", err)
	}
	defer gzReader.Close()

	snap := &Snapshot{}
	if err := gob.NewDecoder(gzReader).Decode(snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

// FileCheckpointer keeps the latest snapshot in a single file.
type FileCheckpointer struct {
	Path string
}

// Save atomically replaces the checkpoint file with snap.
func (f *FileCheckpointer) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", f.Path, err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeSnapshot(tmp, snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write checkpoint file '%s': %w", f.Path, err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("failed to replace checkpoint file '%s': %w", f.Path, err)
	}
	return nil
}

// Load reads the checkpoint file.
func (f *FileCheckpointer) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", f.Path, err)
	}
	defer file.Close()
	return DecodeSnapshot(file)
}

// --------------------------- Genome records ---------------------------

// NewGenomeRecord serializes g.
func NewGenomeRecord(g *Genome) GenomeRecord {
	rec := GenomeRecord{Key: g.Key, Fitnesses: maps.Clone(g.Fitnesses)}
	for _, key := range g.NodeKeys() {
		n := g.Nodes[key]
		rec.Nodes = append(rec.Nodes, NodeRecord{
			Key:         n.Key,
			Bias:        n.Bias.Value,
			Response:    n.Response.Value,
			Activation:  n.Activation.Value,
			Aggregation: n.Aggregation.Value,
		})
	}
	for _, key := range g.ConnectionKeys() {
		c := g.Connections[key]
		rec.Connections = append(rec.Connections, ConnectionRecord{
			In:          key.InNodeID,
			Out:         key.OutNodeID,
			Weight:      c.Weight.Value,
			Enabled:     c.Enabled.Value,
			EnabledRate: c.Enabled.Rate,
		})
	}
	return rec
}

// Genome rebuilds the genome under config, which must be validated.
func (rec GenomeRecord) Genome(config *GenomeConfig) (*Genome, error) {
	g := NewGenome(rec.Key, config)
	for _, n := range rec.Nodes {
		if _, err := GetActivation(n.Activation); err != nil {
			return nil, fmt.Errorf("genome %d node %d: %w", rec.Key, n.Key, err)
		}
		if _, err := GetAggregation(n.Aggregation); err != nil {
			return nil, fmt.Errorf("genome %d node %d: %w", rec.Key, n.Key, err)
		}
		g.Nodes[n.Key] = &NodeGene{
			Key:         n.Key,
			Bias:        config.BiasConfig().With(n.Bias),
			Response:    config.ResponseConfig().With(n.Response),
			Activation:  ActivationAttribute{Value: n.Activation, Config: config.ActivationConfig()},
			Aggregation: AggregationAttribute{Value: n.Aggregation, Config: config.AggregationConfig()},
		}
	}
	for _, c := range rec.Connections {
		key := ConnectionKey{InNodeID: c.In, OutNodeID: c.Out}
		g.Connections[key] = &ConnectionGene{
			Key:     key,
			Weight:  config.WeightConfig().With(c.Weight),
			Enabled: BoolAttribute{Value: c.Enabled, Rate: c.EnabledRate, Config: config.EnabledConfig()},
		}
	}
	maps.Copy(g.Fitnesses, rec.Fitnesses)
	return g, nil
}

// --------------------------- Pipeline ---------------------------

// snapshot captures the pipeline so that a restored copy continues with resume.
func (p *Pipeline) snapshot(resume StateKind) *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	genomes := make(map[int]*Genome)
	snap := &Snapshot{
		Generation:     p.generation,
		Resume:         resume,
		BestFitness:    p.bestFitness,
		NextGenomeKey:  p.reproduction.NextGenomeKey,
		NextSpeciesKey: p.speciator.NextKey,
		Ancestors:      make(map[int][]int, len(p.ancestors)),
	}
	for key, parents := range p.ancestors {
		snap.Ancestors[key] = slices.Clone(parents)
	}
	for key, g := range p.population {
		genomes[key] = g
		snap.PopulationKeys = append(snap.PopulationKeys, key)
	}
	slices.Sort(snap.PopulationKeys)

	for _, sp := range p.species {
		for _, g := range sp.Members {
			genomes[g.Key] = g
		}
		snap.Species = append(snap.Species, SpeciesRecord{
			Key:            sp.Key,
			Representative: sp.Representative.Key,
			Members:        sp.MemberKeys(),
			CreatedIn:      sp.CreatedIn,
			LastImproved:   sp.LastImproved,
			CurrentFitness: sp.CurrentFitness,
			FitnessHistory: slices.Clone(sp.FitnessHistory),
			Stagnant:       sp.Stagnant,
		})
	}
	if p.offspring != nil {
		snap.HasOffspring = true
		snap.OffspringBySpecies = make(map[int][]int, len(p.offspring.BySpecies))
		for key, keys := range p.offspring.BySpecies {
			snap.OffspringBySpecies[key] = slices.Clone(keys)
		}
		for key, g := range p.offspring.Population {
			genomes[key] = g
			snap.OffspringKeys = append(snap.OffspringKeys, key)
		}
		slices.Sort(snap.OffspringKeys)
	}
	if p.best != nil {
		genomes[p.best.Key] = p.best
		snap.BestKey = p.best.Key
	}

	for _, key := range slices.Sorted(maps.Keys(genomes)) {
		snap.Genomes = append(snap.Genomes, NewGenomeRecord(genomes[key]))
	}
	return snap
}

// restore replaces the pipeline's evolutionary state with snap.
func (p *Pipeline) restore(snap *Snapshot) error {
	if !snap.Resume.Stable() || snap.Resume == Saved {
		return fmt.Errorf("neat: snapshot cannot resume at %s", snap.Resume)
	}

	genomes := make(map[int]*Genome, len(snap.Genomes))
	for _, rec := range snap.Genomes {
		g, err := rec.Genome(&p.config.Genome)
		if err != nil {
			return err
		}
		genomes[g.Key] = g
	}
	lookup := func(key int) (*Genome, error) {
		g, ok := genomes[key]
		if !ok {
			return nil, fmt.Errorf("neat: snapshot references unknown genome %d", key)
		}
		return g, nil
	}

	population := make(map[int]*Genome, len(snap.PopulationKeys))
	for _, key := range snap.PopulationKeys {
		g, err := lookup(key)
		if err != nil {
			return err
		}
		population[key] = g
	}

	species := make([]*Species, 0, len(snap.Species))
	for _, rec := range snap.Species {
		sp := &Species{
			Key:            rec.Key,
			CreatedIn:      rec.CreatedIn,
			LastImproved:   rec.LastImproved,
			CurrentFitness: rec.CurrentFitness,
			FitnessHistory: rec.FitnessHistory,
			Stagnant:       rec.Stagnant,
		}
		for _, key := range rec.Members {
			g, err := lookup(key)
			if err != nil {
				return err
			}
			sp.Members = append(sp.Members, g)
			if key == rec.Representative {
				sp.Representative = g
			}
		}
		if sp.Representative == nil {
			return fmt.Errorf("neat: representative %d of species %d is not a member", rec.Representative, rec.Key)
		}
		species = append(species, sp)
	}
	slices.SortFunc(species, func(a, b *Species) int { return cmp.Compare(a.Key, b.Key) })

	var offspring *Offspring
	if snap.HasOffspring {
		offspring = &Offspring{
			Population: make(map[int]*Genome, len(snap.OffspringKeys)),
			BySpecies:  make(map[int][]int, len(snap.OffspringBySpecies)),
		}
		for _, key := range snap.OffspringKeys {
			g, err := lookup(key)
			if err != nil {
				return err
			}
			offspring.Population[key] = g
		}
		for key, keys := range snap.OffspringBySpecies {
			offspring.BySpecies[key] = slices.Clone(keys)
		}
	} else if snap.Resume == ReproducedPopulation {
		return fmt.Errorf("neat: snapshot resumes at %s without offspring", snap.Resume)
	}

	var best *Genome
	if snap.BestKey != 0 {
		var err error
		if best, err = lookup(snap.BestKey); err != nil {
			return err
		}
	}

	ancestors := make(map[int][]int, len(snap.Ancestors))
	for key, parents := range snap.Ancestors {
		if parents == nil {
			parents = []int{}
		}
		ancestors[key] = parents
	}

	p.speciator.Cache.Clear()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation = snap.Generation
	p.population = population
	p.species = species
	p.offspring = offspring
	p.best = best
	p.bestFitness = snap.BestFitness
	p.ancestors = ancestors
	p.speciator.NextKey = max(snap.NextSpeciesKey, 1)
	p.reproduction.NextGenomeKey = max(snap.NextGenomeKey, 1)
	p.reproduction.Ancestors = ancestors
	return nil
}

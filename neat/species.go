package neat

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"
)

// ErrEmptyPopulation is returned when speciation is asked to cluster no genomes.
var ErrEmptyPopulation = errors.New("neat: cannot speciate an empty population")

// Species represents a group of genetically similar genomes. A Species value
// is a snapshot of one generation: speciation and stagnation return new
// values instead of modifying existing ones.
type Species struct {
	Key            int       // Unique identifier for the species.
	Representative *Genome   // Always one of Members.
	Members        []*Genome // Ordered by genome key.
	CreatedIn      int       // Generation number when the species was created.
	LastImproved   int       // Last generation where fitness improved.
	CurrentFitness float64   // Aggregated member fitness of the latest evaluated generation.
	FitnessHistory []float64 // One entry per evaluated generation.
	Stagnant       bool
}

// NewSpecies creates a species founded by representative in generation.
func NewSpecies(key, generation int, representative *Genome, members []*Genome) *Species {
	return &Species{
		Key:            key,
		Representative: representative,
		Members:        members,
		CreatedIn:      generation,
		LastImproved:   generation,
		CurrentFitness: math.Inf(-1),
	}
}

// withMembers returns a copy of the species with a new representative and membership.
func (s *Species) withMembers(representative *Genome, members []*Genome) *Species {
	c := s.clone()
	c.Representative = representative
	c.Members = members
	return c
}

func (s *Species) clone() *Species {
	c := *s
	c.Members = slices.Clone(s.Members)
	c.FitnessHistory = slices.Clone(s.FitnessHistory)
	return &c
}

// MemberFitnesses returns the fitness of every member in generation gen.
func (s *Species) MemberFitnesses(gen int) []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, g := range s.Members {
		fitnesses = append(fitnesses, g.Fitness(gen))
	}
	return fitnesses
}

// MemberKeys returns the member genome keys in order.
func (s *Species) MemberKeys() []int {
	keys := make([]int, len(s.Members))
	for i, g := range s.Members {
		keys[i] = g.Key
	}
	return keys
}

func (s *Species) String() string {
	return fmt.Sprintf("Species(Key: %d, Members: %d, Representative: %d, Fitness: %.4f, Stagnant: %t)",
		s.Key, len(s.Members), s.Representative.Key, s.CurrentFitness, s.Stagnant)
}

// --------------------------- Speciator ---------------------------

// Speciator partitions a population into species based on genetic distance.
type Speciator struct {
	Config   *SpeciesSetConfig
	Cache    *GenomeDistanceCache
	Reporter Reporter
	NextKey  int // Key handed to the next new species (start at 1)
}

// NewSpeciator creates a speciation engine with an empty distance cache.
func NewSpeciator(config *SpeciesSetConfig, reporter Reporter) *Speciator {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Speciator{
		Config:   config,
		Cache:    NewGenomeDistanceCache(),
		Reporter: reporter,
		NextKey:  1,
	}
}

// Speciate clusters population given the species of the previous generation.
//
// Every existing species first picks the closest not yet claimed genome as its
// new representative; a species whose closest genome is farther than the
// compatibility threshold is dropped. Remaining genomes, in key order, join the
// first representative closer than the threshold or found a new species.
func (sp *Speciator) Speciate(ctx context.Context, population map[int]*Genome, generation int, existing []*Species) ([]*Species, error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}
	threshold := sp.Config.CompatibilityThreshold
	genomes := make([]*Genome, 0, len(population))
	for _, key := range slices.Sorted(maps.Keys(population)) {
		genomes = append(genomes, population[key])
	}

	// --- Step 1: distances from every old representative, in parallel ---
	distances := make([][]float64, len(existing))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, s := range existing {
		eg.Go(func() error {
			row := make([]float64, len(genomes))
			for j, g := range genomes {
				if err := egCtx.Err(); err != nil {
					return err
				}
				row[j] = sp.Cache.Distance(s.Representative, g)
			}
			distances[i] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("speciation: %w", err)
	}

	claimed := make([]bool, len(genomes))
	var representatives []*Genome
	var members [][]*Genome
	var origins []*Species // nil for species founded this generation

	for i, s := range existing {
		best, bestDist := -1, math.Inf(1)
		for j, d := range distances[i] {
			if !claimed[j] && d < bestDist {
				best, bestDist = j, d
			}
		}
		if best < 0 || bestDist > threshold {
			sp.Reporter.Info(fmt.Sprintf("Species %d drifted away and was replaced", s.Key))
			continue
		}
		claimed[best] = true
		representatives = append(representatives, genomes[best])
		members = append(members, []*Genome{genomes[best]})
		origins = append(origins, s)
	}

	// --- Step 2: assign remaining genomes, first match wins ---
	for j, g := range genomes {
		if claimed[j] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		home := -1
		for r, rep := range representatives {
			if sp.Cache.Distance(rep, g) < threshold {
				home = r
				break
			}
		}
		if home >= 0 {
			members[home] = append(members[home], g)
			continue
		}
		representatives = append(representatives, g)
		members = append(members, []*Genome{g})
		origins = append(origins, nil)
	}

	// --- Step 3: emit snapshots ---
	result := make([]*Species, len(representatives))
	for r, rep := range representatives {
		slices.SortFunc(members[r], func(a, b *Genome) int { return a.Key - b.Key })
		if origins[r] != nil {
			result[r] = origins[r].withMembers(rep, members[r])
			continue
		}
		result[r] = NewSpecies(sp.NextKey, generation, rep, members[r])
		sp.NextKey++
	}

	if distances := sp.Cache.Values(); len(distances) > 0 {
		hits, misses := sp.Cache.Stats()
		sp.Reporter.Info(fmt.Sprintf("Mean genetic distance %.3f, standard deviation %.3f (cache hits %d, misses %d)",
			Mean(distances), Stdev(distances), hits, misses))
	}
	return result, nil
}

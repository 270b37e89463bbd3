package neat

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// Stagnation manages the detection of stagnant species.
type Stagnation struct {
	Config             *StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[config.SpeciesFitnessFunc]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", config.SpeciesFitnessFunc)
	}
	return &Stagnation{
		Config:             config,
		SpeciesFitnessFunc: fn,
	}, nil
}

// StagnationResult splits the species of one generation into survivors and
// extinct species. Both lists are ordered by ascending current fitness.
type StagnationResult struct {
	Survivors []*Species
	Extinct   []*Species
}

// Update recomputes the fitness of every species for generation, records
// improvements and decides which species survive: every non-stagnant species
// and the SpeciesElitism fittest stagnant ones.
func (s *Stagnation) Update(species []*Species, generation int) (StagnationResult, error) {
	updated := make([]*Species, 0, len(species))
	for _, sp := range species {
		if len(sp.Members) == 0 {
			return StagnationResult{}, fmt.Errorf("stagnation of species %d: %w", sp.Key, ErrEmptySpecies)
		}
		next := sp.clone()

		previousBest := math.Inf(-1)
		if len(next.FitnessHistory) > 0 {
			previousBest = MaxFloat(next.FitnessHistory)
		}
		next.CurrentFitness = s.SpeciesFitnessFunc(next.MemberFitnesses(generation))
		next.FitnessHistory = append(next.FitnessHistory, next.CurrentFitness)
		if next.CurrentFitness > previousBest+s.Config.ImprovementThreshold {
			next.LastImproved = generation
		}
		next.Stagnant = generation-next.LastImproved >= s.Config.MaxStagnation
		updated = append(updated, next)
	}

	// Sort species by fitness (ascending - least fit first)
	slices.SortStableFunc(updated, func(a, b *Species) int {
		return cmp.Or(cmp.Compare(a.CurrentFitness, b.CurrentFitness), cmp.Compare(a.Key, b.Key))
	})

	var stagnant []*Species
	for _, sp := range updated {
		if sp.Stagnant {
			stagnant = append(stagnant, sp)
		}
	}
	spared := make(map[int]bool)
	for i := len(stagnant) - 1; i >= 0 && len(stagnant)-i <= s.Config.SpeciesElitism; i-- {
		spared[stagnant[i].Key] = true
	}

	var result StagnationResult
	for _, sp := range updated {
		if !sp.Stagnant || spared[sp.Key] {
			result.Survivors = append(result.Survivors, sp)
		} else {
			result.Extinct = append(result.Extinct, sp)
		}
	}
	return result, nil
}

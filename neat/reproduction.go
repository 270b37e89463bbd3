package neat

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptySpecies is returned when a species without members reaches reproduction or stagnation.
	ErrEmptySpecies = errors.New("neat: species has no members")
	// ErrZeroSpawn is returned when the spawn quotas of all species add up to zero.
	ErrZeroSpawn = errors.New("neat: total spawn amount is zero")
)

// Reproduction handles the creation of new genomes, either from scratch or through crossover and mutation.
type Reproduction struct {
	Config        *ReproductionConfig
	GenomeConfig  *GenomeConfig
	NextGenomeKey int           // Key handed to the next genome (start at 1)
	Ancestors     map[int][]int // Map genome key -> parent keys of the latest generation
	Reporter      Reporter

	rng *RNG
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig, genomeConfig *GenomeConfig, rng *RNG, reporter Reporter) *Reproduction {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Reproduction{
		Config:        config,
		GenomeConfig:  genomeConfig,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
		Reporter:      reporter,
		rng:           rng,
	}
}

func (r *Reproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation creates popSize freshly initialized genomes.
func (r *Reproduction) CreateNewPopulation(popSize int) map[int]*Genome {
	policy := r.GenomeConfig.Connectivity
	if resolved, fellBack := policy.Resolve(r.GenomeConfig.NumHidden); fellBack {
		r.Reporter.Warn(fmt.Sprintf("Initial connection '%s' requires hidden nodes but none are configured; using '%s' instead", policy, resolved))
	}

	newGenomes := make(map[int]*Genome, popSize)
	r.Ancestors = make(map[int][]int, popSize)
	for i := 0; i < popSize; i++ {
		key := r.getNextKey()
		g := NewGenome(key, r.GenomeConfig)
		g.ConfigureNew(policy, r.rng)
		newGenomes[key] = g
		r.Ancestors[key] = []int{}
	}
	return newGenomes
}

// Offspring is the population produced by one reproduction round.
type Offspring struct {
	Population map[int]*Genome
	BySpecies  map[int][]int // Parent species key -> keys of the genomes it produced (elites included)
}

// Reproduce creates the next generation from species whose members were
// evaluated in generation.
func (r *Reproduction) Reproduce(ctx context.Context, species []*Species, popSize, generation int) (*Offspring, error) {
	if len(species) == 0 {
		return &Offspring{Population: map[int]*Genome{}, BySpecies: map[int][]int{}}, nil
	}

	// --- Step 1: adjusted fitness ---
	var allFitnesses []float64
	speciesFitnesses := make([][]float64, len(species))
	for i, sp := range species {
		if len(sp.Members) == 0 {
			return nil, fmt.Errorf("reproduction of species %d: %w", sp.Key, ErrEmptySpecies)
		}
		speciesFitnesses[i] = sp.MemberFitnesses(generation)
		allFitnesses = append(allFitnesses, speciesFitnesses[i]...)
		for _, g := range sp.Members {
			r.NextGenomeKey = max(r.NextGenomeKey, g.Key+1)
		}
	}
	minFitness := MinFloat(allFitnesses)
	maxFitness := MaxFloat(allFitnesses)
	fitnessRange := math.Max(1.0, maxFitness-minFitness)

	adjustedFitnesses := make([]float64, len(species))
	previousSizes := make([]int, len(species))
	adjustedFitnessSum := 0.0
	for i, sp := range species {
		adjustedFitnesses[i] = (Mean(speciesFitnesses[i]) - minFitness) / fitnessRange
		adjustedFitnessSum += adjustedFitnesses[i]
		previousSizes[i] = len(sp.Members)
	}
	r.Reporter.Info(fmt.Sprintf("Average adjusted fitness: %.3f", Mean(adjustedFitnesses)))

	// --- Step 2: spawn amounts ---
	spawnAmounts, err := computeSpawnAmounts(adjustedFitnesses, adjustedFitnessSum, previousSizes, popSize, r.Config.MinSpeciesSize)
	if err != nil {
		return nil, err
	}

	// --- Step 3: elites and parent selection ---
	type birth struct {
		key              int
		parent1, parent2 *Genome
		rng              *RNG
	}
	offspring := &Offspring{
		Population: make(map[int]*Genome, popSize),
		BySpecies:  make(map[int][]int, len(species)),
	}
	newAncestors := make(map[int][]int, popSize)
	var births []birth

	for i, sp := range species {
		spawn := spawnAmounts[i]

		// Sort old members by fitness (ascending); elites and parents come from the tail.
		oldMembers := slices.Clone(sp.Members)
		slices.SortStableFunc(oldMembers, func(a, b *Genome) int {
			return cmp.Or(cmp.Compare(a.Fitness(generation), b.Fitness(generation)), cmp.Compare(a.Key, b.Key))
		})

		elites := min(r.Config.Elitism, len(oldMembers), spawn)
		for _, elite := range oldMembers[len(oldMembers)-elites:] {
			offspring.Population[elite.Key] = elite
			offspring.BySpecies[sp.Key] = append(offspring.BySpecies[sp.Key], elite.Key)
			newAncestors[elite.Key] = []int{elite.Key}
		}
		spawn -= elites
		if spawn <= 0 {
			continue
		}

		survivalCutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(oldMembers))))
		survivalCutoff = min(max(survivalCutoff, 2), len(oldMembers))
		parents := oldMembers[len(oldMembers)-survivalCutoff:]

		for j := 0; j < spawn; j++ {
			b := birth{
				key:     r.getNextKey(),
				parent1: parents[r.rng.Intn(len(parents))],
				parent2: parents[r.rng.Intn(len(parents))],
				rng:     r.rng.Derive(),
			}
			births = append(births, b)
			offspring.BySpecies[sp.Key] = append(offspring.BySpecies[sp.Key], b.key)
			newAncestors[b.key] = []int{b.parent1.Key, b.parent2.Key}
		}
	}

	// --- Step 4: crossover and mutation, in parallel ---
	children := make([]*Genome, len(births))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, b := range births {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			child := NewGenomeFromCrossover(b.key, b.parent1, b.parent2, b.rng)
			child.Mutate(b.rng)
			children[i] = child
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("reproduction: %w", err)
	}
	for _, child := range children {
		offspring.Population[child.Key] = child
	}

	r.Ancestors = newAncestors
	if len(offspring.Population) != popSize {
		r.Reporter.Info(fmt.Sprintf("New population size (%d) differs from target (%d)", len(offspring.Population), popSize))
	}
	return offspring, nil
}

// computeSpawnAmounts calculates the number of offspring each species should produce.
func computeSpawnAmounts(adjustedFitnesses []float64, adjustedFitnessSum float64, previousSizes []int, popSize int, minSpeciesSize int) ([]int, error) {
	spawnAmounts := make([]int, len(adjustedFitnesses))
	totalSpawn := 0
	for i, af := range adjustedFitnesses {
		ps := previousSizes[i]
		s := float64(minSpeciesSize)
		if adjustedFitnessSum > 0 {
			s = math.Max(float64(minSpeciesSize), af/adjustedFitnessSum*float64(popSize))
		}

		// Move halfway towards the target; shrink by one when that rounds to nothing.
		d := (s - float64(ps)) * 0.5
		c := int(math.Round(d))
		spawn := ps
		switch {
		case c != 0:
			spawn += c
		case d > 0:
			spawn++
		default:
			spawn--
		}
		spawnAmounts[i] = spawn
		totalSpawn += spawn
	}
	if totalSpawn <= 0 {
		return nil, ErrZeroSpawn
	}

	norm := float64(popSize) / float64(totalSpawn)
	for i, sa := range spawnAmounts {
		spawnAmounts[i] = max(minSpeciesSize, int(math.Round(float64(sa)*norm)))
	}
	return spawnAmounts, nil
}

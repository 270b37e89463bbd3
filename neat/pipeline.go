package neat

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoEvaluator is returned when a pipeline is built without an evaluation function.
	ErrNoEvaluator = errors.New("neat: no evaluation function")
	// ErrNotPaused is returned by Resume when the pipeline is not paused.
	ErrNotPaused = errors.New("neat: pipeline is not paused")
	// ErrNoCheckpointer is reported when a save or load is requested without a Checkpointer.
	ErrNoCheckpointer = errors.New("neat: no checkpointer configured")
)

// EvaluationFunc returns the fitness of a genome. It is called once per
// genome per generation; with more than one evaluation worker it must be safe
// for concurrent use.
type EvaluationFunc func(genome *Genome) float64

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReporter adds a reporter; it also receives every state notification.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporters = append(p.reporters, r) }
}

// WithStateListener adds a listener notified of every state transition.
func WithStateListener(l StateListener) Option {
	return func(p *Pipeline) { p.listeners = append(p.listeners, l) }
}

// WithCheckpointer sets where Save writes and Load reads snapshots.
func WithCheckpointer(c Checkpointer) Option {
	return func(p *Pipeline) { p.checkpointer = c }
}

// WithRNG replaces the random source seeded from the configuration.
func WithRNG(rng *RNG) Option {
	return func(p *Pipeline) { p.rng = rng }
}

// WithEvaluationWorkers evaluates genomes on n goroutines. Notifications keep
// their order; Evaluating is then sent once the genome's fitness is known.
func WithEvaluationWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// Pipeline runs NEAT generation after generation as a state machine.
//
// Pause, Save and Load only raise flags; the running pipeline honours them the
// next time it leaves a stable state. Listeners are called synchronously from
// the goroutine executing Run and may call the read accessors.
type Pipeline struct {
	config       *Config
	evaluate     EvaluationFunc
	reporters    ReporterSet
	listeners    []StateListener
	checkpointer Checkpointer
	rng          *RNG
	workers      int

	speciator    *Speciator
	stagnation   *Stagnation
	reproduction *Reproduction

	mu          sync.RWMutex
	state       State
	generation  int
	population  map[int]*Genome
	species     []*Species
	offspring   *Offspring
	best        *Genome
	bestFitness float64
	ancestors   map[int][]int
	cancel      context.CancelFunc

	pauseRequested atomic.Bool
	saveRequested  atomic.Bool
	loadRequested  atomic.Bool
	resumeCh       chan struct{}
}

// NewPipeline validates config and builds a pipeline in the Genesis state.
func NewPipeline(config *Config, evaluate EvaluationFunc, opts ...Option) (*Pipeline, error) {
	if evaluate == nil {
		return nil, ErrNoEvaluator
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		config:   config,
		evaluate: evaluate,
		workers:  config.Neat.EvaluationWorkers,
		state:    State{Kind: Genesis},
		resumeCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = NewRNG(config.Neat.Seed)
	}

	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}
	p.stagnation = stagnation
	p.speciator = NewSpeciator(&config.SpeciesSet, p.reporters)
	p.reproduction = NewReproduction(&config.Reproduction, &config.Genome, p.rng, p.reporters)
	return p, nil
}

// Run drives the pipeline until it reaches a terminal state (SolutionFound,
// or Extinction without reset_on_extinction), ctx is cancelled, Terminate is
// called or a step fails. It returns the last state reached.
func (p *Pipeline) Run(ctx context.Context) (State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	for {
		state := p.State()
		if p.terminal(state) {
			return state, nil
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if err := p.step(ctx); err != nil {
			return p.State(), err
		}
	}
}

// Pause asks the pipeline to pause when it next leaves a stable state.
func (p *Pipeline) Pause() { p.pauseRequested.Store(true) }

// Save asks the pipeline to write a snapshot when it next leaves a stable state.
func (p *Pipeline) Save() { p.saveRequested.Store(true) }

// Load asks the pipeline to replace its state with the checkpointer's latest
// snapshot when it next leaves a stable state.
func (p *Pipeline) Load() { p.loadRequested.Store(true) }

// Resume continues a paused pipeline. Calling it in any other state is
// reported and changes nothing.
func (p *Pipeline) Resume() error {
	p.mu.RLock()
	kind := p.state.Kind
	p.mu.RUnlock()
	if kind != Paused {
		p.reporters.Error(fmt.Sprintf("Resume called while the pipeline was %s", kind), ErrNotPaused)
		return ErrNotPaused
	}
	p.pauseRequested.Store(false)
	select {
	case p.resumeCh <- struct{}{}:
	default:
	}
	return nil
}

// Terminate aborts a running pipeline without waiting for the current step.
func (p *Pipeline) Terminate() {
	p.mu.RLock()
	cancel := p.cancel
	p.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// State returns the latest notified state.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Generation returns the number of the current generation; 0 before the first one starts.
func (p *Pipeline) Generation() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.generation
}

// Population returns the current genomes ordered by key.
func (p *Pipeline) Population() []*Genome {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Genome, 0, len(p.population))
	for _, key := range slices.Sorted(maps.Keys(p.population)) {
		out = append(out, p.population[key])
	}
	return out
}

// Species returns the current species.
func (p *Pipeline) Species() []*Species {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.species)
}

// Best returns the fittest genome evaluated so far, or nil.
func (p *Pipeline) Best() *Genome {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.best
}

// Ancestors returns the parent keys of every genome of the latest reproduction.
func (p *Pipeline) Ancestors() map[int][]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.ancestors)
}

func (p *Pipeline) terminal(s State) bool {
	return s.Kind == SolutionFound || (s.Kind == Extinction && !p.config.Neat.ResetOnExtinction)
}

// notify records state and tells every listener about it.
func (p *Pipeline) notify(state State) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
	p.reporters.OnState(state)
	for _, l := range p.listeners {
		l.OnState(state)
	}
}

func (p *Pipeline) newState(kind StateKind) State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return State{Kind: kind, Generation: p.generation}
}

// step performs exactly one transition out of the current state.
func (p *Pipeline) step(ctx context.Context) error {
	current := p.State()

	if current.Kind == Paused {
		select {
		case <-p.resumeCh:
			p.notify(*current.Resume)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if current.Kind.Stable() && p.divert(ctx, current) {
		return nil
	}

	switch current.Kind {
	case Genesis:
		p.createInitialPopulation()
	case InitialPopulationCreated:
		return p.speciate(ctx)
	case Speciated:
		p.startGeneration()
	case GenerationStarted:
		return p.evaluateGeneration(ctx)
	case GenerationFinished:
		return p.reproduce(ctx)
	case ReproducedPopulation:
		return p.cull()
	case Culled:
		p.mu.RLock()
		extinct := len(p.population) == 0
		p.mu.RUnlock()
		if extinct {
			p.notify(p.newState(Extinction))
			return nil
		}
		return p.speciate(ctx)
	case Saved:
		p.notify(*current.Resume)
	case Extinction:
		p.reset()
	default:
		return fmt.Errorf("neat: pipeline cannot leave state %s", current.Kind)
	}
	return nil
}

// divert handles a pending pause, save or load request when leaving a
// stable state. It reports whether a control state was entered.
func (p *Pipeline) divert(ctx context.Context, from State) bool {
	resume := from
	if from.Kind == Saved {
		resume = *from.Resume
	}
	switch {
	case p.pauseRequested.CompareAndSwap(true, false):
		p.notify(State{Kind: Paused, Generation: from.Generation, Resume: &resume})
	case p.saveRequested.CompareAndSwap(true, false):
		p.save(ctx, resume)
	case p.loadRequested.CompareAndSwap(true, false):
		p.load(ctx, from)
	default:
		return false
	}
	return true
}

func (p *Pipeline) save(ctx context.Context, resume State) {
	p.notify(State{Kind: Saving, Generation: resume.Generation, Resume: &resume})
	if p.checkpointer == nil {
		p.reporters.Error("Save requested without a checkpointer", ErrNoCheckpointer)
		p.notify(resume)
		return
	}
	if err := p.checkpointer.Save(ctx, p.snapshot(resume.Kind)); err != nil {
		p.reporters.Error(fmt.Sprintf("Saving generation %d failed", resume.Generation), err)
		p.notify(resume)
		return
	}
	p.notify(State{Kind: Saved, Generation: resume.Generation, Resume: &resume})
}

func (p *Pipeline) load(ctx context.Context, from State) {
	p.notify(p.newState(Loading))
	if p.checkpointer == nil {
		p.reporters.Error("Load requested without a checkpointer", ErrNoCheckpointer)
		p.notify(from)
		return
	}
	snap, err := p.checkpointer.Load(ctx)
	if err == nil {
		err = p.restore(snap)
	}
	if err != nil {
		p.reporters.Error("Loading a snapshot failed", err)
		p.notify(from)
		return
	}
	p.pauseRequested.Store(false)
	p.saveRequested.Store(false)
	p.loadRequested.Store(false)
	p.reporters.Info(fmt.Sprintf("Loaded generation %d, resuming at %s", snap.Generation, snap.Resume))
	p.notify(p.newState(snap.Resume))
}

func (p *Pipeline) createInitialPopulation() {
	p.notify(p.newState(CreatingInitialPopulation))
	population := p.reproduction.CreateNewPopulation(p.config.Neat.PopSize)
	p.mu.Lock()
	p.population = population
	p.species = nil
	p.offspring = nil
	p.ancestors = p.reproduction.Ancestors
	p.mu.Unlock()
	p.notify(p.newState(InitialPopulationCreated))
}

func (p *Pipeline) speciate(ctx context.Context) error {
	p.notify(p.newState(Speciating))
	p.speciator.Cache.Clear()

	p.mu.RLock()
	population, existing, generation := p.population, p.species, p.generation
	p.mu.RUnlock()

	species, err := p.speciator.Speciate(ctx, population, generation, existing)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.species = species
	p.mu.Unlock()
	p.reporters.Info(fmt.Sprintf("Population of %d members in %d species", len(population), len(species)))
	p.notify(p.newState(Speciated))
	return nil
}

func (p *Pipeline) startGeneration() {
	p.mu.Lock()
	p.generation++
	p.mu.Unlock()
	p.notify(p.newState(GenerationStarted))
}

type evaluation struct {
	speciesKey int
	genome     *Genome
}

func (p *Pipeline) evaluateGeneration(ctx context.Context) error {
	p.mu.RLock()
	generation := p.generation
	var queue []evaluation
	for _, sp := range p.species {
		for _, g := range sp.Members {
			queue = append(queue, evaluation{speciesKey: sp.Key, genome: g})
		}
	}
	p.mu.RUnlock()

	if p.workers > 1 {
		if err := p.evaluateParallel(ctx, queue, generation); err != nil {
			return err
		}
	}

	criterion := p.config.Neat.FitnessCriterion
	checkEach := !p.config.Neat.NoFitnessTermination && criterion == "max"
	var generationBest *Genome
	fitnesses := make([]float64, 0, len(queue))

	for _, e := range queue {
		if err := ctx.Err(); err != nil {
			return err
		}
		g := e.genome
		p.notify(State{Kind: Evaluating, Generation: generation, SpeciesKey: e.speciesKey, Genome: g})
		if p.workers <= 1 {
			g.SetFitness(generation, p.evaluate(g))
		}
		fitness := g.Fitness(generation)
		fitnesses = append(fitnesses, fitness)
		p.notify(State{Kind: Evaluated, Generation: generation, SpeciesKey: e.speciesKey, Genome: g})

		if generationBest == nil || fitness > generationBest.Fitness(generation) {
			generationBest = g
		}
		p.trackBest(g, fitness)

		if checkEach && fitness >= p.config.Neat.FitnessThreshold {
			p.reporters.Info(fmt.Sprintf("Genome %d reached fitness %.4f", g.Key, fitness))
			p.notify(State{Kind: SolutionFound, Generation: generation, Genome: g})
			return nil
		}
	}

	if generationBest != nil {
		p.reporters.Info(fmt.Sprintf("Best of generation %d: genome %d with fitness %.4f (mean %.4f, stdev %.4f)",
			generation, generationBest.Key, generationBest.Fitness(generation), Mean(fitnesses), Stdev(fitnesses)))
	}
	if !p.config.Neat.NoFitnessTermination && criterion != "max" && generationBest != nil {
		if StatFunctions[criterion](fitnesses) >= p.config.Neat.FitnessThreshold {
			p.notify(State{Kind: SolutionFound, Generation: generation, Genome: generationBest})
			return nil
		}
	}
	p.notify(p.newState(GenerationFinished))
	return nil
}

// evaluateParallel records the fitness of every queued genome using the
// configured number of workers.
func (p *Pipeline) evaluateParallel(ctx context.Context, queue []evaluation, generation int) error {
	fitnesses := make([]float64, len(queue))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.workers)
	for i, e := range queue {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			fitnesses[i] = p.evaluate(e.genome)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("evaluation: %w", err)
	}
	for i, e := range queue {
		e.genome.SetFitness(generation, fitnesses[i])
	}
	return nil
}

func (p *Pipeline) trackBest(g *Genome, fitness float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.best == nil || fitness > p.bestFitness {
		p.best = g
		p.bestFitness = fitness
	}
}

func (p *Pipeline) reproduce(ctx context.Context) error {
	p.mu.RLock()
	best, bestFitness := p.best, p.bestFitness
	species, generation := p.species, p.generation
	p.mu.RUnlock()
	if best != nil {
		p.reporters.Info(fmt.Sprintf("Current best genome: %d with fitness %.4f", best.Key, bestFitness))
	}

	p.notify(p.newState(ReproducingPopulation))
	offspring, err := p.reproduction.Reproduce(ctx, species, p.config.Neat.PopSize, generation)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.offspring = offspring
	p.ancestors = p.reproduction.Ancestors
	p.mu.Unlock()
	p.notify(p.newState(ReproducedPopulation))
	return nil
}

// cull removes stagnant species together with the offspring they produced.
func (p *Pipeline) cull() error {
	p.notify(p.newState(Culling))

	p.mu.RLock()
	species, offspring, generation := p.species, p.offspring, p.generation
	p.mu.RUnlock()

	result, err := p.stagnation.Update(species, generation)
	if err != nil {
		return err
	}

	population := maps.Clone(offspring.Population)
	extinct := make([]int, 0, len(result.Extinct))
	for _, sp := range result.Extinct {
		p.reporters.Info(fmt.Sprintf("Species %d with %d members is extinct after %d generations without improvement",
			sp.Key, len(sp.Members), generation-sp.LastImproved))
		for _, key := range offspring.BySpecies[sp.Key] {
			delete(population, key)
		}
		extinct = append(extinct, sp.Key)
	}
	survivors := slices.Clone(result.Survivors)
	slices.SortFunc(survivors, func(a, b *Species) int { return a.Key - b.Key })

	p.mu.Lock()
	p.population = population
	p.species = survivors
	p.offspring = nil
	p.mu.Unlock()

	state := p.newState(Culled)
	state.ExtinctSpecies = extinct
	p.notify(state)
	return nil
}

// reset starts over after an extinction when reset_on_extinction is set.
func (p *Pipeline) reset() {
	p.reporters.Warn("All species went extinct; starting over from a new population")
	p.mu.Lock()
	p.generation = 0
	p.population = nil
	p.species = nil
	p.offspring = nil
	p.mu.Unlock()
	p.notify(p.newState(Genesis))
}

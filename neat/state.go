package neat

import "fmt"

// StateKind enumerates the states of a Pipeline.
type StateKind int

const (
	Genesis StateKind = iota
	CreatingInitialPopulation
	InitialPopulationCreated
	Speciating
	Speciated
	GenerationStarted
	Evaluating
	Evaluated
	GenerationFinished
	SolutionFound
	ReproducingPopulation
	ReproducedPopulation
	Culling
	Culled
	Extinction
	Paused
	Saving
	Saved
	Loading
)

var stateKindNames = [...]string{
	Genesis:                   "Genesis",
	CreatingInitialPopulation: "CreatingInitialPopulation",
	InitialPopulationCreated:  "InitialPopulationCreated",
	Speciating:                "Speciating",
	Speciated:                 "Speciated",
	GenerationStarted:         "GenerationStarted",
	Evaluating:                "Evaluating",
	Evaluated:                 "Evaluated",
	GenerationFinished:        "GenerationFinished",
	SolutionFound:             "SolutionFound",
	ReproducingPopulation:     "ReproducingPopulation",
	ReproducedPopulation:      "ReproducedPopulation",
	Culling:                   "Culling",
	Culled:                    "Culled",
	Extinction:                "Extinction",
	Paused:                    "Paused",
	Saving:                    "Saving",
	Saved:                     "Saved",
	Loading:                   "Loading",
}

func (k StateKind) String() string {
	if k < 0 || int(k) >= len(stateKindNames) {
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
	return stateKindNames[k]
}

// Stable reports whether the pipeline checks pending pause, save and load
// requests when leaving a state of this kind.
func (k StateKind) Stable() bool {
	switch k {
	case Genesis, InitialPopulationCreated, Speciated, GenerationStarted,
		GenerationFinished, ReproducedPopulation, Culled, Saved:
		return true
	}
	return false
}

// State is one notification of the pipeline. Fields other than Kind and
// Generation are only set for the kinds that carry them.
type State struct {
	Kind       StateKind
	Generation int

	// SpeciesKey and Genome are set for Evaluating and Evaluated; Genome
	// also carries the solution of SolutionFound.
	SpeciesKey int
	Genome     *Genome

	// Resume is the state a Paused, Saving or Saved pipeline continues with.
	Resume *State

	// ExtinctSpecies lists the keys of the species removed while Culling.
	ExtinctSpecies []int
}

func (s State) String() string {
	switch s.Kind {
	case Evaluating, Evaluated:
		return fmt.Sprintf("%s(generation %d, species %d, genome %d)", s.Kind, s.Generation, s.SpeciesKey, s.Genome.Key)
	case SolutionFound:
		return fmt.Sprintf("%s(generation %d, genome %d)", s.Kind, s.Generation, s.Genome.Key)
	case Paused, Saving, Saved:
		return fmt.Sprintf("%s(resume %s)", s.Kind, s.Resume.Kind)
	case Culled:
		return fmt.Sprintf("%s(generation %d, extinct %v)", s.Kind, s.Generation, s.ExtinctSpecies)
	}
	return fmt.Sprintf("%s(generation %d)", s.Kind, s.Generation)
}

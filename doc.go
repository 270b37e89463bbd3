// Package neat provides a Go implementation of the NeuroEvolution of Augmenting Topologies (NEAT) algorithm.
//
// NEAT is a genetic algorithm for the generation of evolving artificial neural networks.
// It alters both the weighting parameters and structures of networks, attempting to find
// a balance between the fitness of evolved solutions and their diversity.
//
// Evolution is driven by a neat.Pipeline, a state machine that creates a
// population, speciates it, evaluates every genome, reproduces and culls
// stagnant species, generation after generation. Listeners observe every
// transition; a running pipeline can be paused, saved, loaded and resumed.
//
// This implementation is based on the original paper by Kenneth O. Stanley and Risto Miikkulainen
// and the neat-python implementation (https://github.com/CodeReclaimers/neat-python).
//
// Basic usage:
//
//	// Load configuration
//	config, err := neat.LoadConfig("path/to/config")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Build a pipeline around your fitness function
//	pipeline, err := neat.NewPipeline(config, evalGenome,
//		neat.WithReporter(neat.NewZapReporter(logger)),
//		neat.WithCheckpointer(&neat.FileCheckpointer{Path: "xor.gz"}))
//	if err != nil {
//		log.Fatalf("Error creating pipeline: %v", err)
//	}
//
//	// Run until a genome meets the fitness threshold
//	final, err := pipeline.Run(ctx)
//	if err != nil {
//		log.Fatalf("Error running pipeline: %v", err)
//	}
//	if final.Kind == neat.SolutionFound {
//		fmt.Println("Solution found:", final.Genome)
//	}
package neat

package neat

import (
	"math/rand"
	"sync"
	"time"
)

// RNG is the random source shared by genomes, engines and the pipeline.
// It wraps a *rand.Rand behind a mutex so that goroutines spawned by the
// speciation and reproduction engines can draw from it safely. Seeding it with
// a fixed value makes a run reproducible as long as the evaluator is.
type RNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRNG creates a random source seeded with seed. A zero seed uses the
// current time.
func NewRNG(seed int64) *RNG {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform value in [0, 1).
func (g *RNG) Float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Float64()
}

// NormFloat64 returns a standard normally distributed value.
func (g *RNG) NormFloat64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.NormFloat64()
}

// Intn returns a uniform value in [0, n). It panics if n <= 0.
func (g *RNG) Intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Intn(n)
}

// Int63 returns a non-negative pseudo-random 63-bit integer.
func (g *RNG) Int63() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Int63()
}

// Bool returns a fair coin flip.
func (g *RNG) Bool() bool {
	return g.Float64() < 0.5
}

// Shuffle pseudo-randomizes the order of n elements using swap.
func (g *RNG) Shuffle(n int, swap func(i, j int)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.r.Shuffle(n, swap)
}

// Derive returns an independent source seeded from this one. Work handed to
// goroutines uses derived sources so results do not depend on scheduling.
func (g *RNG) Derive() *RNG {
	seed := g.Int63()
	if seed == 0 {
		seed = 1
	}
	return NewRNG(seed)
}

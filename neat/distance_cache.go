package neat

import (
	"sync"
	"sync/atomic"
)

type genomePair struct {
	a, b int
}

func newGenomePair(a, b int) genomePair {
	if a > b {
		a, b = b, a
	}
	return genomePair{a: a, b: b}
}

// GenomeDistanceCache memoizes genome distances for one generation. Pairs are
// unordered, so d(a,b) and d(b,a) share one entry. It is safe for concurrent
// use; two goroutines racing on the same pair compute the same value and the
// first write wins.
type GenomeDistanceCache struct {
	mu        sync.RWMutex
	distances map[genomePair]float64
	hits      atomic.Int64
	misses    atomic.Int64
}

// NewGenomeDistanceCache creates an empty cache.
func NewGenomeDistanceCache() *GenomeDistanceCache {
	return &GenomeDistanceCache{distances: make(map[genomePair]float64)}
}

// Distance returns the distance between two genomes, computing and storing it
// on a miss.
func (c *GenomeDistanceCache) Distance(a, b *Genome) float64 {
	key := newGenomePair(a.Key, b.Key)

	c.mu.RLock()
	d, ok := c.distances[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return d
	}

	c.misses.Add(1)
	d = a.Distance(b)

	c.mu.Lock()
	if existing, ok := c.distances[key]; ok {
		d = existing
	} else {
		c.distances[key] = d
	}
	c.mu.Unlock()
	return d
}

// Clear drops every cached distance and resets the counters. Gene values
// change under mutation, so the cache must be cleared once per generation.
func (c *GenomeDistanceCache) Clear() {
	c.mu.Lock()
	c.distances = make(map[genomePair]float64)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns the hit and miss counters since the last Clear.
func (c *GenomeDistanceCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached pairs.
func (c *GenomeDistanceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.distances)
}

// Values returns every cached distance, used for distance statistics.
func (c *GenomeDistanceCache) Values() []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]float64, 0, len(c.distances))
	for _, d := range c.distances {
		out = append(out, d)
	}
	return out
}

package neat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceCacheIsSymmetric(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	a := testGenome(cfg, 1)
	b := testGenome(cfg, 2, ck(-1, 0))
	cache := NewGenomeDistanceCache()

	assert.InDelta(t, 1.0, cache.Distance(a, b), 1e-12)
	assert.InDelta(t, 1.0, cache.Distance(b, a), 1e-12)
	assert.Equal(t, 1, cache.Len())

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestDistanceCacheClear(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	a := testGenome(cfg, 1)
	b := testGenome(cfg, 2)
	cache := NewGenomeDistanceCache()
	cache.Distance(a, b)
	cache.Distance(a, a)

	cache.Clear()
	assert.Zero(t, cache.Len())
	assert.Empty(t, cache.Values())
	hits, misses := cache.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestDistanceCacheConcurrentUse(t *testing.T) {
	cfg := &testConfig(t, nil).Genome
	genomes := []*Genome{
		testGenome(cfg, 1),
		testGenome(cfg, 2, ck(-1, 0)),
		testGenome(cfg, 3, ck(-1, 0), ck(-2, 0)),
		testGenome(cfg, 4, ck(-2, 0)),
	}
	cache := NewGenomeDistanceCache()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, a := range genomes {
				for _, b := range genomes {
					cache.Distance(a, b)
				}
			}
		}()
	}
	wg.Wait()

	// 4 self pairs plus 6 unordered pairs.
	assert.Equal(t, 10, cache.Len())
	for _, a := range genomes {
		for _, b := range genomes {
			assert.Equal(t, a.Distance(b), cache.Distance(a, b))
		}
	}
	hits, misses := cache.Stats()
	assert.Equal(t, int64(8*16+16), hits+misses)
}

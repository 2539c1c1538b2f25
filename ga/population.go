// ABOUTME: Population: a generation's chromosomes plus the driver-level
// ABOUTME: selection operations — elitism and fitness-proportional roulette.

package ga

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/cpmech/gosl/chk"

	"jigsaw-ga/piece"
	"jigsaw-ga/solver"
)

// Population wraps one generation's chromosomes, grounded on
// original_source/gaps/core.py's Population class.
type Population struct {
	chromosomes []solver.Chromosome
}

// NewPopulation wraps a slice of chromosomes. Population never mutates
// chromosome contents beyond setting fitness.
func NewPopulation(chromosomes []solver.Chromosome) Population {
	return Population{chromosomes: chromosomes}
}

// NewRandomPopulation builds size chromosomes over set, each an
// independently-shuffled random permutation of the piece ids — the
// "initial random permutation" lifecycle spec.md §3 describes for a
// freshly-created Chromosome.
func NewRandomPopulation(set piece.Set, size int, rng *rand.Rand) (Population, error) {
	n := set.Len()
	chromosomes := make([]solver.Chromosome, size)

	for i := range chromosomes {
		genes := make([]int, n)
		for id := range genes {
			genes[id] = id
		}
		rng.Shuffle(n, func(a, b int) { genes[a], genes[b] = genes[b], genes[a] })

		c, err := solver.New(genes, set.Rows(), set.Columns())
		if err != nil {
			return Population{}, err
		}
		chromosomes[i] = c
	}

	return NewPopulation(chromosomes), nil
}

// Len returns the number of chromosomes in the population.
func (p Population) Len() int { return len(p.chromosomes) }

// Chromosomes returns the population's chromosomes. The caller must not
// mutate the returned slice.
func (p Population) Chromosomes() []solver.Chromosome { return p.chromosomes }

// SetFitness assigns fitness scores by position: scores[i] is the score
// for the i-th chromosome. A chromosome that already carries a fitness
// value (an elite carried forward from a prior generation) is left
// untouched rather than re-stamped, since solver.Chromosome's fitness
// slot may be written exactly once. Returns an error if scores' length
// doesn't match the population's — spec.md §7's "Fitness-score arity
// mismatch" as reported to an external caller of this public API.
func (p Population) SetFitness(scores []float64) error {
	if len(scores) != len(p.chromosomes) {
		return fmt.Errorf("ga: got %d fitness scores, want %d for this population", len(scores), len(p.chromosomes))
	}
	for i := range p.chromosomes {
		if p.chromosomes[i].FitnessReady() {
			continue
		}
		p.chromosomes[i].SetFitness(scores[i])
	}
	return nil
}

// setFitnessInternal is Evolution's own entry point. It supplies a score
// slice it computed itself, so a length mismatch here is not bad external
// input but a broken internal invariant.
func (p Population) setFitnessInternal(scores []float64) {
	if len(scores) != len(p.chromosomes) {
		chk.Panic("ga: internal fitness slice has %d entries, want %d", len(scores), len(p.chromosomes))
	}
	for i := range p.chromosomes {
		if p.chromosomes[i].FitnessReady() {
			continue
		}
		p.chromosomes[i].SetFitness(scores[i])
	}
}

// Elites returns the top n chromosomes by descending fitness. Every
// chromosome must already have its fitness set.
func (p Population) Elites(n int) []solver.Chromosome {
	sorted := append([]solver.Chromosome(nil), p.chromosomes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Fitness() > sorted[j].Fitness()
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// SelectParentPairs draws len(population)-eliteSize index pairs by
// fitness-proportional roulette-wheel selection: a cumulative-fitness
// array is built once, and each draw samples uniformly from
// [0, total fitness) then binary-searches the cumulative array — exactly
// spec.md §4.5's "roulette wheel over cumulative fitness, binary search
// on a uniform sample".
func (p Population) SelectParentPairs(eliteSize int, rng *rand.Rand) [][2]int {
	n := len(p.chromosomes)
	cumulative := make([]float64, n)
	var total float64
	for i, c := range p.chromosomes {
		total += c.Fitness()
		cumulative[i] = total
	}

	selectOne := func() int {
		sample := rng.Float64() * total
		return sort.Search(n, func(i int) bool { return cumulative[i] >= sample })
	}

	pairCount := n - eliteSize
	if pairCount < 0 {
		pairCount = 0
	}

	pairs := make([][2]int, pairCount)
	for i := range pairs {
		pairs[i] = [2]int{selectOne(), selectOne()}
	}
	return pairs
}

// ABOUTME: Evolution: the generational loop that consumes the core —
// ABOUTME: evaluate, elitism, roulette selection, crossover, termination.

package ga

import (
	"context"
	"log"
	"math"
	"math/rand/v2"

	"github.com/cpmech/gosl/chk"

	"jigsaw-ga/compat"
	"jigsaw-ga/config"
	"jigsaw-ga/pool"
	"jigsaw-ga/solver"
)

// Evolution drives the generational loop spec.md §4.5 describes:
// evaluate fitness, carry elites forward unchanged, fill the remainder of
// the next generation via solver.Crossover, and stop on either the
// configured generation cap or a termination-threshold-length plateau in
// the top fitness. Grounded on original_source/gaps/core.py's Evolution
// class.
type Evolution struct {
	Config config.Config
	Index  *compat.Index
	Logger *log.Logger // nil disables logging, mirroring common.go's debugf
}

// NewEvolution builds an Evolution driver over a live CompatibilityIndex.
// logger may be nil to run silently.
func NewEvolution(cfg config.Config, ix *compat.Index, logger *log.Logger) *Evolution {
	return &Evolution{Config: cfg, Index: ix, Logger: logger}
}

// Run evolves an initial population and returns the fittest chromosome
// found. Cancellation via ctx is checked once per generation only — a
// fitness pass or crossover already in flight always runs to completion,
// matching spec.md §5's "coarse-grained... a crossover in progress is
// allowed to complete" cancellation contract.
func (e *Evolution) Run(ctx context.Context, initial Population) (solver.Chromosome, error) {
	population := initial
	selectionRNG := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	var fittest solver.Chromosome
	haveFittest := false
	terminationCounter := 0
	bestFitnessScore := math.Inf(-1)

	for generation := 0; generation < e.Config.MaxGenerations; generation++ {
		select {
		case <-ctx.Done():
			return fittest, ctx.Err()
		default:
		}

		e.evaluate(&population)

		elites := population.Elites(e.Config.EliteSize)
		if len(elites) == 0 {
			chk.Panic("ga: evolution configured with zero elites, cannot track the fittest chromosome")
		}
		fittest = elites[0]
		haveFittest = true
		e.logf("generation %d: best fitness %.4f", generation, fittest.Fitness())

		if fittest.Fitness() <= bestFitnessScore {
			terminationCounter++
		} else {
			bestFitnessScore = fittest.Fitness()
			terminationCounter = 0
		}

		if terminationCounter >= e.Config.TerminationThreshold {
			e.logf("generation %d: stopping early, no fitness improvement for %d generations", generation, e.Config.TerminationThreshold)
			return fittest, nil
		}

		pairs := population.SelectParentPairs(e.Config.EliteSize, selectionRNG)
		children, err := e.crossoverAll(population, pairs)
		if err != nil {
			return fittest, err
		}

		next := make([]solver.Chromosome, 0, len(elites)+len(children))
		next = append(next, elites...)
		next = append(next, children...)
		population = NewPopulation(next)
	}

	if !haveFittest {
		chk.Panic("ga: evolution ran zero generations (MaxGenerations=%d)", e.Config.MaxGenerations)
	}
	e.logf("reached generation cap %d", e.Config.MaxGenerations)
	return fittest, nil
}

// evaluate scores every not-yet-evaluated chromosome in p, in parallel
// across a worker pool, then writes the scores back. Chromosomes that
// already carry a fitness value (elites carried forward) are skipped —
// their existing score is reused rather than recomputed, since the
// underlying piece arrangement, and therefore the fitness, hasn't
// changed.
func (e *Evolution) evaluate(p *Population) {
	chromosomes := p.chromosomes
	scores := make([]float64, len(chromosomes))

	wp := pool.New(e.Config.Workers, len(chromosomes))
	defer wp.Close()

	for i := range chromosomes {
		i := i
		if chromosomes[i].FitnessReady() {
			scores[i] = chromosomes[i].Fitness()
			continue
		}
		wp.Submit(func() {
			scores[i] = solver.Fitness(chromosomes[i], e.Index, e.Config.FitnessScale)
		})
	}
	wp.Wait()

	p.setFitnessInternal(scores)
}

// crossoverAll produces one child per parent-index pair, in parallel
// across a worker pool. Each worker draws its own *rand.Rand seeded from
// the auto-seeded, concurrency-safe top-level math/rand/v2 source —
// never a single *rand.Rand shared across goroutines — per spec.md §5's
// per-worker-RNG requirement.
func (e *Evolution) crossoverAll(p Population, pairs [][2]int) ([]solver.Chromosome, error) {
	children := make([]solver.Chromosome, len(pairs))
	errs := make([]error, len(pairs))

	wp := pool.New(e.Config.Workers, len(pairs))
	defer wp.Close()

	for i, pair := range pairs {
		i, pair := i, pair
		wp.Submit(func() {
			workerRNG := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
			child, err := solver.Crossover(p.chromosomes[pair[0]], p.chromosomes[pair[1]], e.Index, workerRNG)
			children[i] = child
			errs[i] = err
		})
	}
	wp.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return children, nil
}

func (e *Evolution) logf(format string, args ...interface{}) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

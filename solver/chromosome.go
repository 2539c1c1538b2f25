// ABOUTME: Chromosome: a permutation of piece ids laid over a fixed R x C
// ABOUTME: grid, with a fitness slot that may be written exactly once.

package solver

import (
	"fmt"

	"github.com/cpmech/gosl/chk"

	"jigsaw-ga/compat"
)

// Chromosome is one candidate reassembly: piece ids in row-major grid
// order, together with the grid shape they were cut to.
type Chromosome struct {
	genes      []int
	rows       int
	columns    int
	positionOf map[int]int // piece id -> index into genes

	fitnessSet bool
	fitness    float64
}

// New builds a Chromosome from a row-major permutation of piece ids. len
// (genes) must equal rows*columns.
func New(genes []int, rows, columns int) (Chromosome, error) {
	if len(genes) != rows*columns {
		return Chromosome{}, fmt.Errorf("chromosome: got %d genes, want %d for a %dx%d grid", len(genes), rows*columns, rows, columns)
	}

	positionOf := make(map[int]int, len(genes))
	for idx, id := range genes {
		positionOf[id] = idx
	}

	g := make([]int, len(genes))
	copy(g, genes)

	return Chromosome{genes: g, rows: rows, columns: columns, positionOf: positionOf}, nil
}

// Rows returns the grid's row count.
func (c Chromosome) Rows() int { return c.rows }

// Columns returns the grid's column count.
func (c Chromosome) Columns() int { return c.columns }

// Genes returns the row-major piece-id permutation. The caller must not
// mutate the returned slice.
func (c Chromosome) Genes() []int { return c.genes }

// Gene returns the piece id at row-major index idx.
func (c Chromosome) Gene(idx int) int { return c.genes[idx] }

// Edge returns the piece id adjacent to id on the given side, or false if
// id sits on that side of the grid's border.
func (c Chromosome) Edge(id int, side compat.Orientation) (int, bool) {
	idx, ok := c.positionOf[id]
	if !ok {
		chk.Panic("chromosome: piece id %d is not present in this chromosome", id)
	}
	row, col := idx/c.columns, idx%c.columns

	switch side {
	case compat.Top:
		if row == 0 {
			return 0, false
		}
		return c.genes[idx-c.columns], true
	case compat.Down:
		if row == c.rows-1 {
			return 0, false
		}
		return c.genes[idx+c.columns], true
	case compat.Left:
		if col == 0 {
			return 0, false
		}
		return c.genes[idx-1], true
	default: // Right
		if col == c.columns-1 {
			return 0, false
		}
		return c.genes[idx+1], true
	}
}

// SetFitness records this chromosome's fitness score. It may be called
// exactly once; a second call is a programming error (the fitness slot is
// write-once-then-immutable, per the chromosome lifecycle contract).
func (c *Chromosome) SetFitness(f float64) {
	if c.fitnessSet {
		chk.Panic("chromosome: fitness already set to %v, cannot overwrite with %v", c.fitness, f)
	}
	c.fitness = f
	c.fitnessSet = true
}

// Fitness returns the cached fitness score. Reading it before SetFitness
// has been called is a programming error: the driver is responsible for
// scoring every individual before consulting it.
func (c Chromosome) Fitness() float64 {
	if !c.fitnessSet {
		chk.Panic("chromosome: fitness read before it was set")
	}
	return c.fitness
}

// FitnessReady reports whether SetFitness has been called.
func (c Chromosome) FitnessReady() bool { return c.fitnessSet }

// Fitness computes K / (1/K + sum of adjacent dissimilarities) for c
// against the given compatibility index, summing every LR and TD
// adjacency exactly once. Higher is better; a perfectly reconstructed
// image (zero dissimilarity everywhere) scores K*K.
func Fitness(c Chromosome, ix *compat.Index, k float64) float64 {
	sum := 1.0 / k

	for row := 0; row < c.rows; row++ {
		for col := 0; col < c.columns; col++ {
			idx := row*c.columns + col
			id := c.genes[idx]

			if col < c.columns-1 {
				right := c.genes[idx+1]
				sum += ix.PairDissimilarity(id, right, compat.LR)
			}
			if row < c.rows-1 {
				below := c.genes[idx+c.columns]
				sum += ix.PairDissimilarity(id, below, compat.TD)
			}
		}
	}

	return k / sum
}

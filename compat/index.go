// ABOUTME: CompatibilityIndex: the dense pairwise-dissimilarity table and
// ABOUTME: per-piece best-match rankings the crossover operator consults.

package compat

import (
	"sort"

	"jigsaw-ga/piece"
	"jigsaw-ga/pool"
)

// Match is one entry in a piece/side's best-match ranking: a candidate
// neighbor id and how dissimilar it is.
type Match struct {
	ID            int
	Dissimilarity float64
}

// Index holds, for N pieces, the Theta(N^2) pairwise dissimilarity
// measures and the four per-side best-match rankings for every piece. It
// is built once by Analyze and is safe for concurrent read-only use by
// any number of goroutines once Analyze returns.
type Index struct {
	n         int
	pairDiss  [2][]float64 // [LR|TD][a*n+b], a != b
	bestMatch [][4][]Match // [id][orientation] -> ascending by Dissimilarity
}

func (ix *Index) cell(a, b int) int { return a*ix.n + b }

// PairDissimilarity returns the stored asymmetric measure Dissimilarity(a,
// b, po) as computed by Analyze.
func (ix *Index) PairDissimilarity(a, b int, po PairOrientation) float64 {
	return ix.pairDiss[po][ix.cell(a, b)]
}

// BestMatch returns piece id's best-match ranking for the given side,
// ascending by dissimilarity, length N-1, with no duplicate ids. The
// caller must not mutate the returned slice.
func (ix *Index) BestMatch(id int, side Orientation) []Match {
	return ix.bestMatch[id][side]
}

// Len returns the number of pieces the index was built over.
func (ix *Index) Len() int { return ix.n }

type bestMatchContribution struct {
	id   int
	side Orientation
	m    Match
}

// Analyze builds a CompatibilityIndex over a piece set. workers is the
// number of goroutines used to parallelize the Theta(N^2) measurement
// pass; 0 selects a pool-chosen default (all available CPUs).
//
// Work is partitioned by outer pair-index so that every ordered pair {i,j}
// is measured by exactly one task, making the pairDiss writes race-free
// without locking. best_match contributions cross partition boundaries
// (piece j receives entries from every i<j), so each task accumulates its
// contributions into a thread-local buffer; buffers are merged into the
// shared table only after every task has completed, per the concurrency
// note in the compatibility-analysis contract.
func Analyze(pieces piece.Set, workers int) *Index {
	n := pieces.Len()
	ix := &Index{
		n:         n,
		bestMatch: make([][4][]Match, n),
	}
	ix.pairDiss[LR] = make([]float64, n*n)
	ix.pairDiss[TD] = make([]float64, n*n)

	if n < 2 {
		for id := 0; id < n; id++ {
			for side := Orientation(0); side < 4; side++ {
				ix.bestMatch[id][side] = []Match{}
			}
		}
		return ix
	}

	p := pool.New(workers, n)
	defer p.Close()

	buffers := make([][]bestMatchContribution, n-1)
	for i := 0; i < n-1; i++ {
		i := i
		p.Submit(func() {
			var local []bestMatchContribution
			for j := i + 1; j < n; j++ {
				a, b := pieces.Piece(i), pieces.Piece(j)

				dLR := Dissimilarity(a, b, LR)
				ix.pairDiss[LR][ix.cell(i, j)] = dLR
				local = append(local,
					bestMatchContribution{id: i, side: Right, m: Match{ID: j, Dissimilarity: dLR}},
					bestMatchContribution{id: j, side: Left, m: Match{ID: i, Dissimilarity: dLR}},
				)

				dLR2 := Dissimilarity(b, a, LR)
				ix.pairDiss[LR][ix.cell(j, i)] = dLR2
				local = append(local,
					bestMatchContribution{id: j, side: Right, m: Match{ID: i, Dissimilarity: dLR2}},
					bestMatchContribution{id: i, side: Left, m: Match{ID: j, Dissimilarity: dLR2}},
				)

				dTD := Dissimilarity(a, b, TD)
				ix.pairDiss[TD][ix.cell(i, j)] = dTD
				local = append(local,
					bestMatchContribution{id: i, side: Down, m: Match{ID: j, Dissimilarity: dTD}},
					bestMatchContribution{id: j, side: Top, m: Match{ID: i, Dissimilarity: dTD}},
				)

				dTD2 := Dissimilarity(b, a, TD)
				ix.pairDiss[TD][ix.cell(j, i)] = dTD2
				local = append(local,
					bestMatchContribution{id: j, side: Down, m: Match{ID: i, Dissimilarity: dTD2}},
					bestMatchContribution{id: i, side: Top, m: Match{ID: j, Dissimilarity: dTD2}},
				)
			}
			buffers[i] = local
		})
	}
	p.Wait()

	for _, buf := range buffers {
		for _, c := range buf {
			ix.bestMatch[c.id][c.side] = append(ix.bestMatch[c.id][c.side], c.m)
		}
	}

	for id := 0; id < n; id++ {
		for side := Orientation(0); side < 4; side++ {
			list := ix.bestMatch[id][side]
			sort.SliceStable(list, func(a, b int) bool {
				return list[a].Dissimilarity < list[b].Dissimilarity
			})
		}
	}

	return ix
}

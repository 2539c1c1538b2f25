// ABOUTME: Kernel-growth crossover: grows a child on an unbounded lattice
// ABOUTME: by gluing pieces on via shared-edge, buddy-edge, and best-match
// ABOUTME: agreement between two parents, then crops to the grid shape.

package solver

import (
	"container/heap"
	"math/rand/v2"

	"jigsaw-ga/compat"
)

const (
	sharedPriority = -10.0
	buddyPriority  = -1.0
)

type gridPos struct{ row, col int }

// candidate is one proposed (position, piece) pairing awaiting placement.
// source/side record how the proposal was derived so a stale candidate
// (its piece already placed elsewhere by the time it's popped) can be
// re-derived against the same frontier slot.
type candidate struct {
	priority float64
	pos      gridPos
	pieceID  int
	source   int
	side     compat.Orientation
}

type candidateQueue []candidate

func (q candidateQueue) Len() int { return len(q) }
func (q candidateQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	if q[i].pos.row != q[j].pos.row {
		return q[i].pos.row < q[j].pos.row
	}
	if q[i].pos.col != q[j].pos.col {
		return q[i].pos.col < q[j].pos.col
	}
	return q[i].pieceID < q[j].pieceID
}
func (q candidateQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *candidateQueue) Push(x any)   { *q = append(*q, x.(candidate)) }
func (q *candidateQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

type kernelGrowth struct {
	parents [2]Chromosome
	ix      *compat.Index
	rows    int
	columns int
	length  int
	rng     *rand.Rand
	kernel  map[int]gridPos
	taken   map[gridPos]bool
	queue   candidateQueue
	minRow  int
	maxRow  int
	minCol  int
	maxCol  int
}

// Crossover produces a child chromosome from two parents using the
// kernel-growth algorithm: seed from a random piece of parentA, then grow
// by repeatedly placing the highest-priority proposed neighbor (shared
// parental edge beats a mutual best-match "buddy" pair beats plain
// best-match dissimilarity), discarding stale proposals and re-deriving
// them against the current kernel state. If the candidate queue drains
// before every position is filled, the remaining grid positions are
// filled with the unused piece ids in ascending order.
func Crossover(parentA, parentB Chromosome, ix *compat.Index, rng *rand.Rand) (Chromosome, error) {
	kg := newKernelGrowth(parentA, parentB, ix, rng)
	kg.run()
	return kg.result()
}

func newKernelGrowth(parentA, parentB Chromosome, ix *compat.Index, rng *rand.Rand) *kernelGrowth {
	return &kernelGrowth{
		parents: [2]Chromosome{parentA, parentB},
		ix:      ix,
		rows:    parentA.rows,
		columns: parentA.columns,
		length:  len(parentA.genes),
		rng:     rng,
		kernel:  make(map[int]gridPos, len(parentA.genes)),
		taken:   make(map[gridPos]bool, len(parentA.genes)),
	}
}

func (kg *kernelGrowth) run() {
	kg.initializeKernel()

	for kg.queue.Len() > 0 {
		c := heap.Pop(&kg.queue).(candidate)

		if kg.taken[c.pos] {
			continue
		}
		if _, placed := kg.kernel[c.pieceID]; placed {
			kg.addCandidate(c.source, c.side, c.pos)
			continue
		}

		kg.putToKernel(c.pieceID, c.pos)
	}
}

func (kg *kernelGrowth) initializeKernel() {
	seed := kg.parents[0].genes[kg.rng.IntN(kg.length)]
	kg.putToKernel(seed, gridPos{0, 0})
}

func (kg *kernelGrowth) putToKernel(id int, pos gridPos) {
	kg.kernel[id] = pos
	kg.taken[pos] = true

	for _, b := range kg.availableBoundaries(pos) {
		kg.addCandidate(id, b.side, b.pos)
	}
}

type boundary struct {
	side compat.Orientation
	pos  gridPos
}

func (kg *kernelGrowth) availableBoundaries(pos gridPos) []boundary {
	if len(kg.kernel) == kg.length {
		return nil
	}

	neighbors := []boundary{
		{compat.Top, gridPos{pos.row - 1, pos.col}},
		{compat.Right, gridPos{pos.row, pos.col + 1}},
		{compat.Down, gridPos{pos.row + 1, pos.col}},
		{compat.Left, gridPos{pos.row, pos.col - 1}},
	}

	var out []boundary
	for _, n := range neighbors {
		if kg.taken[n.pos] || !kg.inRange(n.pos) {
			continue
		}
		kg.updateBoundingBox(n.pos)
		out = append(out, n)
	}
	return out
}

// inRange checks whether placing a piece at pos would keep the bounding
// box's span under the grid's row/column count, without committing the
// update yet.
func (kg *kernelGrowth) inRange(pos gridPos) bool {
	rowSpan := abs(min(kg.minRow, pos.row)) + abs(max(kg.maxRow, pos.row))
	colSpan := abs(min(kg.minCol, pos.col)) + abs(max(kg.maxCol, pos.col))
	return rowSpan < kg.rows && colSpan < kg.columns
}

func (kg *kernelGrowth) updateBoundingBox(pos gridPos) {
	kg.minRow = min(kg.minRow, pos.row)
	kg.maxRow = max(kg.maxRow, pos.row)
	kg.minCol = min(kg.minCol, pos.col)
	kg.maxCol = max(kg.maxCol, pos.col)
}

// addCandidate tries the three candidate-generation tiers in order —
// shared parental edge, buddy (mutual best-match) edge, then plain
// best-match — and pushes the first one that yields a valid (not yet
// placed) piece.
func (kg *kernelGrowth) addCandidate(source int, side compat.Orientation, pos gridPos) {
	if id, ok := kg.sharedEdge(source, side); ok && kg.isValid(id) {
		heap.Push(&kg.queue, candidate{priority: sharedPriority, pos: pos, pieceID: id, source: source, side: side})
		return
	}

	if id, ok := kg.buddyEdge(source, side); ok && kg.isValid(id) {
		heap.Push(&kg.queue, candidate{priority: buddyPriority, pos: pos, pieceID: id, source: source, side: side})
		return
	}

	if id, diss, ok := kg.bestMatch(source, side); ok {
		heap.Push(&kg.queue, candidate{priority: diss, pos: pos, pieceID: id, source: source, side: side})
		return
	}
}

func (kg *kernelGrowth) isValid(id int) bool {
	_, placed := kg.kernel[id]
	return !placed
}

// sharedEdge implements the shared-edge tier: if both parents agree on
// what piece sits at (source, side), that agreed piece is the candidate.
func (kg *kernelGrowth) sharedEdge(source int, side compat.Orientation) (int, bool) {
	idA, okA := kg.parents[0].Edge(source, side)
	idB, okB := kg.parents[1].Edge(source, side)
	if !okA || !okB || idA != idB {
		return 0, false
	}
	return idA, true
}

// buddyEdge implements the buddy-edge tier: source's best match on side,
// provided that match's best match on the complementary side points back
// to source, and at least one parent's actual edge agrees with it.
func (kg *kernelGrowth) buddyEdge(source int, side compat.Orientation) (int, bool) {
	sourceBest := kg.ix.BestMatch(source, side)
	if len(sourceBest) == 0 {
		return 0, false
	}
	firstBuddy := sourceBest[0].ID

	buddyBest := kg.ix.BestMatch(firstBuddy, side.Complement())
	if len(buddyBest) == 0 || buddyBest[0].ID != source {
		return 0, false
	}

	for _, parent := range kg.parents {
		if id, ok := parent.Edge(source, side); ok && id == firstBuddy {
			return firstBuddy, true
		}
	}
	return 0, false
}

// bestMatch implements the fallback tier: the first unplaced entry in
// source's best-match ranking for side.
func (kg *kernelGrowth) bestMatch(source int, side compat.Orientation) (int, float64, bool) {
	for _, m := range kg.ix.BestMatch(source, side) {
		if kg.isValid(m.ID) {
			return m.ID, m.Dissimilarity, true
		}
	}
	return 0, 0, false
}

// result crops the lattice to the grid's bounding box and fills any
// positions left unplaced when the queue drained early with the unused
// piece ids in ascending order.
func (kg *kernelGrowth) result() (Chromosome, error) {
	genes := make([]int, kg.length)
	placed := make([]bool, kg.length)

	for id, pos := range kg.kernel {
		idx := (pos.row-kg.minRow)*kg.columns + (pos.col - kg.minCol)
		genes[idx] = id
		placed[idx] = true
	}

	if len(kg.kernel) < kg.length {
		used := make([]bool, kg.length)
		for id := range kg.kernel {
			used[id] = true
		}
		var unused []int
		for id := 0; id < kg.length; id++ {
			if !used[id] {
				unused = append(unused, id)
			}
		}
		u := 0
		for idx := 0; idx < kg.length; idx++ {
			if !placed[idx] {
				genes[idx] = unused[u]
				u++
			}
		}
	}

	return New(genes, kg.rows, kg.columns)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

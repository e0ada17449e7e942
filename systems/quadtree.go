package systems

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// QuadTree partitions the temperature grid into leaf regions no larger than
// minCell on each edge. A step skips leaves whose cells and halo are settled
// air and diffuses the rest in parallel. Each leaf writes only its own cells
// of the scratch buffer and reads only the previous one, so results are
// identical to the flat step.
type QuadTree struct {
	minCell int
	leaves  []quadLeaf

	skipped int // leaves skipped in the last step
}

type quadLeaf struct {
	x0, y0, x1, y1 int
}

// NewQuadTree builds the leaf set for a w×h grid.
func NewQuadTree(w, h, minCell int) *QuadTree {
	if minCell < 1 {
		minCell = 1
	}
	q := &QuadTree{minCell: minCell}
	q.split(0, 0, w, h)
	return q
}

// split subdivides [x0,x1)×[y0,y1) into quadrants until both edges fit minCell.
func (q *QuadTree) split(x0, y0, x1, y1 int) {
	if x1 <= x0 || y1 <= y0 {
		return
	}
	if x1-x0 <= q.minCell && y1-y0 <= q.minCell {
		q.leaves = append(q.leaves, quadLeaf{x0, y0, x1, y1})
		return
	}
	mx, my := (x0+x1)/2, (y0+y1)/2
	if x1-x0 <= q.minCell {
		mx = x1
	}
	if y1-y0 <= q.minCell {
		my = y1
	}
	q.split(x0, y0, mx, my)
	q.split(mx, y0, x1, my)
	q.split(x0, my, mx, y1)
	q.split(mx, my, x1, y1)
}

// Leaves returns the number of leaf regions.
func (q *QuadTree) Leaves() int {
	return len(q.leaves)
}

// Skipped returns the number of leaves skipped by the last step.
func (q *QuadTree) Skipped() int {
	return q.skipped
}

// Step writes the next state of f into its scratch buffer.
func (q *QuadTree) Step(f *TemperatureField) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	q.skipped = 0
	for _, l := range q.leaves {
		if f.settled(l.x0, l.y0, l.x1, l.y1) {
			q.skipped++
			f.copyRect(l.x0, l.y0, l.x1, l.y1)
			continue
		}
		g.Go(func() error {
			f.stepRect(l.x0, l.y0, l.x1, l.y1)
			return nil
		})
	}
	return g.Wait()
}

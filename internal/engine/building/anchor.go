package building

import (
	"container/heap"
	"fmt"
	gomath "math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// AnchorMode selects how a feature's representative point is chosen.
type AnchorMode int

const (
	// AnchorPolylabel uses the pole of inaccessibility.
	AnchorPolylabel AnchorMode = iota
	// AnchorBounds uses the center of the outer ring's bounding box.
	AnchorBounds
)

// ParseAnchorMode parses "polylabel" or "bounds".
func ParseAnchorMode(s string) (AnchorMode, error) {
	switch s {
	case "", "polylabel":
		return AnchorPolylabel, nil
	case "bounds":
		return AnchorBounds, nil
	}
	return AnchorPolylabel, fmt.Errorf("unknown anchor mode %q", s)
}

func (m AnchorMode) String() string {
	if m == AnchorBounds {
		return "bounds"
	}
	return "polylabel"
}

// Anchor returns the representative point of the polygon for the mode.
func (m AnchorMode) Anchor(rings []orb.Ring) orb.Point {
	if m == AnchorBounds {
		return BoundsCenter(rings)
	}
	return Polylabel(rings, 0)
}

// BoundsCenter returns the center of the outer ring's bounding box.
func BoundsCenter(rings []orb.Ring) orb.Point {
	if len(rings) == 0 || len(rings[0]) == 0 {
		return orb.Point{}
	}
	return rings[0].Bound().Center()
}

// Polylabel finds the point inside the polygon farthest from its edges
// (the pole of inaccessibility) to within precision. A non-positive
// precision uses 0.1% of the longer bounding box side.
//
// The search stops after maxCells cells and returns the best point found
// so far, which is never worse than the bounds center or the centroid.
func Polylabel(rings []orb.Ring, precision float64) orb.Point {
	if len(rings) == 0 || len(rings[0]) == 0 {
		return orb.Point{}
	}

	poly := orb.Polygon(rings)
	b := rings[0].Bound()
	w, h := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	if w == 0 || h == 0 {
		return b.Min
	}
	long := gomath.Max(w, h)
	if precision <= 0 {
		precision = long / 1000
	}

	// Slivers get at most seedCells cells along the long side.
	size := gomath.Max(gomath.Min(w, h), long/seedCells)
	half := size / 2
	q := &cellQueue{}
	for x := b.Min[0]; x < b.Max[0]; x += size {
		for y := b.Min[1]; y < b.Max[1]; y += size {
			heap.Push(q, newCell(orb.Point{x + half, y + half}, half, poly))
		}
	}

	best := centroidCell(poly)
	if c := newCell(b.Center(), 0, poly); c.d > best.d {
		best = c
	}

	for n := 0; q.Len() > 0 && n < maxCells; n++ {
		c := heap.Pop(q).(cell)
		if c.d > best.d {
			best = c
		}

		// Nothing better can be found inside this cell.
		if c.max-best.d <= precision {
			continue
		}

		h := c.h / 2
		heap.Push(q, newCell(orb.Point{c.p[0] - h, c.p[1] - h}, h, poly))
		heap.Push(q, newCell(orb.Point{c.p[0] + h, c.p[1] - h}, h, poly))
		heap.Push(q, newCell(orb.Point{c.p[0] - h, c.p[1] + h}, h, poly))
		heap.Push(q, newCell(orb.Point{c.p[0] + h, c.p[1] + h}, h, poly))
	}
	return best.p
}

const (
	seedCells = 16
	maxCells  = 10000
)

// cell is a square search region centered on p with half size h.
type cell struct {
	p   orb.Point
	h   float64
	d   float64 // signed distance from p to the polygon outline
	max float64 // best distance achievable inside the cell
}

func newCell(p orb.Point, h float64, poly orb.Polygon) cell {
	d := signedDistance(p, poly)
	return cell{p: p, h: h, d: d, max: d + h*gomath.Sqrt2}
}

func centroidCell(poly orb.Polygon) cell {
	c, area := planar.CentroidArea(poly)
	if area == 0 {
		c = poly[0][0]
	}
	return newCell(c, 0, poly)
}

// signedDistance is positive inside the polygon and negative outside.
func signedDistance(p orb.Point, poly orb.Polygon) float64 {
	minSq := gomath.Inf(1)
	for _, r := range poly {
		for i := range r {
			a := r[i]
			b := r[(i+1)%len(r)]
			minSq = gomath.Min(minSq, planar.DistanceFromSegmentSquared(a, b, p))
		}
	}

	d := gomath.Sqrt(minSq)
	if !planar.PolygonContains(poly, p) {
		d = -d
	}
	return d
}

// cellQueue is a max-heap of cells ordered by their potential.
type cellQueue []cell

func (q cellQueue) Len() int           { return len(q) }
func (q cellQueue) Less(i, j int) bool { return q[i].max > q[j].max }
func (q cellQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *cellQueue) Push(x any) { *q = append(*q, x.(cell)) }

func (q *cellQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}

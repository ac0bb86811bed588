package renderer

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// minExtent keeps R-tree rectangles non-degenerate and makes boxes that only
// touch the query region show up as candidates.
const minExtent = 1e-9

// indexedMesh wraps a mesh slot for R-tree storage.
type indexedMesh struct {
	slot int
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (m *indexedMesh) Bounds() rtreego.Rect {
	return m.rect
}

// meshIndex is an R-tree over mesh bounds.
type meshIndex struct {
	tree *rtreego.Rtree
}

func newMeshIndex() *meshIndex {
	return &meshIndex{tree: rtreego.NewTree(2, 25, 50)}
}

func toRect(b orb.Bound, pad float64) (rtreego.Rect, error) {
	point := rtreego.Point{b.Min[0] - pad, b.Min[1] - pad}
	lengths := []float64{
		max(b.Max[0]-b.Min[0]+2*pad, minExtent),
		max(b.Max[1]-b.Min[1]+2*pad, minExtent),
	}
	return rtreego.NewRect(point, lengths)
}

func (x *meshIndex) insert(slot int, b orb.Bound) error {
	rect, err := toRect(b, 0)
	if err != nil {
		return err
	}
	x.tree.Insert(&indexedMesh{slot: slot, rect: rect})
	return nil
}

// search returns the slots of meshes that may overlap b, in insertion order.
func (x *meshIndex) search(b orb.Bound) []int {
	query, err := toRect(b, minExtent)
	if err != nil {
		return nil
	}

	found := x.tree.SearchIntersect(query)
	slots := make([]int, 0, len(found))
	for _, s := range found {
		slots = append(slots, s.(*indexedMesh).slot)
	}
	sort.Ints(slots)
	return slots
}

func (x *meshIndex) size() int {
	return x.tree.Size()
}

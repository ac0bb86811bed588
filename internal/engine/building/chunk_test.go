package building

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/paulmach/orb"
)

// square returns a part with a two-triangle roof of half size r around the
// anchor and, if height > 0, four walls.
func square(anchor orb.Point, r, height float64) Part {
	ring := orb.Ring{{-r, -r}, {r, -r}, {r, r}, {-r, r}}
	coords := []float64{-r, -r, r, -r, r, r, -r, r}
	p := Part{
		Anchor: anchor,
		Bounds: orb.Bound{
			Min: orb.Point{anchor[0] - r, anchor[1] - r},
			Max: orb.Point{anchor[0] + r, anchor[1] + r},
		},
		Color: [3]float32{0.5, 0.5, 0.5},
	}
	p.Roof, p.RoofIndices = roofGeometry(coords, []int{2, 3, 0, 0, 1, 2}, height, p.Color)
	if height > 0 {
		p.Walls, p.WallIndices = wallGeometry(Extrude(ring, height), p.Color)
	}
	return p
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		p    orb.Point
		want ChunkKey
	}{
		{orb.Point{0.5, 0.5}, ChunkKey{0, 0}},
		{orb.Point{1, 1}, ChunkKey{1, 1}},
		{orb.Point{-0.5, 2.5}, ChunkKey{-1, 2}},
		{orb.Point{-73.97, 44.73}, ChunkKey{-74, 44}},
	}
	for _, tt := range tests {
		if got := KeyFor(tt.p, 1); got != tt.want {
			t.Errorf("KeyFor(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestBatcherMergesCell(t *testing.T) {
	b := NewBatcher(10, LayoutPN, true)

	parts := []Part{
		square(orb.Point{2, 2}, 1, 0),
		square(orb.Point{5, 5}, 1, 3),
		square(orb.Point{8, 3}, 1, 0),
	}
	for i, p := range parts {
		if b.Add(p) {
			t.Errorf("part %d got a dedicated mesh", i)
		}
	}

	meshes := b.Finish()
	if len(meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(meshes))
	}
	m := meshes[0]

	if m.Position != (orb.Point{0, 0}) {
		t.Errorf("position = %v, want cell origin", m.Position)
	}
	if m.Features != 3 {
		t.Errorf("features = %d, want 3", m.Features)
	}
	wantBounds := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{9, 6}}
	if m.Bounds != wantBounds {
		t.Errorf("bounds = %v, want %v", m.Bounds, wantBounds)
	}

	// Three roofs first, then the walls of the second part.
	if m.Count2D != 18 {
		t.Errorf("count2D = %d, want 18", m.Count2D)
	}
	if m.Count3D != 18+24 {
		t.Errorf("count3D = %d, want 42", m.Count3D)
	}
	n := uint32(m.VertexCount())
	if n != 12+16 {
		t.Errorf("vertex count = %d, want 28", n)
	}
	for _, i := range m.Indices {
		if i >= n {
			t.Fatalf("index %d out of range (%d vertices)", i, n)
		}
	}
	for _, i := range m.Indices[m.Count2D:] {
		if i < 12 {
			t.Fatalf("wall index %d points into the roof block", i)
		}
	}
}

func TestBatcherBoundsOrderIndependent(t *testing.T) {
	parts := []Part{
		square(orb.Point{2, 2}, 1, 0),
		square(orb.Point{5, 7}, 0.5, 0),
		square(orb.Point{8, 3}, 1.5, 0),
	}
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	var want orb.Bound
	for k, perm := range perms {
		b := NewBatcher(10, LayoutPN, true)
		for _, i := range perm {
			b.Add(parts[i])
		}
		meshes := b.Finish()
		if len(meshes) != 1 {
			t.Fatalf("perm %v: got %d meshes", perm, len(meshes))
		}
		if k == 0 {
			want = meshes[0].Bounds
			continue
		}
		if meshes[0].Bounds != want {
			t.Errorf("perm %v: bounds %v, want %v", perm, meshes[0].Bounds, want)
		}
	}
}

func TestBatcherDedicated(t *testing.T) {
	b := NewBatcher(10, LayoutPN, true)

	b.Add(square(orb.Point{2, 2}, 1, 0))
	// Anchor in cell (0,0) but bounds reach into (1,0).
	big := square(orb.Point{8, 5}, 3, 2)
	if !b.Add(big) {
		t.Fatal("spanning part was merged")
	}
	b.Add(square(orb.Point{4, 4}, 1, 0))

	meshes := b.Finish()
	if len(meshes) != 2 {
		t.Fatalf("got %d meshes, want 2", len(meshes))
	}

	shared, own := meshes[0], meshes[1]
	if shared.Dedicated || shared.Features != 2 {
		t.Errorf("shared mesh: dedicated=%v features=%d", shared.Dedicated, shared.Features)
	}
	if !own.Dedicated || own.Features != 1 {
		t.Errorf("dedicated mesh: dedicated=%v features=%d", own.Dedicated, own.Features)
	}
	if own.Position != big.Anchor {
		t.Errorf("dedicated position = %v, want %v", own.Position, big.Anchor)
	}
	if own.Bounds != big.Bounds {
		t.Errorf("dedicated bounds = %v, want %v", own.Bounds, big.Bounds)
	}
}

func TestBatcherWithoutMerging(t *testing.T) {
	b := NewBatcher(10, LayoutPN, false)
	b.Add(square(orb.Point{2, 2}, 1, 0))
	b.Add(square(orb.Point{3, 3}, 1, 0))

	meshes := b.Finish()
	if len(meshes) != 2 {
		t.Fatalf("got %d meshes, want 2", len(meshes))
	}
	if b.Len() != 0 {
		t.Errorf("batcher not reset after Finish")
	}
}

func TestFinalizeInterleave(t *testing.T) {
	p := Part{
		Anchor: orb.Point{12, 13},
		Bounds: orb.Bound{Min: orb.Point{12, 13}, Max: orb.Point{13, 14}},
		Color:  [3]float32{0.1, 0.2, 0.3},
	}
	p.Roof, p.RoofIndices = roofGeometry([]float64{0, 0, 1, 0, 1, 1}, []int{0, 1, 2}, 0, p.Color)

	mb := newMeshBuilder(ChunkKey{1, 1}, orb.Point{10, 10}, p)
	mb.add(p)

	t.Run("position normal", func(t *testing.T) {
		m := mb.finalize(LayoutPN)
		want := []float32{
			2, 3, 0, 0, 0, 1,
			3, 3, 0, 0, 0, 1,
			3, 4, 0, 0, 0, 1,
		}
		if diff := cmp.Diff(want, m.Vertices, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
			t.Errorf("vertices mismatch (-want +got):\n%s", diff)
		}
		if m.Albedo != p.Color {
			t.Errorf("albedo = %v, want %v", m.Albedo, p.Color)
		}
	})

	t.Run("with color", func(t *testing.T) {
		m := mb.finalize(LayoutPNC)
		if m.Layout.Stride() != 9 || len(m.Vertices) != 27 {
			t.Fatalf("got %d floats with stride %d", len(m.Vertices), m.Layout.Stride())
		}
		if diff := cmp.Diff([]float32{0.1, 0.2, 0.3}, m.Vertices[6:9], cmpopts.EquateApprox(0, 1e-6)); diff != "" {
			t.Errorf("color mismatch (-want +got):\n%s", diff)
		}
		if m.Albedo != [3]float32{1, 1, 1} {
			t.Errorf("albedo = %v, want white", m.Albedo)
		}
	})
}

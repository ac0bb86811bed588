package building

import (
	gomath "math"
	"testing"

	"github.com/paulmach/orb"
)

func TestExtrude(t *testing.T) {
	square := orb.Ring{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}
	clockwise := orb.Ring{{-1, -1}, {-1, 1}, {1, 1}, {1, -1}, {-1, -1}}

	tests := []struct {
		name  string
		ring  orb.Ring
		walls int
	}{
		{"closed square", square, 4},
		{"open square", square[:4], 4},
		{"clockwise square", clockwise, 4},
		{"repeated vertex", orb.Ring{{0, 0}, {0, 0}, {1, 0}, {1, 1}}, 3},
		{"two points", orb.Ring{{0, 0}, {1, 0}}, 2},
		{"single point", orb.Ring{{0, 0}}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walls := Extrude(tt.ring, 2.5)
			if len(walls) != tt.walls {
				t.Fatalf("got %d walls, want %d", len(walls), tt.walls)
			}
			for i, w := range walls {
				n := w.Normal
				length := gomath.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
				if gomath.Abs(length-1) > 1e-6 {
					t.Errorf("wall %d: |normal| = %v, want 1", i, length)
				}
				if n[2] != 0 {
					t.Errorf("wall %d: normal not horizontal: %v", i, n)
				}

				c := w.Corners
				if c[0][2] != 0 || c[1][2] != 0 || c[2][2] != 2.5 || c[3][2] != 2.5 {
					t.Errorf("wall %d: unexpected heights %v", i, c)
				}
				if c[0][0] != c[3][0] || c[0][1] != c[3][1] || c[1][0] != c[2][0] || c[1][1] != c[2][1] {
					t.Errorf("wall %d: top corners do not sit above bottom corners: %v", i, c)
				}
			}
		})
	}
}

func TestExtrudeNormalsPointOutward(t *testing.T) {
	rings := map[string]orb.Ring{
		"ccw": {{-1, -1}, {1, -1}, {1, 1}, {-1, 1}},
		"cw":  {{-1, -1}, {-1, 1}, {1, 1}, {1, -1}},
	}

	for name, ring := range rings {
		for i, w := range Extrude(ring, 1) {
			// Square centered on the origin: the edge midpoint is the
			// outward direction.
			mx := (w.Corners[0][0] + w.Corners[1][0]) / 2
			my := (w.Corners[0][1] + w.Corners[1][1]) / 2
			if mx*w.Normal[0]+my*w.Normal[1] <= 0 {
				t.Errorf("%s wall %d: normal %v points inward", name, i, w.Normal)
			}
		}
	}
}

func TestWallGeometry(t *testing.T) {
	walls := Extrude(orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, 1)
	vertices, indices := wallGeometry(walls, [3]float32{1, 0, 0})

	if len(vertices) != 16 {
		t.Errorf("got %d vertices, want 16", len(vertices))
	}
	if len(indices) != 24 {
		t.Fatalf("got %d indices, want 24", len(indices))
	}
	for q := 0; q < 4; q++ {
		base := uint32(q * 4)
		want := []uint32{base, base + 1, base + 2, base, base + 2, base + 3}
		for k, i := range indices[q*6 : q*6+6] {
			if i != want[k] {
				t.Errorf("quad %d index %d = %d, want %d", q, k, i, want[k])
			}
		}
		for k := 1; k < 4; k++ {
			if vertices[q*4+k].Normal != vertices[q*4].Normal {
				t.Errorf("quad %d is not flat shaded", q)
			}
		}
	}
}

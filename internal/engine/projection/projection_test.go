package projection

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestMercator(t *testing.T) {
	tests := []struct {
		name string
		in   orb.Point
		want orb.Point
	}{
		{"equator", orb.Point{10, 0}, orb.Point{10, 0}},
		{"manhattan", orb.Point{-73.97, 40.78}, orb.Point{-73.97, 44.7356}},
		{"south", orb.Point{0, -40.78}, orb.Point{0, -44.7356}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mercator(tt.in)
			if got[0] != tt.want[0] {
				t.Errorf("x = %v, want %v", got[0], tt.want[0])
			}
			if math.Abs(got[1]-tt.want[1]) > 1e-3 {
				t.Errorf("y = %v, want %v", got[1], tt.want[1])
			}
		})
	}
}

func TestMercatorMonotonic(t *testing.T) {
	prev := math.Inf(-1)
	for lat := -85.0; lat <= 85; lat += 0.5 {
		y := Mercator(orb.Point{0, lat})[1]
		if y <= prev {
			t.Fatalf("projection not increasing at lat %v", lat)
		}
		prev = y
	}
}

func TestProjectRingRejectsPoles(t *testing.T) {
	tests := []struct {
		name string
		ring orb.Ring
		bad  int
	}{
		{"north pole", orb.Ring{{0, 10}, {0, 90}, {1, 10}}, 1},
		{"south pole", orb.Ring{{0, -90}, {1, 10}}, 0},
		{"beyond", orb.Ring{{0, 0}, {1, 1}, {2, 95}}, 2},
		{"nan", orb.Ring{{math.NaN(), 0}}, 0},
		{"infinite longitude", orb.Ring{{0, 0}, {math.Inf(1), 0}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProjectRing(tt.ring, 3)
			var de *DomainError
			if !errors.As(err, &de) {
				t.Fatalf("expected DomainError, got %v", err)
			}
			if de.Ring != 3 || de.Vertex != tt.bad {
				t.Errorf("error at ring %d vertex %d, want ring 3 vertex %d", de.Ring, de.Vertex, tt.bad)
			}
		})
	}
}

func TestValidLongitudeUnbounded(t *testing.T) {
	tests := []struct {
		in   orb.Point
		want bool
	}{
		{orb.Point{200, 40}, true},
		{orb.Point{-540, -10}, true},
		{orb.Point{200, 90}, false},
		{orb.Point{0, -89.9999}, true},
		{orb.Point{0, math.NaN()}, false},
	}
	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Errorf("Valid(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	ring, err := ProjectRing(orb.Ring{{200, 0}, {201, 0}, {201, 1}}, 0)
	if err != nil {
		t.Fatalf("ProjectRing: %v", err)
	}
	if ring[0][0] != 200 {
		t.Errorf("x = %v, want longitude 200 unchanged", ring[0][0])
	}
}

func TestProjectPolygon(t *testing.T) {
	rings := []orb.Ring{
		{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}},
		{{0.5, 0.5}, {0.5, 1}, {1, 1}, {0.5, 0.5}},
	}
	out, err := ProjectPolygon(rings)
	if err != nil {
		t.Fatalf("ProjectPolygon: %v", err)
	}
	if len(out) != 2 || len(out[0]) != 5 || len(out[1]) != 4 {
		t.Fatalf("ring structure not preserved: %v", out)
	}
	for i, r := range out {
		for j, p := range r {
			if p[0] != rings[i][j][0] {
				t.Errorf("ring %d vertex %d: x changed", i, j)
			}
		}
	}

	rings[1][2] = orb.Point{1, 90}
	if _, err := ProjectPolygon(rings); err == nil {
		t.Error("expected hole at the pole to reject the polygon")
	}
}

package building

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"

	"github.com/Faultbox/citymesh/pkg/feature"
)

func TestParseColoring(t *testing.T) {
	tests := []struct {
		opts    ColoringOptions
		want    string
		wantErr bool
	}{
		{ColoringOptions{}, "building.Flat", false},
		{ColoringOptions{Strategy: "flat", Color: "#ff0000"}, "building.Flat", false},
		{ColoringOptions{Strategy: "floors"}, "building.ByFloors", false},
		{ColoringOptions{Strategy: "noise", Seed: 7}, "building.Noise", false},
		{ColoringOptions{Strategy: "flat", Color: "red"}, "", true},
		{ColoringOptions{Strategy: "floors", High: "#12"}, "", true},
		{ColoringOptions{Strategy: "rainbow"}, "", true},
	}

	for _, tt := range tests {
		c, err := ParseColoring(tt.opts)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseColoring(%+v): expected error", tt.opts)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseColoring(%+v): %v", tt.opts, err)
			continue
		}
		if got := typeName(c); got != tt.want {
			t.Errorf("ParseColoring(%+v) = %s, want %s", tt.opts, got, tt.want)
		}
	}
}

func typeName(c Coloring) string {
	switch c.(type) {
	case Flat:
		return "building.Flat"
	case ByFloors:
		return "building.ByFloors"
	case Noise:
		return "building.Noise"
	}
	return "unknown"
}

func TestByFloors(t *testing.T) {
	low := colorful.Color{R: 1, G: 1, B: 1}
	high := colorful.Color{R: 0, G: 0, B: 0}
	c := ByFloors{Low: low, High: high, MaxFloors: 10, Attribute: "numfloors"}

	tests := []struct {
		floors any
		want   [3]float32
	}{
		{0, rgb(low)},
		{nil, rgb(low)},
		{10, rgb(high)},
		{40, rgb(high)},
		{"-3", rgb(low)},
	}
	for _, tt := range tests {
		f := feature.Feature{Attributes: map[string]any{"numfloors": tt.floors}}
		got := c.Color(&f, orb.Point{})
		for i := range got {
			if d := got[i] - tt.want[i]; d > 1e-3 || d < -1e-3 {
				t.Errorf("floors %v: color = %v, want %v", tt.floors, got, tt.want)
				break
			}
		}
	}
}

func TestNoiseDeterministic(t *testing.T) {
	c := Noise{Seed: 42, Saturation: 0.35, Lightness: 0.7}
	f := feature.Feature{}

	a := c.Color(&f, orb.Point{-73.97, 44.73})
	b := c.Color(&f, orb.Point{-73.97, 44.73})
	if a != b {
		t.Errorf("same anchor gave %v and %v", a, b)
	}

	distinct := map[[3]float32]bool{}
	for i := 0; i < 16; i++ {
		distinct[c.Color(&f, orb.Point{float64(i) * 0.001, 0})] = true
	}
	if len(distinct) < 8 {
		t.Errorf("only %d distinct colors for 16 anchors", len(distinct))
	}

	for _, v := range a {
		if v < 0 || v > 1 {
			t.Errorf("component %v out of range", v)
		}
	}
}

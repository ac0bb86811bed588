package building

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	gomath "math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"

	"github.com/Faultbox/citymesh/pkg/feature"
)

// Coloring assigns an albedo to a feature. Implementations must be pure:
// the same feature and anchor always give the same color.
type Coloring interface {
	Color(f *feature.Feature, anchor orb.Point) [3]float32
}

// ColoringOptions configures a coloring strategy.
type ColoringOptions struct {
	Strategy  string // flat, floors or noise
	Color     string // flat color, hex
	Low       string // floors gradient start, hex
	High      string // floors gradient end, hex
	MaxFloors float64
	Attribute string // floors attribute name
	Seed      uint64
}

// Flat gives every feature the same color.
type Flat struct {
	Albedo colorful.Color
}

func (c Flat) Color(*feature.Feature, orb.Point) [3]float32 {
	return rgb(c.Albedo)
}

// ByFloors blends from Low to High in HCL space by floor count.
type ByFloors struct {
	Low, High colorful.Color
	MaxFloors float64
	Attribute string
}

func (c ByFloors) Color(f *feature.Feature, _ orb.Point) [3]float32 {
	floors, _ := f.Number(c.Attribute)
	t := 0.0
	if c.MaxFloors > 0 {
		t = gomath.Max(0, gomath.Min(floors/c.MaxFloors, 1))
	}
	return rgb(c.Low.BlendHcl(c.High, t).Clamped())
}

// Noise picks a hue by hashing the anchor, so neighbouring buildings get
// distinct but stable colors.
type Noise struct {
	Seed       uint64
	Saturation float64
	Lightness  float64
}

func (c Noise) Color(_ *feature.Feature, anchor orb.Point) [3]float32 {
	h := fnv.New64a()
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], c.Seed)
	binary.LittleEndian.PutUint64(buf[8:], gomath.Float64bits(anchor[0]))
	binary.LittleEndian.PutUint64(buf[16:], gomath.Float64bits(anchor[1]))
	_, _ = h.Write(buf[:])

	hue := float64(h.Sum64()%3600) / 10
	return rgb(colorful.Hsl(hue, c.Saturation, c.Lightness).Clamped())
}

// DefaultColor is the flat albedo used when nothing else is configured.
var DefaultColor = colorful.Color{R: 0.82, G: 0.80, B: 0.76}

// ParseColoring builds the strategy described by opts.
func ParseColoring(opts ColoringOptions) (Coloring, error) {
	switch opts.Strategy {
	case "", "flat":
		c, err := parseHex(opts.Color, DefaultColor)
		if err != nil {
			return nil, fmt.Errorf("flat color: %w", err)
		}
		return Flat{Albedo: c}, nil

	case "floors":
		low, err := parseHex(opts.Low, colorful.Color{R: 0.95, G: 0.90, B: 0.75})
		if err != nil {
			return nil, fmt.Errorf("floors low color: %w", err)
		}
		high, err := parseHex(opts.High, colorful.Color{R: 0.25, G: 0.30, B: 0.55})
		if err != nil {
			return nil, fmt.Errorf("floors high color: %w", err)
		}
		maxFloors := opts.MaxFloors
		if maxFloors <= 0 {
			maxFloors = 50
		}
		return ByFloors{Low: low, High: high, MaxFloors: maxFloors, Attribute: opts.Attribute}, nil

	case "noise":
		return Noise{Seed: opts.Seed, Saturation: 0.35, Lightness: 0.7}, nil
	}
	return nil, fmt.Errorf("unknown coloring strategy %q", opts.Strategy)
}

func parseHex(s string, fallback colorful.Color) (colorful.Color, error) {
	if s == "" {
		return fallback, nil
	}
	return colorful.Hex(s)
}

func rgb(c colorful.Color) [3]float32 {
	return [3]float32{float32(c.R), float32(c.G), float32(c.B)}
}

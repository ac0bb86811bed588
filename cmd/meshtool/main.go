// meshtool is a CLI utility for inspecting footprint datasets and the
// meshes built from them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"

	"github.com/Faultbox/citymesh/internal/engine/building"
	"github.com/Faultbox/citymesh/internal/engine/camera"
	"github.com/Faultbox/citymesh/internal/engine/debug"
	"github.com/Faultbox/citymesh/internal/engine/projection"
	"github.com/Faultbox/citymesh/internal/engine/renderer"
	"github.com/Faultbox/citymesh/internal/termview"
	"github.com/Faultbox/citymesh/pkg/feature"
)

var (
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Width(14)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D97706"))
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "build":
		err = cmdBuild(args)
	case "chunks":
		err = cmdChunks(args)
	case "render":
		err = cmdRender(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - building footprint mesh utility

Usage:
  meshtool <command> [options] <file>

Commands:
  info <file.geojson>      Show dataset information
  build <file.geojson>     Run the meshing pipeline and print statistics
  chunks <file.geojson>    List the meshes produced by batching
  render <file.geojson>    Rasterize one frame to a PNG without a GPU

Options (build, chunks, render):
  -cell <size>             Batching cell size in projected units
  -anchor <mode>           Representative point: polylabel or bounds
  -no-batch                Give every feature its own mesh
  -v                       Print every skipped feature (build)
  -n <count>               Limit the listing (chunks)
  -o <file.png>            Output image (render)
  -size <w>x<h>            Image size in pixels (render)
  -3d                      Render the perspective view (render)
  -wireframe               Draw triangle edges only (render)

Examples:
  meshtool info manhattan.geojson
  meshtool build -cell 0.005 manhattan.geojson
  meshtool chunks -n 20 manhattan.geojson
  meshtool render -3d -o skyline.png manhattan.geojson`)
}

func row(label string, value any) {
	fmt.Println(labelStyle.Render(label) + fmt.Sprint(value))
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	attr := fs.String("attr", "numfloors", "Floor count attribute")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: meshtool info <file.geojson>")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	features, dropped, err := feature.DecodeGeoJSON(data)
	if err != nil {
		return err
	}

	var (
		bound      orb.Bound
		rings      int
		holes      int
		vertices   int
		invalid    int
		withFloors int
		maxFloors  float64
		keys       = make(map[string]int)
	)
	for i := range features {
		f := &features[i]
		rings += len(f.Rings)
		if len(f.Rings) > 1 {
			holes += len(f.Rings) - 1
		}
		vertices += f.VertexCount()

		for _, p := range f.Outer() {
			if !projection.Valid(p) {
				invalid++
				break
			}
		}
		b := f.Outer().Bound()
		if i == 0 {
			bound = b
		} else {
			bound = bound.Union(b)
		}

		if n, ok := f.Number(*attr); ok {
			withFloors++
			maxFloors = max(maxFloors, n)
		}
		for k := range f.Attributes {
			keys[k]++
		}
	}

	fmt.Println(headingStyle.Render(filepath.Base(path)))
	row("Features", len(features))
	row("Dropped", fmt.Sprintf("%d (not polygons)", dropped))
	row("Rings", fmt.Sprintf("%d (%d holes)", rings, holes))
	row("Vertices", vertices)
	row("Bounds", fmt.Sprintf("[%.6f, %.6f] - [%.6f, %.6f]", bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]))
	row("Floors", fmt.Sprintf("%d with %q, max %.0f", withFloors, *attr, maxFloors))
	if invalid > 0 {
		row("Invalid", warnStyle.Render(fmt.Sprintf("%d outside the projection domain", invalid)))
	}

	if len(keys) > 0 {
		fmt.Println()
		fmt.Println(headingStyle.Render("Attributes"))
		names := make([]string, 0, len(keys))
		for k := range keys {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			row(k, keys[k])
		}
	}
	return nil
}

// pipelineFlags registers the meshing options shared by build and chunks.
func pipelineFlags(fs *flag.FlagSet) func() (building.Options, error) {
	def := building.DefaultOptions()
	cell := fs.Float64("cell", def.CellSize, "Batching cell size")
	anchor := fs.String("anchor", def.Anchor.String(), "Representative point: polylabel or bounds")
	noBatch := fs.Bool("no-batch", false, "Disable batching")

	return func() (building.Options, error) {
		opts := def
		mode, err := building.ParseAnchorMode(*anchor)
		if err != nil {
			return opts, err
		}
		if *cell <= 0 {
			return opts, fmt.Errorf("cell size must be positive, got %g", *cell)
		}
		opts.Anchor = mode
		opts.CellSize = *cell
		opts.Batching = !*noBatch
		return opts, nil
	}
}

func load(path string, opts building.Options) (building.Result, error) {
	features, err := feature.FileSource{Path: path}.Fetch(context.Background())
	if err != nil {
		return building.Result{}, err
	}
	return building.Build(features, opts), nil
}

func cmdBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	options := pipelineFlags(fs)
	verbose := fs.Bool("v", false, "Print skipped features")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: meshtool build [options] <file.geojson>")
	}
	opts, err := options()
	if err != nil {
		return err
	}

	res, err := load(fs.Arg(0), opts)
	if err != nil {
		return err
	}

	s := res.Stats
	fmt.Println(headingStyle.Render(filepath.Base(fs.Arg(0))))
	row("Features", s.Features)
	row("Meshed", s.Meshed)
	row("Skipped", fmt.Sprintf("%d (%d projection, %d degenerate)", s.Skipped(), s.Projection, s.Degenerate))
	row("Meshes", fmt.Sprintf("%d (%d chunks, %d dedicated)", s.Meshes, s.Chunks, s.Dedicated))
	row("Vertices", s.Vertices)
	row("Indices", s.Indices)
	row("Center", fmt.Sprintf("%.6f, %.6f", res.Center[0], res.Center[1]))

	if *verbose && len(res.Errors) > 0 {
		fmt.Println()
		fmt.Println(headingStyle.Render("Skipped features"))
		for _, e := range res.Errors {
			fmt.Println(warnStyle.Render("  " + e.Error()))
		}
	}
	return nil
}

func cmdChunks(args []string) error {
	fs := flag.NewFlagSet("chunks", flag.ExitOnError)
	options := pipelineFlags(fs)
	limit := fs.Int("n", 0, "Limit output to N meshes (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: meshtool chunks [options] <file.geojson>")
	}
	opts, err := options()
	if err != nil {
		return err
	}

	res, err := load(fs.Arg(0), opts)
	if err != nil {
		return err
	}

	meshes := res.Meshes
	sort.SliceStable(meshes, func(i, j int) bool {
		return meshes[i].VertexCount() > meshes[j].VertexCount()
	})
	if *limit > 0 && len(meshes) > *limit {
		meshes = meshes[:*limit]
	}

	header := fmt.Sprintf("%-16s %-9s %8s %9s %9s  %s", "CHUNK", "KIND", "FEATURES", "VERTICES", "INDICES", "SIZE")
	fmt.Println(headingStyle.Render(header))
	for i := range meshes {
		m := &meshes[i]
		kind := "chunk"
		if m.Dedicated {
			kind = "dedicated"
		}
		size := fmt.Sprintf("%.5f x %.5f", m.Bounds.Max[0]-m.Bounds.Min[0], m.Bounds.Max[1]-m.Bounds.Min[1])
		fmt.Printf("%-16s %-9s %8d %9d %9d  %s\n",
			m.Chunk, kind, m.Features, m.VertexCount(), len(m.Indices), size)
	}

	fmt.Println()
	fmt.Println(labelStyle.Render("Listed") + fmt.Sprintf("%d of %d meshes", len(meshes), len(res.Meshes)))
	return nil
}

func cmdRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	options := pipelineFlags(fs)
	output := fs.String("o", "frame.png", "Output PNG file")
	size := fs.String("size", "800x600", "Image size in pixels")
	is3D := fs.Bool("3d", false, "Render the perspective view")
	wireframe := fs.Bool("wireframe", false, "Draw triangle edges only")
	culling := fs.String("cull", renderer.CullLinear.String(), "Culling: linear or rtree")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: meshtool render [options] <file.geojson>")
	}
	opts, err := options()
	if err != nil {
		return err
	}
	var width, height int
	if _, err := fmt.Sscanf(*size, "%dx%d", &width, &height); err != nil || width <= 0 || height <= 1 {
		return fmt.Errorf("invalid size %q", *size)
	}
	cull, err := renderer.ParseCullMode(*culling)
	if err != nil {
		return err
	}

	res, err := load(fs.Arg(0), opts)
	if err != nil {
		return err
	}
	if len(res.Meshes) == 0 {
		return errors.New("no meshes to render")
	}

	// Each canvas cell holds two pixel rows.
	canvas := termview.NewCanvas(width, height/2, colorful.Color{R: 0.9, G: 0.9, B: 0.9})
	pw, ph := canvas.PixelSize()

	limits := camera.Limits{MinScale: 1e-12, MaxScale: 1e6}
	vp := camera.NewViewport(pw, ph, 1, limits)
	vp.SetCenter(res.Center)
	b := res.Bounds
	vp.SetScale(max((b.Max[0]-b.Min[0])/float64(pw), (b.Max[1]-b.Min[1])/float64(ph)) * 1.1)
	if *is3D {
		vp.SetMode(camera.Mode3D)
	}
	vp.SetWireframe(*wireframe)

	r := renderer.New(canvas, vp, renderer.Options{Culling: cull})
	if _, errs := r.AddMeshes(res.Meshes); len(errs) > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("%d meshes not uploaded", len(errs))))
	}
	stats, _ := r.Frame()

	if err := debug.WritePNG(*output, canvas.Image()); err != nil {
		return err
	}

	fmt.Println(headingStyle.Render(filepath.Base(*output)))
	row("Size", fmt.Sprintf("%dx%d", pw, ph))
	row("Mode", stats.Mode)
	row("Drawn", fmt.Sprintf("%d of %d meshes (%d culled)", stats.Drawn, r.Len(), stats.Culled))
	row("Covered", fmt.Sprintf("%d pixels", canvas.Covered()))
	return nil
}

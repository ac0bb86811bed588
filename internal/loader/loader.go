// Package loader fetches features and meshes them off the render thread.
//
// The render loop polls the channel returned by Start once per frame, so
// the GPU upload happens on the thread that owns the GL context.
package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/citymesh/internal/engine/building"
	"github.com/Faultbox/citymesh/internal/logger"
	"github.com/Faultbox/citymesh/pkg/feature"
)

// Result is the outcome of a background load.
type Result struct {
	building.Result
	Err      error
	Fetch    time.Duration
	Meshing  time.Duration
	Features int
}

// Load fetches all features from src and meshes them.
func Load(ctx context.Context, src feature.Source, opts building.Options) (building.Result, error) {
	res := run(ctx, src, opts)
	return res.Result, res.Err
}

// Start runs Load in a goroutine. The returned channel receives exactly
// one Result and is then closed.
func Start(ctx context.Context, src feature.Source, opts building.Options) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		out <- run(ctx, src, opts)
	}()
	return out
}

// Poll returns the result if it is ready without blocking.
func Poll(ch <-chan Result) (Result, bool) {
	select {
	case res, ok := <-ch:
		return res, ok
	default:
		return Result{}, false
	}
}

func run(ctx context.Context, src feature.Source, opts building.Options) Result {
	log := logger.Named("loader")

	start := time.Now()
	features, err := src.Fetch(ctx)
	if err != nil {
		log.Error("fetching features failed", zap.Error(err))
		return Result{Err: fmt.Errorf("fetching features: %w", err)}
	}
	fetched := time.Since(start)

	if err := ctx.Err(); err != nil {
		return Result{Err: err, Fetch: fetched, Features: len(features)}
	}

	start = time.Now()
	built := building.Build(features, opts)
	meshing := time.Since(start)

	log.Info("dataset ready",
		zap.Int("features", len(features)),
		zap.Int("meshes", built.Stats.Meshes),
		zap.Int("skipped", built.Stats.Skipped()),
		zap.Duration("fetch", fetched),
		zap.Duration("meshing", meshing))

	return Result{
		Result:   built,
		Fetch:    fetched,
		Meshing:  meshing,
		Features: len(features),
	}
}

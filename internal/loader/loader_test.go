package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/Faultbox/citymesh/internal/engine/building"
	"github.com/Faultbox/citymesh/pkg/feature"
)

func square(id string, lon, lat float64) feature.Feature {
	const d = 0.0001
	return feature.Feature{
		ID: id,
		Rings: []orb.Ring{{
			{lon - d, lat - d}, {lon + d, lat - d}, {lon + d, lat + d}, {lon - d, lat + d}, {lon - d, lat - d},
		}},
		Attributes: map[string]any{"numfloors": 3.0},
	}
}

type failingSource struct{ err error }

func (s failingSource) Fetch(context.Context) ([]feature.Feature, error) { return nil, s.err }

func TestLoad(t *testing.T) {
	src := feature.SliceSource{square("a", -73.97, 40.78), square("b", -73.9702, 40.7801)}

	res, err := Load(context.Background(), src, building.DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Stats.Features != 2 || res.Stats.Meshed != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if len(res.Meshes) == 0 {
		t.Error("no meshes built")
	}
}

func TestLoadFetchError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Load(context.Background(), failingSource{boom}, building.DefaultOptions())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, feature.SliceSource{square("a", 0, 0)}, building.DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestStartDeliversOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "city.geojson")
	data := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"numfloors":4},
		 "geometry":{"type":"Polygon","coordinates":[[[-73.97,40.78],[-73.9698,40.78],[-73.9698,40.7802],[-73.97,40.7802],[-73.97,40.78]]]}}
	]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	ch := Start(context.Background(), feature.FileSource{Path: path}, building.DefaultOptions())

	var res Result
	select {
	case r, ok := <-ch:
		if !ok {
			t.Fatal("channel closed without a result")
		}
		res = r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the load")
	}
	if res.Err != nil {
		t.Fatalf("load failed: %v", res.Err)
	}
	if res.Features != 1 || len(res.Meshes) != 1 {
		t.Errorf("features = %d, meshes = %d", res.Features, len(res.Meshes))
	}

	if _, ok := <-ch; ok {
		t.Error("channel delivered a second result")
	}
}

func TestPoll(t *testing.T) {
	ch := make(chan Result, 1)
	if _, ok := Poll(ch); ok {
		t.Error("Poll reported a result on an empty channel")
	}
	ch <- Result{Features: 7}
	res, ok := Poll(ch)
	if !ok || res.Features != 7 {
		t.Errorf("Poll = %+v, %v", res, ok)
	}
}

package feature

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source yields the features to mesh. Implementations may block
// (disk or network), so Fetch takes a context.
type Source interface {
	Fetch(ctx context.Context) ([]Feature, error)
}

// FileSource reads features from a GeoJSON file, or a single polygon from a
// .wkb file.
type FileSource struct {
	Path string
	// MaxFeatures truncates the result when positive.
	MaxFeatures int
}

// Fetch reads and decodes the file.
func (s FileSource) Fetch(ctx context.Context) ([]Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var features []Feature
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".wkb":
		f, err := DecodeWKB(filepath.Base(s.Path), data, nil)
		if err != nil {
			return nil, err
		}
		features = []Feature{f}
	default:
		features, _, err = DecodeGeoJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Path, err)
		}
	}

	if s.MaxFeatures > 0 && len(features) > s.MaxFeatures {
		features = features[:s.MaxFeatures]
	}
	return features, nil
}

// SliceSource serves an in-memory feature list.
type SliceSource []Feature

// Fetch returns the slice.
func (s SliceSource) Fetch(ctx context.Context) ([]Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

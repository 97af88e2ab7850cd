package schema

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// DecodeDomain reads one YAML domain definition.
func DecodeDomain(r io.Reader) (*Domain, error) {
	var d Domain
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode domain: %w", err)
	}
	return &d, nil
}

// LoadDir parses every *.yaml and *.yml file in dir concurrently and builds
// a Registry from the result.
func LoadDir(ctx context.Context, dir string) (*Registry, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob models: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	domains := make([]*Domain, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := loadFile(path)
			if err != nil {
				return err
			}
			domains[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewRegistry(domains...)
}

func loadFile(path string) (*Domain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, err := DecodeDomain(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

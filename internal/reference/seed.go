package reference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"
)

// SeedFile maps entity route names to the objects to import.
type SeedFile map[string][]json.RawMessage

// ParseSeed reads a YAML document of the form
//
//	countries:
//	  - isoCode: US
//	    countryName: United States
//	    region: NA
//	    status: ACTIVE
func ParseSeed(r io.Reader) (SeedFile, error) {
	var doc map[string][]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return SeedFile{}, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	out := make(SeedFile, len(doc))
	for name, items := range doc {
		raws := make([]json.RawMessage, len(items))
		for i, item := range items {
			raw, err := json.Marshal(item)
			if err != nil {
				return nil, fmt.Errorf("parse seed: %s[%d]: %w", name, i, err)
			}
			raws[i] = raw
		}
		out[name] = raws
	}
	return out, nil
}

// Seed imports file into the registry, entity by entity in dependency order.
func (r *Registry) Seed(ctx context.Context, file SeedFile, logger *slog.Logger) (map[string]SeedResult, error) {
	for name := range file {
		if _, ok := r.byName[name]; !ok {
			return nil, fmt.Errorf("seed: unknown entity %q", name)
		}
	}
	results := make(map[string]SeedResult, len(file))
	for _, m := range r.modules {
		items, ok := file[m.Name()]
		if !ok {
			continue
		}
		res, err := m.Seed(ctx, items)
		results[m.Name()] = res
		if err != nil {
			return results, fmt.Errorf("seed: %w", err)
		}
		logger.InfoContext(ctx, "seeded entity",
			"entity", m.Name(),
			"created", res.Created,
			"skipped", res.Skipped,
		)
	}
	return results, nil
}

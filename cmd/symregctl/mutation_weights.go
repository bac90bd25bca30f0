package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseMutationWeights parses a comma-separated list of name=weight
// pairs, e.g. "subtree=0.3,operator=0.3,constant=0.25,simplify=0.15".
// Name validation is left to the API so the flag parser stays in sync
// with the engine's mutation set.
func parseMutationWeights(spec string) (map[string]float64, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	weights := make(map[string]float64)
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			return nil, fmt.Errorf("mutation weights: empty entry in %q", spec)
		}
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("mutation weights: %q is not name=weight", pair)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("mutation weights: missing name in %q", pair)
		}
		if _, dup := weights[name]; dup {
			return nil, fmt.Errorf("mutation weights: duplicate name %q", name)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("mutation weights: %q: %w", pair, err)
		}
		if w < 0 {
			return nil, fmt.Errorf("mutation weights: %q must be >= 0", name)
		}
		weights[name] = w
	}
	return weights, nil
}

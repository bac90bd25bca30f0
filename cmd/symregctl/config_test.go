package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	symregapi "symreg/pkg/symreg"
)

func writeRunConfig(t *testing.T, payload map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run_config.json")
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunRequestFromConfig(t *testing.T) {
	path := writeRunConfig(t, map[string]any{
		"dataset":               "trig2d",
		"samples":               150,
		"split_ratio":           0.8,
		"population":            80,
		"generations":           30,
		"workers":               3,
		"seed":                  77,
		"elite_count":           6,
		"crossover_probability": 0.4,
		"mutation_probability":  0.6,
		"max_depth":             5,
		"fitness_goal":          0.95,
		"selection":             "tournament",
		"parsimony":             "size_proportional",
		"mutation_weights": map[string]any{
			"subtree":  0.5,
			"operator": 0.5,
		},
	})

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load run request: %v", err)
	}
	if req.Dataset != "trig2d" || req.Samples != 150 || req.SplitRatio != 0.8 {
		t.Fatalf("unexpected dataset fields: %+v", req)
	}
	if req.Population != 80 || req.Generations != 30 || req.Workers != 3 || req.Seed != 77 {
		t.Fatalf("unexpected run fields: %+v", req)
	}
	if req.EliteCount != 6 || req.CrossoverProbability != 0.4 || req.MutationProbability != 0.6 {
		t.Fatalf("unexpected breeding fields: %+v", req)
	}
	if req.MaxDepth != 5 || req.FitnessGoal != 0.95 {
		t.Fatalf("unexpected limit fields: %+v", req)
	}
	if req.Selection != "tournament" || req.Parsimony != "size_proportional" {
		t.Fatalf("unexpected strategy fields: %+v", req)
	}
	if req.MutationWeights["subtree"] != 0.5 || req.MutationWeights["operator"] != 0.5 {
		t.Fatalf("unexpected mutation weights: %v", req.MutationWeights)
	}
}

func TestLoadRunRequestFromConfigPartialKeepsZeroValues(t *testing.T) {
	path := writeRunConfig(t, map[string]any{
		"dataset": "poly3",
		"seed":    9,
	})

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load run request: %v", err)
	}
	if req.Dataset != "poly3" || req.Seed != 9 {
		t.Fatalf("unexpected fields: %+v", req)
	}
	if req.Population != 0 || req.Generations != 0 || req.MutationWeights != nil {
		t.Fatalf("expected untouched zero values, got %+v", req)
	}
}

func TestLoadRunRequestFromConfigRejectsBadWeightValue(t *testing.T) {
	path := writeRunConfig(t, map[string]any{
		"mutation_weights": map[string]any{"subtree": "heavy"},
	})

	if _, err := loadRunRequestFromConfig(path); err == nil {
		t.Fatal("expected error for non-numeric weight")
	}
}

func TestLoadOrDefaultRunRequestMissingFile(t *testing.T) {
	if _, err := loadOrDefaultRunRequest(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing config file")
	}

	req, err := loadOrDefaultRunRequest("")
	if err != nil {
		t.Fatalf("empty path: %v", err)
	}
	if req.Dataset != "" || req.Population != 0 || req.MutationWeights != nil {
		t.Fatalf("expected zero request, got %+v", req)
	}
}

func TestOverrideFromFlags(t *testing.T) {
	req := symregapi.RunRequest{
		Dataset:     "poly3",
		Population:  80,
		Generations: 30,
		Seed:        1,
	}
	set := map[string]bool{"pop": true, "seed": true}
	err := overrideFromFlags(&req, set, map[string]any{
		"pop":  120,
		"seed": int64(42),
		"gens": 99,
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if req.Population != 120 || req.Seed != 42 {
		t.Fatalf("expected overrides applied, got %+v", req)
	}
	if req.Generations != 30 || req.Dataset != "poly3" {
		t.Fatalf("expected unset flags untouched, got %+v", req)
	}
}

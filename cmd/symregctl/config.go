package main

import (
	"encoding/json"
	"fmt"
	"os"

	symregapi "symreg/pkg/symreg"
)

// loadRunRequestFromConfig reads a run configuration from a JSON file.
// Only keys present in the file are set; everything else keeps its zero
// value so the API defaults apply.
func loadRunRequestFromConfig(path string) (symregapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return symregapi.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return symregapi.RunRequest{}, err
	}

	var req symregapi.RunRequest
	if v, ok := asString(raw["dataset"]); ok {
		req.Dataset = v
	}
	if v, ok := asInt(raw["samples"]); ok {
		req.Samples = v
	}
	if v, ok := asFloat64(raw["split_ratio"]); ok {
		req.SplitRatio = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.Population = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["elite_count"]); ok {
		req.EliteCount = v
	}
	if v, ok := asFloat64(raw["crossover_probability"]); ok {
		req.CrossoverProbability = v
	}
	if v, ok := asFloat64(raw["mutation_probability"]); ok {
		req.MutationProbability = v
	}
	if v, ok := asInt(raw["max_depth"]); ok {
		req.MaxDepth = v
	}
	if v, ok := asFloat64(raw["fitness_goal"]); ok {
		req.FitnessGoal = v
	}
	if v, ok := asString(raw["selection"]); ok {
		req.Selection = v
	}
	if v, ok := asString(raw["parsimony"]); ok {
		req.Parsimony = v
	}
	if weightsMap, ok := raw["mutation_weights"].(map[string]any); ok {
		weights := make(map[string]float64, len(weightsMap))
		for name, value := range weightsMap {
			w, ok := asFloat64(value)
			if !ok {
				return symregapi.RunRequest{}, fmt.Errorf("mutation_weights[%s]: expected number", name)
			}
			weights[name] = w
		}
		req.MutationWeights = weights
	}

	return req, nil
}

func loadOrDefaultRunRequest(configPath string) (symregapi.RunRequest, error) {
	if configPath == "" {
		return symregapi.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return symregapi.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

// overrideFromFlags applies explicitly-set command line flags on top of
// a config-file request.
func overrideFromFlags(req *symregapi.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "dataset":
			req.Dataset = v.(string)
		case "samples":
			req.Samples = v.(int)
		case "split-ratio":
			req.SplitRatio = v.(float64)
		case "pop":
			req.Population = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "workers":
			req.Workers = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "elite":
			req.EliteCount = v.(int)
		case "crossover":
			req.CrossoverProbability = v.(float64)
		case "mutation":
			req.MutationProbability = v.(float64)
		case "max-depth":
			req.MaxDepth = v.(int)
		case "fitness-goal":
			req.FitnessGoal = v.(float64)
		case "selection":
			req.Selection = v.(string)
		case "parsimony":
			req.Parsimony = v.(string)
		default:
			return fmt.Errorf("unhandled flag override: %s", name)
		}
	}
	return nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

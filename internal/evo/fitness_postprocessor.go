package evo

import (
	"fmt"
	"math"

	"symreg/internal/model"
)

const sizeProportionalEfficiency = 0.05

// FitnessPostprocessor adjusts fitness values after scape evaluation
// and before ranking/selection.
type FitnessPostprocessor interface {
	Name() string
	Process(scored []model.Individual) []model.Individual
}

type NoopFitnessPostprocessor struct{}

func (NoopFitnessPostprocessor) Name() string {
	return "none"
}

func (NoopFitnessPostprocessor) Process(scored []model.Individual) []model.Individual {
	return cloneScored(scored)
}

// SizeProportionalPostprocessor applies parsimony pressure: larger
// trees are penalized by a mild power of their node count, so two
// expressions with equal error rank smaller-first.
type SizeProportionalPostprocessor struct{}

func (SizeProportionalPostprocessor) Name() string {
	return "size_proportional"
}

func (SizeProportionalPostprocessor) Process(scored []model.Individual) []model.Individual {
	out := cloneScored(scored)
	for i := range out {
		complexity := float64(out[i].Size)
		if complexity < 1 {
			complexity = 1
		}
		out[i].Fitness = out[i].Fitness / math.Pow(complexity, sizeProportionalEfficiency)
	}
	return out
}

// PostprocessorByName maps CLI/config parsimony names onto
// implementations.
func PostprocessorByName(name string) (FitnessPostprocessor, error) {
	switch name {
	case "", "none":
		return NoopFitnessPostprocessor{}, nil
	case "size_proportional":
		return SizeProportionalPostprocessor{}, nil
	default:
		return nil, fmt.Errorf("unknown fitness postprocessor %q", name)
	}
}

func cloneScored(scored []model.Individual) []model.Individual {
	out := make([]model.Individual, len(scored))
	copy(out, scored)
	return out
}

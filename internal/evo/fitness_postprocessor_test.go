package evo

import (
	"testing"

	"symreg/internal/model"
)

func TestNoopPostprocessorCopies(t *testing.T) {
	scored := rankedPopulation(3)
	out := NoopFitnessPostprocessor{}.Process(scored)
	if len(out) != len(scored) {
		t.Fatalf("length: got %d, want %d", len(out), len(scored))
	}
	out[0].Fitness = -1
	if scored[0].Fitness == -1 {
		t.Fatal("postprocessor must not alias the input slice")
	}
}

func TestSizeProportionalPenalizesLargerTrees(t *testing.T) {
	scored := []model.Individual{
		{ID: "small", Fitness: 0.9, Size: 3},
		{ID: "large", Fitness: 0.9, Size: 30},
	}
	out := SizeProportionalPostprocessor{}.Process(scored)
	if out[0].Fitness >= scored[0].Fitness {
		t.Fatalf("penalty missing: %v", out[0].Fitness)
	}
	if out[1].Fitness >= out[0].Fitness {
		t.Fatalf("equal-error larger tree must rank below smaller: small=%v large=%v",
			out[0].Fitness, out[1].Fitness)
	}
}

func TestSizeProportionalHandlesZeroSize(t *testing.T) {
	scored := []model.Individual{{ID: "empty", Fitness: 1, Size: 0}}
	out := SizeProportionalPostprocessor{}.Process(scored)
	if out[0].Fitness != 1 {
		t.Fatalf("size 0 clamps to complexity 1: got %v", out[0].Fitness)
	}
}

func TestPostprocessorByName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"", "none"},
		{"none", "none"},
		{"size_proportional", "size_proportional"},
	}
	for _, tc := range cases {
		p, err := PostprocessorByName(tc.name)
		if err != nil {
			t.Fatalf("PostprocessorByName(%q): %v", tc.name, err)
		}
		if p.Name() != tc.want {
			t.Fatalf("PostprocessorByName(%q): got %q", tc.name, p.Name())
		}
	}
	if _, err := PostprocessorByName("novelty"); err == nil {
		t.Fatal("expected error for unknown postprocessor")
	}
}

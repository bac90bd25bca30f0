package main

import "testing"

func TestParseMutationWeights(t *testing.T) {
	weights, err := parseMutationWeights("subtree=0.3, operator=0.3,constant=0.25,simplify=0.15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]float64{
		"subtree":  0.3,
		"operator": 0.3,
		"constant": 0.25,
		"simplify": 0.15,
	}
	if len(weights) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(weights))
	}
	for name, w := range want {
		if weights[name] != w {
			t.Fatalf("weight %s: expected %f, got %f", name, w, weights[name])
		}
	}
}

func TestParseMutationWeightsEmptyIsNil(t *testing.T) {
	weights, err := parseMutationWeights("  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if weights != nil {
		t.Fatalf("expected nil map, got %v", weights)
	}
}

func TestParseMutationWeightsRejectsMalformedSpecs(t *testing.T) {
	cases := []struct {
		name string
		spec string
	}{
		{"missing separator", "subtree0.3"},
		{"missing name", "=0.3"},
		{"empty entry", "subtree=0.3,,operator=0.3"},
		{"non numeric weight", "subtree=lots"},
		{"negative weight", "subtree=-0.1"},
		{"duplicate name", "subtree=0.3,subtree=0.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseMutationWeights(tc.spec); err == nil {
				t.Fatalf("expected error for %q", tc.spec)
			}
		})
	}
}

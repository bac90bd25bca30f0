package evo

import (
	"math/rand"
	"testing"

	"symreg/internal/expr"
	"symreg/internal/model"
)

func variable(i int) *model.Node {
	return &model.Node{Kind: model.NodeVariable, Index: i}
}

func constant(v float64) *model.Node {
	return &model.Node{Kind: model.NodeConstant, Value: v}
}

func binary(op string, left, right *model.Node) *model.Node {
	return &model.Node{Kind: model.NodeOperator, Op: op, Left: left, Right: right}
}

func TestCrossoverLeavesParentsUntouched(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	recipient := binary("+", variable(0), binary("*", constant(2), variable(1)))
	donor := binary("-", variable(1), constant(7))
	recipientBefore := expr.Render(recipient)
	donorBefore := expr.Render(donor)

	for i := 0; i < 50; i++ {
		child, err := Crossover(rng, recipient, donor, 6)
		if err != nil {
			t.Fatalf("crossover: %v", err)
		}
		if child == recipient || child == donor {
			t.Fatal("offspring must be a fresh tree")
		}
	}
	if expr.Render(recipient) != recipientBefore {
		t.Fatalf("recipient changed: %s", expr.Render(recipient))
	}
	if expr.Render(donor) != donorBefore {
		t.Fatalf("donor changed: %s", expr.Render(donor))
	}
}

func TestCrossoverOffspringStaysValid(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const maxDepth = 4
	recipient := binary("+", variable(0), binary("*", constant(2), variable(1)))
	donor := binary("-", binary("/", variable(1), constant(3)), variable(0))

	for i := 0; i < 200; i++ {
		child, err := Crossover(rng, recipient, donor, maxDepth)
		if err != nil {
			t.Fatalf("trial %d: %v", i, err)
		}
		if d := expr.Depth(child); d > maxDepth {
			t.Fatalf("trial %d: depth %d exceeds %d: %s", i, d, maxDepth, expr.Render(child))
		}
		if !expr.HasVariable(child) {
			t.Fatalf("trial %d: offspring lost all variables: %s", i, expr.Render(child))
		}
		if err := expr.Validate(child, 2); err != nil {
			t.Fatalf("trial %d: %v", i, err)
		}
	}
}

func TestCrossoverDepthCapFallsBack(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	// Recipient already at the depth cap: any graft of the deep donor
	// would overflow, so offspring must equal the recipient.
	recipient := binary("+", variable(0), binary("*", variable(1), constant(1)))
	deep := variable(0)
	for i := 0; i < 6; i++ {
		deep = binary("+", deep, constant(float64(i)))
	}

	for i := 0; i < 50; i++ {
		child, err := Crossover(rng, recipient, deep, 2)
		if err != nil {
			t.Fatalf("crossover: %v", err)
		}
		if d := expr.Depth(child); d > 2 {
			t.Fatalf("depth cap violated: %d", d)
		}
	}
}

func TestCrossoverLeafRecipient(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	child, err := Crossover(rng, variable(0), binary("+", variable(1), constant(2)), 4)
	if err != nil {
		t.Fatalf("crossover: %v", err)
	}
	// A leaf has no attachment slots; offspring is a plain copy.
	if expr.Render(child) != "x0" {
		t.Fatalf("leaf recipient: got %s", expr.Render(child))
	}
}

func TestCrossoverValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tree := binary("+", variable(0), constant(1))

	if _, err := Crossover(nil, tree, tree, 4); err == nil {
		t.Fatal("expected error for nil random source")
	}
	if _, err := Crossover(rng, nil, tree, 4); err == nil {
		t.Fatal("expected error for nil recipient")
	}
	if _, err := Crossover(rng, tree, nil, 4); err == nil {
		t.Fatal("expected error for nil donor")
	}
	if _, err := Crossover(rng, tree, tree, 0); err == nil {
		t.Fatal("expected error for non-positive depth bound")
	}
}

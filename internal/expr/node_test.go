package expr

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/model"
)

func variableNode(index int) *model.Node {
	return &model.Node{Kind: model.NodeVariable, Index: index}
}

func constantNode(value float64) *model.Node {
	return &model.Node{Kind: model.NodeConstant, Value: value}
}

func binaryNode(op string, left, right *model.Node) *model.Node {
	return &model.Node{Kind: model.NodeOperator, Op: op, Left: left, Right: right}
}

func unaryNode(op string, operand *model.Node) *model.Node {
	return &model.Node{Kind: model.NodeOperator, Op: op, Left: operand}
}

func TestCloneProducesIndependentTree(t *testing.T) {
	original := binaryNode("+", variableNode(0), constantNode(2))
	copied := Clone(original)

	if !reflect.DeepEqual(original, copied) {
		t.Fatalf("clone mismatch\noriginal=%+v\ncopy=%+v", original, copied)
	}

	copied.Right.Value = 99
	copied.Op = "*"
	if original.Right.Value != 2 || original.Op != "+" {
		t.Fatalf("mutating the copy leaked into the original: %+v", original)
	}
}

func TestCloneEvaluatesIdentically(t *testing.T) {
	tree := binaryNode("*",
		unaryNode("sin", variableNode(0)),
		binaryNode("+", variableNode(1), constantNode(0.5)),
	)
	x := mat.NewDense(4, 2, []float64{
		0.1, 1.0,
		0.7, -2.0,
		-1.3, 0.0,
		2.9, 4.5,
	})

	want, err := Evaluate(tree, x)
	if err != nil {
		t.Fatalf("evaluate original: %v", err)
	}
	got, err := Evaluate(Clone(tree), x)
	if err != nil {
		t.Fatalf("evaluate copy: %v", err)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("row %d: copy evaluated to %v, original to %v", i, got[i], want[i])
		}
	}
}

func TestDepthAndSize(t *testing.T) {
	cases := []struct {
		name  string
		tree  *model.Node
		depth int
		size  int
	}{
		{"constant leaf", constantNode(1), 0, 1},
		{"variable leaf", variableNode(0), 0, 1},
		{"single binary", binaryNode("+", variableNode(0), constantNode(1)), 1, 3},
		{"unary over binary", unaryNode("sin", binaryNode("*", variableNode(0), variableNode(1))), 2, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Depth(tc.tree); got != tc.depth {
				t.Fatalf("depth: got %d, want %d", got, tc.depth)
			}
			if got := Size(tc.tree); got != tc.size {
				t.Fatalf("size: got %d, want %d", got, tc.size)
			}
		})
	}
}

func TestRender(t *testing.T) {
	cases := []struct {
		tree *model.Node
		want string
	}{
		{binaryNode("+", variableNode(0), constantNode(2)), "(x0 + 2)"},
		{unaryNode("sin", variableNode(1)), "sin(x1)"},
		{binaryNode("*", constantNode(0.5), unaryNode("log", variableNode(0))), "(0.5 * log(x0))"},
	}
	for _, tc := range cases {
		if got := Render(tc.tree); got != tc.want {
			t.Fatalf("render: got %q, want %q", got, tc.want)
		}
	}
}

func TestValidateInvariants(t *testing.T) {
	cases := []struct {
		name    string
		tree    *model.Node
		nVars   int
		wantErr bool
	}{
		{"valid binary", binaryNode("+", variableNode(0), constantNode(1)), 1, false},
		{"valid unary", unaryNode("cos", variableNode(0)), 1, false},
		{"binary missing right", &model.Node{Kind: model.NodeOperator, Op: "+", Left: variableNode(0)}, 1, true},
		{"unary with right child", &model.Node{Kind: model.NodeOperator, Op: "sin", Left: variableNode(0), Right: constantNode(1)}, 1, true},
		{"variable index out of range", binaryNode("+", variableNode(3), constantNode(1)), 2, true},
		{"negative variable index", variableNode(-1), 2, true},
		{"non-finite constant", constantNode(math.Inf(1)), 1, true},
		{"constant with child", &model.Node{Kind: model.NodeConstant, Value: 1, Left: variableNode(0)}, 1, true},
		{"unknown operator", binaryNode("%", variableNode(0), constantNode(1)), 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.tree, tc.nVars)
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}

	if err := Validate(nil, 1); !errors.Is(err, ErrNilNode) {
		t.Fatalf("expected ErrNilNode, got %v", err)
	}
}

func TestMaxVariableIndex(t *testing.T) {
	tree := binaryNode("+", variableNode(2), unaryNode("sin", variableNode(5)))
	if got := MaxVariableIndex(tree); got != 5 {
		t.Fatalf("max variable index: got %d, want 5", got)
	}
	if got := MaxVariableIndex(constantNode(1)); got != -1 {
		t.Fatalf("constant tree should report -1, got %d", got)
	}
}

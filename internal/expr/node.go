package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"symreg/internal/model"
)

var (
	ErrNilNode       = errors.New("nil expression node")
	ErrMalformedTree = errors.New("malformed expression tree")
)

// Clone returns a fully independent deep copy of the tree.
func Clone(node *model.Node) *model.Node {
	if node == nil {
		return nil
	}
	return &model.Node{
		Kind:  node.Kind,
		Op:    node.Op,
		Index: node.Index,
		Value: node.Value,
		Left:  Clone(node.Left),
		Right: Clone(node.Right),
	}
}

// Depth returns the operator nesting depth of the tree. A leaf has
// depth zero, matching the generator's depth budget convention.
func Depth(node *model.Node) int {
	if node == nil || node.Kind != model.NodeOperator {
		return 0
	}
	left := Depth(node.Left)
	right := Depth(node.Right)
	if right > left {
		left = right
	}
	return 1 + left
}

// Size returns the total node count of the tree.
func Size(node *model.Node) int {
	if node == nil {
		return 0
	}
	return 1 + Size(node.Left) + Size(node.Right)
}

// HasVariable reports whether any leaf references an input column.
func HasVariable(node *model.Node) bool {
	if node == nil {
		return false
	}
	if node.Kind == model.NodeVariable {
		return true
	}
	return HasVariable(node.Left) || HasVariable(node.Right)
}

// MaxVariableIndex returns the largest variable column referenced, or
// -1 when the tree references no variables.
func MaxVariableIndex(node *model.Node) int {
	if node == nil {
		return -1
	}
	max := -1
	if node.Kind == model.NodeVariable {
		max = node.Index
	}
	if left := MaxVariableIndex(node.Left); left > max {
		max = left
	}
	if right := MaxVariableIndex(node.Right); right > max {
		max = right
	}
	return max
}

// Render returns a deterministic infix rendering of the tree, e.g.
// "(x0 + 2)" or "sin((x1 * 0.5))".
func Render(node *model.Node) string {
	if node == nil {
		return "<nil>"
	}
	switch node.Kind {
	case model.NodeConstant:
		return strconv.FormatFloat(node.Value, 'g', -1, 64)
	case model.NodeVariable:
		return "x" + strconv.Itoa(node.Index)
	case model.NodeOperator:
		if node.Right == nil {
			var b strings.Builder
			b.WriteString(node.Op)
			b.WriteString("(")
			b.WriteString(Render(node.Left))
			b.WriteString(")")
			return b.String()
		}
		var b strings.Builder
		b.WriteString("(")
		b.WriteString(Render(node.Left))
		b.WriteString(" ")
		b.WriteString(node.Op)
		b.WriteString(" ")
		b.WriteString(Render(node.Right))
		b.WriteString(")")
		return b.String()
	default:
		return "<invalid>"
	}
}

// Validate checks the structural invariants of a tree: kind-consistent
// payloads, unary/binary arity, finite constants, and variable indices
// inside [0, nVariables).
func Validate(node *model.Node, nVariables int) error {
	if node == nil {
		return ErrNilNode
	}
	switch node.Kind {
	case model.NodeConstant:
		if node.Left != nil || node.Right != nil {
			return fmt.Errorf("%w: constant node has children", ErrMalformedTree)
		}
		if math.IsNaN(node.Value) || math.IsInf(node.Value, 0) {
			return fmt.Errorf("%w: non-finite constant %v", ErrMalformedTree, node.Value)
		}
	case model.NodeVariable:
		if node.Left != nil || node.Right != nil {
			return fmt.Errorf("%w: variable node has children", ErrMalformedTree)
		}
		if node.Index < 0 || node.Index >= nVariables {
			return fmt.Errorf("%w: variable index %d outside [0, %d)", ErrMalformedTree, node.Index, nVariables)
		}
	case model.NodeOperator:
		switch {
		case IsUnary(node.Op):
			if node.Left == nil || node.Right != nil {
				return fmt.Errorf("%w: unary %q requires exactly a left child", ErrMalformedTree, node.Op)
			}
			return Validate(node.Left, nVariables)
		case IsBinary(node.Op):
			if node.Left == nil || node.Right == nil {
				return fmt.Errorf("%w: binary %q requires both children", ErrMalformedTree, node.Op)
			}
			if err := Validate(node.Left, nVariables); err != nil {
				return err
			}
			return Validate(node.Right, nVariables)
		default:
			return fmt.Errorf("%w: %s", ErrOperatorNotFound, node.Op)
		}
	default:
		return fmt.Errorf("%w: unknown node kind %q", ErrMalformedTree, node.Kind)
	}
	return nil
}

package expr

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/model"
)

// Evaluate computes the tree over every row of the input matrix and
// returns one prediction per row. x has shape (nSamples, nVariables);
// variable nodes index its columns. Out-of-range variable indices are a
// structural error; numeric edge cases (division by zero, log of a
// non-positive value) yield Inf/NaN entries that propagate to the
// caller for filtering rather than aborting evaluation.
func Evaluate(node *model.Node, x *mat.Dense) ([]float64, error) {
	if node == nil {
		return nil, ErrNilNode
	}
	if x == nil {
		return nil, fmt.Errorf("input matrix is required")
	}
	rows, cols := x.Dims()
	if rows == 0 {
		return nil, fmt.Errorf("input matrix has no rows")
	}
	if max := MaxVariableIndex(node); max >= cols {
		return nil, fmt.Errorf("%w: variable index %d outside [0, %d)", ErrMalformedTree, max, cols)
	}
	return evalRecursive(node, x, rows)
}

func evalRecursive(node *model.Node, x *mat.Dense, rows int) ([]float64, error) {
	switch node.Kind {
	case model.NodeConstant:
		out := make([]float64, rows)
		for i := range out {
			out[i] = node.Value
		}
		return out, nil

	case model.NodeVariable:
		return mat.Col(nil, node.Index, x), nil

	case model.NodeOperator:
		if node.Right == nil {
			fn, err := LookupUnary(node.Op)
			if err != nil {
				return nil, err
			}
			if node.Left == nil {
				return nil, fmt.Errorf("%w: unary %q missing operand", ErrMalformedTree, node.Op)
			}
			operand, err := evalRecursive(node.Left, x, rows)
			if err != nil {
				return nil, err
			}
			out := make([]float64, rows)
			fn(out, operand)
			return out, nil
		}

		fn, err := LookupBinary(node.Op)
		if err != nil {
			return nil, err
		}
		if node.Left == nil {
			return nil, fmt.Errorf("%w: binary %q missing left operand", ErrMalformedTree, node.Op)
		}
		left, err := evalRecursive(node.Left, x, rows)
		if err != nil {
			return nil, err
		}
		right, err := evalRecursive(node.Right, x, rows)
		if err != nil {
			return nil, err
		}
		out := make([]float64, rows)
		fn(out, left, right)
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown node kind %q", ErrMalformedTree, node.Kind)
	}
}

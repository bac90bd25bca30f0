package expr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"symreg/internal/model"
)

// EvaluateAndScore evaluates the tree over x and scores the predictions
// against y, returning mean squared error and the coefficient of
// determination.
//
// Degenerate numerics never abort the pipeline: any non-finite
// prediction yields MSE=+Inf and R2=-Inf so selection ranks the tree as
// unfit, and a zero-variance target reports R2=-Inf instead of dividing
// by zero.
func EvaluateAndScore(tree *model.Node, x *mat.Dense, y []float64) (mse, r2 float64, err error) {
	pred, err := Evaluate(tree, x)
	if err != nil {
		return 0, 0, err
	}
	if len(pred) != len(y) {
		return 0, 0, fmt.Errorf("prediction length %d does not match target length %d", len(pred), len(y))
	}
	return Score(pred, y)
}

// Score computes (MSE, R2) for a prediction vector against a target
// vector of the same length, applying the non-finite and zero-variance
// sentinels documented on EvaluateAndScore.
func Score(pred, y []float64) (mse, r2 float64, err error) {
	if len(pred) == 0 || len(pred) != len(y) {
		return 0, 0, fmt.Errorf("prediction and target must be non-empty and equal length")
	}

	ssRes := 0.0
	for i, p := range pred {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return math.Inf(1), math.Inf(-1), nil
		}
		d := y[i] - p
		ssRes += d * d
	}
	mse = ssRes / float64(len(y))

	mean := stat.Mean(y, nil)
	ssTot := 0.0
	for _, v := range y {
		d := v - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		return mse, math.Inf(-1), nil
	}
	return mse, 1 - ssRes/ssTot, nil
}

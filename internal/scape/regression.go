package scape

import (
	"context"
	"errors"
	"fmt"
	"math"

	"symreg/internal/dataset"
	"symreg/internal/expr"
	"symreg/internal/model"
)

// RegressionScape evaluates expression trees against a regression
// dataset. Selection fitness is 1/(1+mse), mapping lower error to
// higher fitness on (0, 1]; a non-finite or missing error scores zero.
type RegressionScape struct {
	name       string
	train      *dataset.Table
	validation *dataset.Table
}

// NewRegressionScape builds a scape over a training table and an
// optional validation table. Evaluate uses the training table;
// EvaluateMode routes to either.
func NewRegressionScape(name string, train, validation *dataset.Table) (*RegressionScape, error) {
	if name == "" {
		return nil, errors.New("scape name is required")
	}
	if train == nil || train.Rows() == 0 {
		return nil, errors.New("training table is required")
	}
	if validation != nil && validation.Cols() != train.Cols() {
		return nil, fmt.Errorf("validation table has %d variables, training has %d", validation.Cols(), train.Cols())
	}
	return &RegressionScape{name: name, train: train, validation: validation}, nil
}

func (s *RegressionScape) Name() string {
	return s.name
}

// NVariables reports the number of input columns trees may reference.
func (s *RegressionScape) NVariables() int {
	return s.train.Cols()
}

func (s *RegressionScape) Evaluate(ctx context.Context, tree *model.Node) (Fitness, Score, error) {
	return s.evaluateOn(ctx, tree, s.train)
}

func (s *RegressionScape) EvaluateMode(ctx context.Context, tree *model.Node, mode string) (Fitness, Score, error) {
	switch mode {
	case ModeTrain, "":
		return s.evaluateOn(ctx, tree, s.train)
	case ModeValidation:
		if s.validation == nil {
			return 0, Score{}, errors.New("scape has no validation table")
		}
		return s.evaluateOn(ctx, tree, s.validation)
	default:
		return 0, Score{}, fmt.Errorf("unknown evaluation mode %q", mode)
	}
}

func (s *RegressionScape) evaluateOn(ctx context.Context, tree *model.Node, table *dataset.Table) (Fitness, Score, error) {
	if err := ctx.Err(); err != nil {
		return 0, Score{}, err
	}
	mse, r2, err := expr.EvaluateAndScore(tree, table.X, table.Y)
	if err != nil {
		return 0, Score{}, err
	}
	return FitnessFromMSE(mse), Score{MSE: mse, R2: r2}, nil
}

// FitnessFromMSE maps a mean squared error onto the (0, 1] selection
// scale. Non-finite errors map to zero, keeping degenerate trees
// selectable-against without poisoning ranking comparisons.
func FitnessFromMSE(mse float64) Fitness {
	if math.IsNaN(mse) || math.IsInf(mse, 0) {
		return 0
	}
	return Fitness(1 / (1 + mse))
}

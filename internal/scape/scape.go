package scape

import (
	"context"

	"symreg/internal/model"
)

type Fitness float64

// Score carries the raw regression error metrics alongside the
// selection fitness.
type Score struct {
	MSE float64 `json:"mse"`
	R2  float64 `json:"r2"`
}

// Scape is a fitness environment that judges candidate expression
// trees.
type Scape interface {
	Name() string
	Evaluate(ctx context.Context, tree *model.Node) (Fitness, Score, error)
}

// Evaluation modes for mode-aware scapes.
const (
	ModeTrain      = "train"
	ModeValidation = "validation"
)

// ModeAwareScape optionally exposes evaluation mode routing for
// train/validation flows.
type ModeAwareScape interface {
	Scape
	EvaluateMode(ctx context.Context, tree *model.Node, mode string) (Fitness, Score, error)
}

package storage

import (
	"context"

	"symreg/internal/model"
)

// Store defines persistence operations for run records and their
// per-run series.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	LatestRunID(ctx context.Context) (string, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	SaveTopExpressions(ctx context.Context, runID string, top []model.TopExpressionRecord) error
	GetTopExpressions(ctx context.Context, runID string) ([]model.TopExpressionRecord, bool, error)
}

package symreg

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"symreg/internal/dataset"
	"symreg/internal/evo"
	"symreg/internal/expr"
	"symreg/internal/model"
	"symreg/internal/scape"
	"symreg/internal/stats"
	"symreg/internal/storage"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultDBPath       = "symreg.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
}

// Client is the embedding surface: it wires the store, the evolution
// loop, and the artifacts writer behind one API that the CLI and tests
// share.
type Client struct {
	store        storage.Store
	artifactsDir string
}

// RunRequest configures one evolution run. Dataset names a built-in
// synthetic problem or a CSV file path; zero values take defaults.
type RunRequest struct {
	Dataset    string
	Samples    int
	SplitRatio float64

	Population  int
	Generations int
	Workers     int
	Seed        int64
	EliteCount  int

	CrossoverProbability float64
	MutationProbability  float64
	MaxDepth             int
	FitnessGoal          float64

	Selection       string
	Parsimony       string
	MutationWeights map[string]float64
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	Dataset          string
	Generations      int
	Evaluations      int64
	BestExpression   string
	BestFitness      float64
	BestMSE          float64
	BestR2           float64
	ValidationMSE    float64
	ValidationR2     float64
	BestByGeneration []float64
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{store: store, artifactsDir: artifactsDir}, nil
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Dataset == "" {
		req.Dataset = dataset.SyntheticPoly3
	}
	if req.Samples <= 0 {
		req.Samples = 200
	}
	if req.SplitRatio == 0 {
		req.SplitRatio = 0.75
	}
	if req.Population <= 0 {
		req.Population = 100
	}
	if req.Generations <= 0 {
		req.Generations = 50
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.EliteCount <= 0 {
		req.EliteCount = req.Population / 5
		if req.EliteCount < 1 {
			req.EliteCount = 1
		}
	}
	if req.CrossoverProbability == 0 {
		req.CrossoverProbability = 0.3
	}
	if req.MutationProbability == 0 {
		req.MutationProbability = 0.5
	}
	if req.MaxDepth <= 0 {
		req.MaxDepth = 6
	}

	selector, err := evo.SelectorByName(req.Selection)
	if err != nil {
		return RunSummary{}, err
	}
	postprocessor, err := evo.PostprocessorByName(req.Parsimony)
	if err != nil {
		return RunSummary{}, err
	}
	mutationWeights, err := mutationWeightsFromNames(req.MutationWeights)
	if err != nil {
		return RunSummary{}, err
	}

	table, err := loadDataset(req.Dataset, req.Samples, req.Seed)
	if err != nil {
		return RunSummary{}, err
	}
	splitRNG := rand.New(rand.NewSource(req.Seed))
	train, validation, err := dataset.Split(splitRNG, table, req.SplitRatio)
	if err != nil {
		return RunSummary{}, err
	}
	environment, err := scape.NewRegressionScape(table.Name, train, validation)
	if err != nil {
		return RunSummary{}, err
	}

	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Scape:                environment,
		PopulationSize:       req.Population,
		EliteCount:           req.EliteCount,
		Generations:          req.Generations,
		Workers:              req.Workers,
		Seed:                 req.Seed,
		CrossoverProbability: req.CrossoverProbability,
		FitnessGoal:          req.FitnessGoal,
		Generator: expr.GeneratorConfig{
			MaxDepth:   req.MaxDepth,
			NVariables: environment.NVariables(),
		},
		Mutator: expr.MutatorConfig{
			MutationProbability: req.MutationProbability,
			MutationWeights:     mutationWeights,
		},
		Selector:      selector,
		Postprocessor: postprocessor,
	})
	if err != nil {
		return RunSummary{}, err
	}

	result, err := monitor.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	_, validationScore, err := environment.EvaluateMode(ctx, result.Best.Tree, scape.ModeValidation)
	if err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	run := model.RunRecord{
		VersionedRecord: storage.Stamp(),
		ID:              runID,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		Dataset:         req.Dataset,
		Seed:            req.Seed,
		Population:      req.Population,
		Generations:     len(result.BestByGeneration),
		Workers:         req.Workers,
		Evaluations:     result.Evaluations,
		BestExpression:  expr.Render(result.Best.Tree),
		BestFitness:     result.Best.Fitness,
		BestMSE:         result.Best.MSE,
		BestR2:          result.Best.R2,
		ValidationMSE:   validationScore.MSE,
		ValidationR2:    validationScore.R2,
	}

	top := topExpressions(runID, result.Final, 10)

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, result.Diagnostics); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveTopExpressions(ctx, runID, top); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Run:              run,
		BestByGeneration: result.BestByGeneration,
		Diagnostics:      result.Diagnostics,
		TopExpressions:   top,
	})
	if err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		Dataset:          req.Dataset,
		Generations:      len(result.BestByGeneration),
		Evaluations:      result.Evaluations,
		BestExpression:   run.BestExpression,
		BestFitness:      run.BestFitness,
		BestMSE:          run.BestMSE,
		BestR2:           run.BestR2,
		ValidationMSE:    run.ValidationMSE,
		ValidationR2:     run.ValidationR2,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
	}, nil
}

// Runs lists stored run records, newest last, capped at limit.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > limit {
		runs = runs[len(runs)-limit:]
	}
	return runs, nil
}

// FitnessHistory returns the per-generation best fitness series of a
// run. An empty runID resolves to the latest run.
func (c *Client) FitnessHistory(ctx context.Context, runID string) (string, []float64, error) {
	runID, err := c.resolveRunID(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, fmt.Errorf("no fitness history for run %s", runID)
	}
	return runID, history, nil
}

// TopExpressions returns the ranked final expressions of a run. An
// empty runID resolves to the latest run.
func (c *Client) TopExpressions(ctx context.Context, runID string, limit int) (string, []model.TopExpressionRecord, error) {
	runID, err := c.resolveRunID(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	top, ok, err := c.store.GetTopExpressions(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, fmt.Errorf("no top expressions for run %s", runID)
	}
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return runID, top, nil
}

// Diagnostics returns the per-generation diagnostics of a run. An empty
// runID resolves to the latest run.
func (c *Client) Diagnostics(ctx context.Context, runID string) (string, []model.GenerationDiagnostics, error) {
	runID, err := c.resolveRunID(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, fmt.Errorf("no diagnostics for run %s", runID)
	}
	return runID, diagnostics, nil
}

// Plot renders a run's fitness history to a PNG file and returns the
// resolved run ID. An empty outPath places the chart next to the run's
// other artifacts.
func (c *Client) Plot(ctx context.Context, runID, outPath string) (string, error) {
	runID, history, err := c.FitnessHistory(ctx, runID)
	if err != nil {
		return "", err
	}
	diagnostics, _, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return "", err
	}
	if outPath == "" {
		runDir := filepath.Join(c.artifactsDir, runID)
		if err := os.MkdirAll(runDir, 0o755); err != nil {
			return "", err
		}
		outPath = filepath.Join(runDir, "fitness.png")
	}
	return runID, stats.PlotFitnessHistory(outPath, history, diagnostics)
}

// DataInfo loads a dataset the same way Run would and reports its
// per-variable statistics.
func (c *Client) DataInfo(name string, samples int, seed int64) (dataset.Summary, error) {
	if name == "" {
		name = dataset.SyntheticPoly3
	}
	if samples <= 0 {
		samples = 200
	}
	table, err := loadDataset(name, samples, seed)
	if err != nil {
		return dataset.Summary{}, err
	}
	return dataset.Summarize(table), nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}
	latest, ok, err := c.store.LatestRunID(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("no runs recorded yet")
	}
	return latest, nil
}

func loadDataset(name string, samples int, seed int64) (*dataset.Table, error) {
	if strings.HasSuffix(name, ".csv") {
		return dataset.LoadCSV(name)
	}
	return dataset.Synthetic(name, samples, rand.New(rand.NewSource(seed)))
}

func topExpressions(runID string, ranked []model.Individual, limit int) []model.TopExpressionRecord {
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]model.TopExpressionRecord, 0, len(ranked))
	for i, individual := range ranked {
		out = append(out, model.TopExpressionRecord{
			VersionedRecord: storage.Stamp(),
			RunID:           runID,
			Rank:            i + 1,
			Expression:      expr.Render(individual.Tree),
			Fitness:         individual.Fitness,
			MSE:             individual.MSE,
			R2:              individual.R2,
			Size:            individual.Size,
			Depth:           individual.Depth,
		})
	}
	return out
}

func mutationWeightsFromNames(weights map[string]float64) (map[expr.MutationType]float64, error) {
	if len(weights) == 0 {
		return nil, nil
	}
	out := make(map[expr.MutationType]float64, len(weights))
	for name, weight := range weights {
		switch mt := expr.MutationType(name); mt {
		case expr.MutationSubtree, expr.MutationOperator, expr.MutationConstant, expr.MutationSimplify:
			out[mt] = weight
		default:
			return nil, fmt.Errorf("unknown mutation type %q", name)
		}
	}
	return out, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"symreg/internal/dataset"
	"symreg/internal/storage"
	symregapi "symreg/pkg/symreg"
)

const defaultArtifactsDir = "artifacts"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "top":
		return runTop(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "plot":
		return runPlot(ctx, args[1:])
	case "data-info":
		return runDataInfo(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := symregapi.New(symregapi.Options{
		StoreKind: *storeKind,
		DBPath:    *dbPath,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	datasetName := fs.String("dataset", dataset.SyntheticPoly3, "synthetic problem name or CSV file path")
	samples := fs.Int("samples", 200, "sample count for synthetic datasets")
	splitRatio := fs.Float64("split-ratio", 0.75, "train fraction of the dataset")
	population := fs.Int("pop", 100, "population size")
	generations := fs.Int("gens", 50, "generation count")
	workers := fs.Int("workers", 4, "evaluation worker count")
	seed := fs.Int64("seed", 1, "rng seed")
	eliteCount := fs.Int("elite", 0, "elite count (0 derives population/5)")
	crossoverProbability := fs.Float64("crossover", 0.3, "per-child crossover probability")
	mutationProbability := fs.Float64("mutation", 0.5, "per-child mutation probability")
	maxDepth := fs.Int("max-depth", 6, "maximum expression tree depth")
	fitnessGoal := fs.Float64("fitness-goal", 0.0, "early-stop best fitness goal (0 disables)")
	selectionName := fs.String("selection", "elite", "parent selection strategy: elite|tournament")
	parsimonyName := fs.String("parsimony", "none", "fitness postprocessor: none|size_proportional")
	weightsSpec := fs.String("weights", "", "mutation weights, e.g. subtree=0.3,operator=0.3,constant=0.25,simplify=0.15")
	verbose := fs.Bool("verbose", false, "print per-generation best fitness")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	artifactsDir := fs.String("artifacts-dir", defaultArtifactsDir, "artifacts output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = symregapi.RunRequest{
			Dataset:              *datasetName,
			Samples:              *samples,
			SplitRatio:           *splitRatio,
			Population:           *population,
			Generations:          *generations,
			Workers:              *workers,
			Seed:                 *seed,
			EliteCount:           *eliteCount,
			CrossoverProbability: *crossoverProbability,
			MutationProbability:  *mutationProbability,
			MaxDepth:             *maxDepth,
			FitnessGoal:          *fitnessGoal,
			Selection:            *selectionName,
			Parsimony:            *parsimonyName,
		}
	} else {
		err := overrideFromFlags(&req, setFlags, map[string]any{
			"dataset":      *datasetName,
			"samples":      *samples,
			"split-ratio":  *splitRatio,
			"pop":          *population,
			"gens":         *generations,
			"workers":      *workers,
			"seed":         *seed,
			"elite":        *eliteCount,
			"crossover":    *crossoverProbability,
			"mutation":     *mutationProbability,
			"max-depth":    *maxDepth,
			"fitness-goal": *fitnessGoal,
			"selection":    *selectionName,
			"parsimony":    *parsimonyName,
		})
		if err != nil {
			return err
		}
	}
	if *weightsSpec != "" || setFlags["weights"] {
		weights, err := parseMutationWeights(*weightsSpec)
		if err != nil {
			return err
		}
		req.MutationWeights = weights
	}

	client, err := symregapi.New(symregapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: *artifactsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s dataset=%s pop=%d gens=%d seed=%d\n",
		summary.RunID, summary.Dataset, req.Population, summary.Generations, req.Seed)
	if *verbose {
		for i, best := range summary.BestByGeneration {
			fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
		}
	}
	fmt.Printf("evaluations=%s\n", humanize.Comma(summary.Evaluations))
	fmt.Printf("best_expression=%s\n", summary.BestExpression)
	fmt.Printf("best_fitness=%.6f best_mse=%.6f best_r2=%.6f\n",
		summary.BestFitness, summary.BestMSE, summary.BestR2)
	fmt.Printf("validation_mse=%.6f validation_r2=%.6f\n",
		summary.ValidationMSE, summary.ValidationR2)
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := symregapi.New(symregapi.Options{
		StoreKind: *storeKind,
		DBPath:    *dbPath,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, rec := range runs {
		fmt.Printf("run_id=%s created_at=%s dataset=%s seed=%d pop=%d gens=%d best_fitness=%.6f best_expression=%s\n",
			rec.ID,
			rec.CreatedAtUTC,
			rec.Dataset,
			rec.Seed,
			rec.Population,
			rec.Generations,
			rec.BestFitness,
			rec.BestExpression,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id (empty uses the most recent run)")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := symregapi.New(symregapi.Options{
		StoreKind: *storeKind,
		DBPath:    *dbPath,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	resolvedID, history, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *limit > 0 && len(history) > *limit {
		history = history[:*limit]
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	fmt.Printf("run_id=%s\n", resolvedID)
	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id (empty uses the most recent run)")
	limit := fs.Int("limit", 5, "max expressions to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit top expressions as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := symregapi.New(symregapi.Options{
		StoreKind: *storeKind,
		DBPath:    *dbPath,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	resolvedID, top, err := client.TopExpressions(ctx, *runID, *limit)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		fmt.Println("no top expressions")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(top)
	}

	fmt.Printf("run_id=%s\n", resolvedID)
	for _, item := range top {
		fmt.Printf("rank=%d fitness=%.6f mse=%.6f r2=%.6f size=%d depth=%d expression=%s\n",
			item.Rank,
			item.Fitness,
			item.MSE,
			item.R2,
			item.Size,
			item.Depth,
			item.Expression,
		)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id (empty uses the most recent run)")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := symregapi.New(symregapi.Options{
		StoreKind: *storeKind,
		DBPath:    *dbPath,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	resolvedID, diagnostics, err := client.Diagnostics(ctx, *runID)
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *limit > 0 && len(diagnostics) > *limit {
		diagnostics = diagnostics[:*limit]
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diagnostics)
	}

	fmt.Printf("run_id=%s\n", resolvedID)
	for _, d := range diagnostics {
		fmt.Printf("generation=%d best_fitness=%.6f mean_fitness=%.6f min_fitness=%.6f best_mse=%.6f best_r2=%.6f mean_tree_size=%.2f distinct=%d\n",
			d.Generation,
			d.BestFitness,
			d.MeanFitness,
			d.MinFitness,
			d.BestMSE,
			d.BestR2,
			d.MeanTreeSize,
			d.DistinctExpressions,
		)
	}
	return nil
}

func runPlot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id (empty uses the most recent run)")
	outPath := fs.String("out", "", "output PNG path (empty uses <artifacts-dir>/<run-id>/fitness.png)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	artifactsDir := fs.String("artifacts-dir", defaultArtifactsDir, "artifacts output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := symregapi.New(symregapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: *artifactsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	written, err := client.Plot(ctx, *runID, *outPath)
	if err != nil {
		return err
	}
	fmt.Printf("plot written to %s\n", filepath.Clean(written))
	return nil
}

func runDataInfo(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("data-info", flag.ContinueOnError)
	datasetName := fs.String("dataset", dataset.SyntheticPoly3, "synthetic problem name or CSV file path")
	samples := fs.Int("samples", 200, "sample count for synthetic datasets")
	seed := fs.Int64("seed", 1, "rng seed for synthetic datasets")
	jsonOut := fs.Bool("json", false, "emit summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := symregapi.New(symregapi.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.DataInfo(*datasetName, *samples, *seed)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("dataset=%s rows=%s\n", *datasetName, humanize.Comma(int64(summary.Rows)))
	for _, v := range summary.Variables {
		fmt.Printf("variable=%s mean=%.4f std=%.4f min=%.4f max=%.4f target_correlation=%.4f\n",
			v.Name, v.Mean, v.StdDev, v.Min, v.Max, v.TargetCorrelation)
	}
	fmt.Printf("target mean=%.4f std=%.4f min=%.4f max=%.4f\n",
		summary.Target.Mean, summary.Target.StdDev, summary.Target.Min, summary.Target.Max)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: symregctl <init|run|runs|fitness|top|diagnostics|plot|data-info> [flags]", msg)
}

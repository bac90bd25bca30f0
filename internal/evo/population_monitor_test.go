package evo

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/dataset"
	"symreg/internal/expr"
	"symreg/internal/scape"
)

func lineScape(t *testing.T) *scape.RegressionScape {
	t.Helper()
	table := &dataset.Table{
		Name:          "line",
		X:             mat.NewDense(5, 1, []float64{0, 1, 2, 3, 4}),
		Y:             []float64{2, 3, 4, 5, 6}, // y = x0 + 2
		VariableNames: []string{"x0"},
	}
	s, err := scape.NewRegressionScape("line", table, nil)
	if err != nil {
		t.Fatalf("new scape: %v", err)
	}
	return s
}

func lineMonitorConfig(s scape.Scape, seed int64) MonitorConfig {
	return MonitorConfig{
		Scape:                s,
		PopulationSize:       60,
		EliteCount:           4,
		Generations:          25,
		Workers:              4,
		Seed:                 seed,
		CrossoverProbability: 0.4,
		Generator:            expr.GeneratorConfig{MaxDepth: 4, NVariables: 1},
		Mutator:              expr.MutatorConfig{MutationProbability: 0.6},
		Selector:             TournamentSelector{},
	}
}

func TestMonitorImprovesFitnessOnLine(t *testing.T) {
	monitor, err := NewPopulationMonitor(lineMonitorConfig(lineScape(t), 42))
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	result, err := monitor.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.BestByGeneration) == 0 {
		t.Fatal("missing fitness history")
	}

	first := result.BestByGeneration[0]
	last := result.BestByGeneration[len(result.BestByGeneration)-1]
	if last < first {
		t.Fatalf("elitism must keep best fitness monotone: first=%v last=%v", first, last)
	}
	if result.Best.Tree == nil {
		t.Fatal("missing best individual")
	}
	if result.Best.Fitness < 0.5 {
		t.Fatalf("line fit too poor after %d generations: fitness=%v expr=%s",
			len(result.BestByGeneration), result.Best.Fitness, expr.Render(result.Best.Tree))
	}
	if err := expr.Validate(result.Best.Tree, 1); err != nil {
		t.Fatalf("best tree invalid: %v", err)
	}
	if result.Evaluations != int64(60*len(result.BestByGeneration)) {
		t.Fatalf("evaluation count: got %d over %d generations", result.Evaluations, len(result.BestByGeneration))
	}
}

func TestMonitorReproducibleBySeed(t *testing.T) {
	runOnce := func() RunResult {
		monitor, err := NewPopulationMonitor(lineMonitorConfig(lineScape(t), 7))
		if err != nil {
			t.Fatalf("new monitor: %v", err)
		}
		result, err := monitor.Run(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return result
	}

	a, b := runOnce(), runOnce()
	if len(a.BestByGeneration) != len(b.BestByGeneration) {
		t.Fatalf("history lengths differ: %d vs %d", len(a.BestByGeneration), len(b.BestByGeneration))
	}
	for i := range a.BestByGeneration {
		if a.BestByGeneration[i] != b.BestByGeneration[i] {
			t.Fatalf("generation %d diverged: %v vs %v", i+1, a.BestByGeneration[i], b.BestByGeneration[i])
		}
	}
	if expr.Render(a.Best.Tree) != expr.Render(b.Best.Tree) {
		t.Fatalf("best trees diverged: %s vs %s", expr.Render(a.Best.Tree), expr.Render(b.Best.Tree))
	}
}

func TestMonitorFitnessGoalStopsEarly(t *testing.T) {
	cfg := lineMonitorConfig(lineScape(t), 42)
	cfg.Generations = 200
	cfg.FitnessGoal = 0.2 // trivially reachable
	monitor, err := NewPopulationMonitor(cfg)
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	result, err := monitor.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.BestByGeneration) >= 200 {
		t.Fatalf("goal did not stop the run: %d generations", len(result.BestByGeneration))
	}
	if last := result.BestByGeneration[len(result.BestByGeneration)-1]; last < 0.2 {
		t.Fatalf("stopped below goal: %v", last)
	}
}

func TestMonitorDiagnostics(t *testing.T) {
	cfg := lineMonitorConfig(lineScape(t), 3)
	cfg.Generations = 5
	monitor, err := NewPopulationMonitor(cfg)
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	result, err := monitor.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Diagnostics) != 5 {
		t.Fatalf("diagnostics count: %d", len(result.Diagnostics))
	}
	for i, d := range result.Diagnostics {
		if d.Generation != i+1 {
			t.Fatalf("generation numbering: got %d at index %d", d.Generation, i)
		}
		if d.BestFitness < d.MeanFitness || d.MeanFitness < d.MinFitness {
			t.Fatalf("fitness ordering broken: %+v", d)
		}
		if d.MeanTreeSize < 1 {
			t.Fatalf("mean tree size: %v", d.MeanTreeSize)
		}
		if d.DistinctExpressions < 1 || d.DistinctExpressions > 60 {
			t.Fatalf("distinct expressions: %d", d.DistinctExpressions)
		}
		if math.IsNaN(d.BestMSE) {
			t.Fatalf("best mse is NaN at generation %d", d.Generation)
		}
	}
}

func TestMonitorContextCancellation(t *testing.T) {
	monitor, err := NewPopulationMonitor(lineMonitorConfig(lineScape(t), 1))
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := monitor.Run(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestMonitorParsimonyShrinksTrees(t *testing.T) {
	base := lineMonitorConfig(lineScape(t), 11)
	base.Generations = 15

	withPressure := base
	withPressure.Postprocessor = SizeProportionalPostprocessor{}

	run := func(cfg MonitorConfig) RunResult {
		monitor, err := NewPopulationMonitor(cfg)
		if err != nil {
			t.Fatalf("new monitor: %v", err)
		}
		result, err := monitor.Run(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return result
	}

	plain := run(base)
	pressured := run(withPressure)
	if plain.Best.Tree == nil || pressured.Best.Tree == nil {
		t.Fatal("missing best trees")
	}
	// Not a strict inequality across all seeds, but the pressured run
	// must never produce an unboundedly larger winner.
	if pressured.Best.Size > plain.Best.Size*3+10 {
		t.Fatalf("parsimony run grew: pressured=%d plain=%d", pressured.Best.Size, plain.Best.Size)
	}
}

func TestNewPopulationMonitorValidation(t *testing.T) {
	s := lineScape(t)
	valid := lineMonitorConfig(s, 1)

	cases := []struct {
		name   string
		mutate func(cfg *MonitorConfig)
	}{
		{"missing scape", func(cfg *MonitorConfig) { cfg.Scape = nil }},
		{"zero population", func(cfg *MonitorConfig) { cfg.PopulationSize = 0 }},
		{"zero elites", func(cfg *MonitorConfig) { cfg.EliteCount = 0 }},
		{"elites above population", func(cfg *MonitorConfig) { cfg.EliteCount = cfg.PopulationSize + 1 }},
		{"zero generations", func(cfg *MonitorConfig) { cfg.Generations = 0 }},
		{"crossover probability above one", func(cfg *MonitorConfig) { cfg.CrossoverProbability = 1.1 }},
		{"bad generator config", func(cfg *MonitorConfig) { cfg.Generator.MaxDepth = 0 }},
		{"bad mutator config", func(cfg *MonitorConfig) { cfg.Mutator.MutationProbability = 2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			if _, err := NewPopulationMonitor(cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}

func TestMonitorDefaultsWorkersAndSelector(t *testing.T) {
	cfg := lineMonitorConfig(lineScape(t), 5)
	cfg.Workers = 0
	cfg.Selector = nil
	cfg.Generations = 2
	monitor, err := NewPopulationMonitor(cfg)
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	if _, err := monitor.Run(context.Background()); err != nil {
		t.Fatalf("run with defaults: %v", err)
	}
}

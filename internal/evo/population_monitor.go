package evo

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"

	"symreg/internal/expr"
	"symreg/internal/model"
	"symreg/internal/scape"
)

// RunResult carries the outcome of one evolution run.
type RunResult struct {
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
	Final            []model.Individual
	Best             model.Individual
	Evaluations      int64
}

// MonitorConfig wires the collaborators and tunables of one run.
// GeneratorConfig and MutatorConfig are passed through to the
// expression layer; NVariables must match the scape's dataset width.
type MonitorConfig struct {
	Scape scape.Scape

	PopulationSize int
	EliteCount     int
	Generations    int
	Workers        int
	Seed           int64

	CrossoverProbability float64
	// FitnessGoal stops the run early once the best fitness reaches it.
	// Zero disables early stopping.
	FitnessGoal float64

	Generator expr.GeneratorConfig
	Mutator   expr.MutatorConfig

	Selector      Selector
	Postprocessor FitnessPostprocessor
}

// PopulationMonitor drives the generational loop: evaluate, rank,
// carry elites, breed the remainder by selection, crossover, and
// mutation. All stochastic choices flow through one seeded random
// source, so runs are reproducible; only fitness evaluation fans out
// across workers.
type PopulationMonitor struct {
	cfg MonitorConfig
	rng *rand.Rand
	gen *expr.Generator
	mut *expr.Mutator
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Scape == nil {
		return nil, fmt.Errorf("scape is required")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.EliteCount <= 0 || cfg.EliteCount > cfg.PopulationSize {
		return nil, fmt.Errorf("elite count must be in [1, population size]")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.CrossoverProbability < 0 || cfg.CrossoverProbability > 1 {
		return nil, fmt.Errorf("crossover probability must be in [0, 1], got %v", cfg.CrossoverProbability)
	}
	if cfg.Selector == nil {
		cfg.Selector = EliteSelector{}
	}
	if cfg.Postprocessor == nil {
		cfg.Postprocessor = NoopFitnessPostprocessor{}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	gen, err := expr.NewGenerator(cfg.Generator, rng)
	if err != nil {
		return nil, fmt.Errorf("tree generator: %w", err)
	}
	mut, err := expr.NewMutator(cfg.Mutator, gen, rng)
	if err != nil {
		return nil, fmt.Errorf("mutation engine: %w", err)
	}

	return &PopulationMonitor{cfg: cfg, rng: rng, gen: gen, mut: mut}, nil
}

// Run seeds a fresh population and evolves it for the configured number
// of generations, or until the fitness goal is reached.
func (m *PopulationMonitor) Run(ctx context.Context) (RunResult, error) {
	population := make([]*model.Node, m.cfg.PopulationSize)
	for i := range population {
		population[i] = m.gen.RandomTree(0)
	}

	bestHistory := make([]float64, 0, m.cfg.Generations)
	diagnostics := make([]model.GenerationDiagnostics, 0, m.cfg.Generations)
	var best model.Individual
	var evaluations int64
	var ranked []model.Individual

	for gen := 0; gen < m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		scored, err := m.evaluatePopulation(ctx, population)
		if err != nil {
			return RunResult{}, err
		}
		evaluations += int64(len(scored))

		ranked = m.cfg.Postprocessor.Process(scored)
		sort.Slice(ranked, func(i, j int) bool {
			return ranked[i].Fitness > ranked[j].Fitness
		})

		bestHistory = append(bestHistory, ranked[0].Fitness)
		diagnostics = append(diagnostics, summarizeGeneration(ranked, gen+1))
		if gen == 0 || ranked[0].Fitness > best.Fitness {
			best = ranked[0]
			best.Tree = expr.Clone(best.Tree)
		}

		if m.cfg.FitnessGoal > 0 && ranked[0].Fitness >= m.cfg.FitnessGoal {
			break
		}
		if gen == m.cfg.Generations-1 {
			break
		}

		population, err = m.nextGeneration(ctx, ranked)
		if err != nil {
			return RunResult{}, err
		}
	}

	return RunResult{
		BestByGeneration: bestHistory,
		Diagnostics:      diagnostics,
		Final:            ranked,
		Best:             best,
		Evaluations:      evaluations,
	}, nil
}

func (m *PopulationMonitor) evaluatePopulation(ctx context.Context, population []*model.Node) ([]model.Individual, error) {
	type job struct {
		idx  int
		tree *model.Node
	}
	type result struct {
		idx    int
		scored model.Individual
		err    error
	}

	jobs := make(chan job)
	results := make(chan result, len(population))

	workerCount := m.cfg.Workers
	if workerCount > len(population) {
		workerCount = len(population)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				fitness, score, err := m.cfg.Scape.Evaluate(ctx, j.tree)
				if err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				results <- result{idx: j.idx, scored: model.Individual{
					ID:      uuid.NewString(),
					Tree:    j.tree,
					Fitness: float64(fitness),
					MSE:     score.MSE,
					R2:      score.R2,
					Size:    expr.Size(j.tree),
					Depth:   expr.Depth(j.tree),
				}}
			}
		}()
	}

	for i := range population {
		jobs <- job{idx: i, tree: population[i]}
	}
	close(jobs)

	wg.Wait()
	close(results)

	scored := make([]model.Individual, len(population))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		scored[res.idx] = res.scored
	}
	return scored, nil
}

func (m *PopulationMonitor) nextGeneration(ctx context.Context, ranked []model.Individual) ([]*model.Node, error) {
	next := make([]*model.Node, 0, m.cfg.PopulationSize)
	for i := 0; i < m.cfg.EliteCount; i++ {
		next = append(next, expr.Clone(ranked[i].Tree))
	}

	for len(next) < m.cfg.PopulationSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parent, err := m.cfg.Selector.PickParent(m.rng, ranked, m.cfg.EliteCount)
		if err != nil {
			return nil, err
		}

		child := expr.Clone(parent.Tree)
		if m.cfg.CrossoverProbability > 0 && m.rng.Float64() < m.cfg.CrossoverProbability {
			mate, err := m.cfg.Selector.PickParent(m.rng, ranked, m.cfg.EliteCount)
			if err != nil {
				return nil, err
			}
			child, err = Crossover(m.rng, child, mate.Tree, m.gen.Config().MaxDepth)
			if err != nil {
				return nil, err
			}
		}

		next = append(next, m.mut.Mutate(child))
	}
	return next, nil
}

func summarizeGeneration(ranked []model.Individual, generation int) model.GenerationDiagnostics {
	if len(ranked) == 0 {
		return model.GenerationDiagnostics{Generation: generation}
	}

	total := 0.0
	sizeTotal := 0
	minFitness := ranked[0].Fitness
	expressions := make(map[string]struct{}, len(ranked))
	for _, item := range ranked {
		total += item.Fitness
		sizeTotal += item.Size
		if item.Fitness < minFitness {
			minFitness = item.Fitness
		}
		expressions[expr.Render(item.Tree)] = struct{}{}
	}

	return model.GenerationDiagnostics{
		Generation:          generation,
		BestFitness:         ranked[0].Fitness,
		MeanFitness:         total / float64(len(ranked)),
		MinFitness:          minFitness,
		BestMSE:             ranked[0].MSE,
		BestR2:              ranked[0].R2,
		MeanTreeSize:        float64(sizeTotal) / float64(len(ranked)),
		DistinctExpressions: len(expressions),
	}
}

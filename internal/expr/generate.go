package expr

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"symreg/internal/model"
)

// Default generator tunables, mirroring the reference configuration.
const (
	DefaultVariableProbability      = 0.3
	DefaultOperatorProbability      = 0.9
	DefaultUnaryOperatorProbability = 0.3
	DefaultRootVariableSideProb     = 0.5
)

var (
	defaultFloorConstantRange = [2]float64{-5, 5}
	defaultConstantRange      = [2]float64{-5, 5}
)

// GeneratorConfig bounds and biases random tree synthesis. Nil weight
// maps default to a uniform distribution over the full registry; an
// explicitly empty map (or one whose weights are all non-positive) is a
// configuration error.
type GeneratorConfig struct {
	MaxDepth   int
	NVariables int

	UnaryWeights  map[string]float64
	BinaryWeights map[string]float64

	// VariableProbability selects a variable leaf over a constant leaf
	// at terminal positions.
	VariableProbability float64
	// OperatorProbability selects an operator node over a terminal at
	// intermediate depths.
	OperatorProbability float64
	// UnaryOperatorProbability selects a unary over a binary operator
	// once an operator node has been chosen.
	UnaryOperatorProbability float64
	// RootVariableSideProbability places the forced root variable on
	// the left rather than the right side.
	RootVariableSideProbability float64

	// ConstantRange bounds constants at intermediate depths;
	// FloorConstantRange bounds constants at the depth floor.
	ConstantRange      [2]float64
	FloorConstantRange [2]float64
}

// Generator synthesizes random expression trees under a depth budget.
// Every generated root contains at least one variable reference.
type Generator struct {
	cfg    GeneratorConfig
	rng    *rand.Rand
	unary  weightedChoice
	binary weightedChoice
}

func NewGenerator(cfg GeneratorConfig, rng *rand.Rand) (*Generator, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if cfg.MaxDepth <= 0 {
		return nil, fmt.Errorf("max depth must be > 0, got %d", cfg.MaxDepth)
	}
	if cfg.NVariables <= 0 {
		return nil, fmt.Errorf("n variables must be > 0, got %d", cfg.NVariables)
	}

	if cfg.VariableProbability == 0 {
		cfg.VariableProbability = DefaultVariableProbability
	}
	if cfg.OperatorProbability == 0 {
		cfg.OperatorProbability = DefaultOperatorProbability
	}
	if cfg.UnaryOperatorProbability == 0 {
		cfg.UnaryOperatorProbability = DefaultUnaryOperatorProbability
	}
	if cfg.RootVariableSideProbability == 0 {
		cfg.RootVariableSideProbability = DefaultRootVariableSideProb
	}
	for _, p := range []float64{
		cfg.VariableProbability,
		cfg.OperatorProbability,
		cfg.UnaryOperatorProbability,
		cfg.RootVariableSideProbability,
	} {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("probabilities must be in [0, 1], got %v", p)
		}
	}

	if cfg.ConstantRange == [2]float64{} {
		cfg.ConstantRange = defaultConstantRange
	}
	if cfg.FloorConstantRange == [2]float64{} {
		cfg.FloorConstantRange = defaultFloorConstantRange
	}
	if cfg.ConstantRange[0] > cfg.ConstantRange[1] {
		return nil, fmt.Errorf("constant range is inverted: %v", cfg.ConstantRange)
	}
	if cfg.FloorConstantRange[0] > cfg.FloorConstantRange[1] {
		return nil, fmt.Errorf("floor constant range is inverted: %v", cfg.FloorConstantRange)
	}

	unary, err := newWeightedChoice(cfg.UnaryWeights, ListUnary())
	if err != nil {
		return nil, fmt.Errorf("unary weights: %w", err)
	}
	binary, err := newWeightedChoice(cfg.BinaryWeights, ListBinary())
	if err != nil {
		return nil, fmt.Errorf("binary weights: %w", err)
	}
	for _, symbol := range unary.symbols {
		if !IsUnary(symbol) {
			return nil, fmt.Errorf("unary weights: %w: %s", ErrOperatorNotFound, symbol)
		}
	}
	for _, symbol := range binary.symbols {
		if !IsBinary(symbol) {
			return nil, fmt.Errorf("binary weights: %w: %s", ErrOperatorNotFound, symbol)
		}
	}

	return &Generator{cfg: cfg, rng: rng, unary: unary, binary: binary}, nil
}

// Config returns the generator's effective configuration with defaults
// applied.
func (g *Generator) Config() GeneratorConfig {
	return g.cfg
}

// RandomTree synthesizes a tree starting at the given depth, bounded by
// the configured maximum. Callers seed populations with depth 0.
func (g *Generator) RandomTree(depth int) *model.Node {
	return g.randomTreeAt(depth, g.cfg.MaxDepth)
}

// randomTreeAt generates under a local depth ceiling, used by subtree
// replacement to respect the remaining budget at the mutation point.
func (g *Generator) randomTreeAt(depth, ceiling int) *model.Node {
	if ceiling > g.cfg.MaxDepth {
		ceiling = g.cfg.MaxDepth
	}

	// Root rule: a binary operator with one forced variable child, so
	// every seeded tree references at least one input column.
	if depth == 0 {
		node := &model.Node{Kind: model.NodeOperator, Op: g.binary.pick(g.rng)}
		variable := &model.Node{Kind: model.NodeVariable, Index: g.rng.Intn(g.cfg.NVariables)}
		if g.rng.Float64() < g.cfg.RootVariableSideProbability {
			node.Left = variable
			node.Right = g.randomTreeAt(depth+1, ceiling)
		} else {
			node.Left = g.randomTreeAt(depth+1, ceiling)
			node.Right = variable
		}
		return node
	}

	if depth >= ceiling {
		return g.terminal(g.cfg.FloorConstantRange)
	}

	if g.rng.Float64() < g.cfg.OperatorProbability {
		if g.rng.Float64() < g.cfg.UnaryOperatorProbability {
			return &model.Node{
				Kind: model.NodeOperator,
				Op:   g.unary.pick(g.rng),
				Left: g.randomTreeAt(depth+1, ceiling),
			}
		}
		return &model.Node{
			Kind:  model.NodeOperator,
			Op:    g.binary.pick(g.rng),
			Left:  g.randomTreeAt(depth+1, ceiling),
			Right: g.randomTreeAt(depth+1, ceiling),
		}
	}
	return g.terminal(g.cfg.ConstantRange)
}

func (g *Generator) terminal(constantRange [2]float64) *model.Node {
	if g.rng.Float64() < g.cfg.VariableProbability {
		return &model.Node{Kind: model.NodeVariable, Index: g.rng.Intn(g.cfg.NVariables)}
	}
	return &model.Node{Kind: model.NodeConstant, Value: uniformIn(g.rng, constantRange)}
}

func uniformIn(rng *rand.Rand, bounds [2]float64) float64 {
	return bounds[0] + rng.Float64()*(bounds[1]-bounds[0])
}

// CreateRandomTree is the package-level entry matching the evolution
// loop's interface: it builds a default-configured generator for one
// synthesis call. Loops that generate repeatedly should hold a
// Generator instead.
func CreateRandomTree(rng *rand.Rand, depth, maxDepth, nVariables int, unaryWeights, binaryWeights map[string]float64) (*model.Node, error) {
	gen, err := NewGenerator(GeneratorConfig{
		MaxDepth:      maxDepth,
		NVariables:    nVariables,
		UnaryWeights:  unaryWeights,
		BinaryWeights: binaryWeights,
	}, rng)
	if err != nil {
		return nil, err
	}
	if depth < 0 {
		return nil, fmt.Errorf("depth must be >= 0, got %d", depth)
	}
	return gen.RandomTree(depth), nil
}

// weightedChoice draws symbols by multinomial choice over unnormalized
// positive weights. Symbols are kept sorted so draws are reproducible
// for a fixed seed.
type weightedChoice struct {
	symbols []string
	cum     []float64
	total   float64
}

func newWeightedChoice(weights map[string]float64, fallback []string) (weightedChoice, error) {
	if weights == nil {
		weights = make(map[string]float64, len(fallback))
		for _, symbol := range fallback {
			weights[symbol] = 1
		}
	}

	symbols := make([]string, 0, len(weights))
	for symbol, w := range weights {
		if w <= 0 {
			continue
		}
		symbols = append(symbols, symbol)
	}
	if len(symbols) == 0 {
		return weightedChoice{}, errors.New("no positive weights")
	}
	sort.Strings(symbols)

	cum := make([]float64, len(symbols))
	total := 0.0
	for i, symbol := range symbols {
		total += weights[symbol]
		cum[i] = total
	}
	return weightedChoice{symbols: symbols, cum: cum, total: total}, nil
}

func (c weightedChoice) pick(rng *rand.Rand) string {
	target := rng.Float64() * c.total
	idx := sort.SearchFloat64s(c.cum, target)
	if idx >= len(c.symbols) {
		idx = len(c.symbols) - 1
	}
	return c.symbols[idx]
}

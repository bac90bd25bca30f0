package expr

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"symreg/internal/model"
)

// MutationType tags one of the structural mutation families. The
// constant-perturbation family carries its own tag; the reference
// implementation dispatched it under the operator-swap tag, which made
// the branch unreachable.
type MutationType string

const (
	MutationSubtree  MutationType = "subtree"
	MutationOperator MutationType = "operator"
	MutationConstant MutationType = "constant"
	MutationSimplify MutationType = "simplify"
)

// Default mutation tunables.
const (
	DefaultValueStepFactor = 0.1
	DefaultMutationDecay   = 0.3
)

var defaultSubtreeDepthRange = [2]int{1, 3}

func defaultMutationWeights() map[MutationType]float64 {
	return map[MutationType]float64{
		MutationSubtree:  0.3,
		MutationOperator: 0.3,
		MutationConstant: 0.25,
		MutationSimplify: 0.15,
	}
}

// MutatorConfig tunes the mutation engine. MutationDecay attenuates the
// mutation probability per recursion level; it is deliberately a
// separate field from the generator's VariableProbability even though
// both default to the same value.
type MutatorConfig struct {
	MutationProbability float64
	MutationWeights     map[MutationType]float64
	SubtreeDepthRange   [2]int
	ValueStepFactor     float64
	MutationDecay       float64
}

// Mutator applies probabilistic structural mutations to expression
// trees. It draws exclusively from its own random source and the
// read-only weight tables, so concurrent populations stay reproducible
// by deriving one Mutator per worker from a fixed seed.
type Mutator struct {
	cfg   MutatorConfig
	gen   *Generator
	rng   *rand.Rand
	types weightedMutationChoice
}

func NewMutator(cfg MutatorConfig, gen *Generator, rng *rand.Rand) (*Mutator, error) {
	if gen == nil {
		return nil, errors.New("tree generator is required")
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if cfg.MutationProbability < 0 || cfg.MutationProbability > 1 {
		return nil, fmt.Errorf("mutation probability must be in [0, 1], got %v", cfg.MutationProbability)
	}
	if cfg.MutationWeights == nil {
		cfg.MutationWeights = defaultMutationWeights()
	}
	if cfg.SubtreeDepthRange == [2]int{} {
		cfg.SubtreeDepthRange = defaultSubtreeDepthRange
	}
	if cfg.SubtreeDepthRange[0] <= 0 || cfg.SubtreeDepthRange[1] < cfg.SubtreeDepthRange[0] {
		return nil, fmt.Errorf("subtree depth range must satisfy 0 < min <= max, got %v", cfg.SubtreeDepthRange)
	}
	if cfg.ValueStepFactor == 0 {
		cfg.ValueStepFactor = DefaultValueStepFactor
	}
	if cfg.ValueStepFactor < 0 {
		return nil, fmt.Errorf("value step factor must be > 0, got %v", cfg.ValueStepFactor)
	}
	if cfg.MutationDecay == 0 {
		cfg.MutationDecay = DefaultMutationDecay
	}
	if cfg.MutationDecay < 0 || cfg.MutationDecay > 1 {
		return nil, fmt.Errorf("mutation decay must be in [0, 1], got %v", cfg.MutationDecay)
	}

	types, err := newWeightedMutationChoice(cfg.MutationWeights)
	if err != nil {
		return nil, fmt.Errorf("mutation weights: %w", err)
	}

	return &Mutator{cfg: cfg, gen: gen, rng: rng, types: types}, nil
}

// Mutate applies the configured mutation pass to the tree and returns
// the node that should now occupy the caller's slot. The returned node
// may differ from the input (subtree replacement, simplification
// folding), so callers must always adopt the return value.
func (m *Mutator) Mutate(node *model.Node) *model.Node {
	return m.mutateAt(node, m.cfg.MutationProbability, 0)
}

func (m *Mutator) mutateAt(node *model.Node, prob float64, depth int) *model.Node {
	if node == nil {
		return nil
	}

	if m.rng.Float64() < prob {
		switch m.types.pick(m.rng) {
		case MutationSubtree:
			// Replacement respects the remaining depth budget at this
			// point in the tree, not the global maximum. The fresh
			// subtree is returned without recursing into it.
			span := m.cfg.SubtreeDepthRange[0]
			if spread := m.cfg.SubtreeDepthRange[1] - m.cfg.SubtreeDepthRange[0]; spread > 0 {
				span += m.rng.Intn(spread + 1)
			}
			ceiling := depth + span
			if ceiling > m.gen.cfg.MaxDepth {
				ceiling = m.gen.cfg.MaxDepth
			}
			return m.gen.randomTreeAt(depth, ceiling)

		case MutationOperator:
			// Swap within the same arity pool. A node whose symbol is
			// in neither registry is tolerated as an explicit no-op.
			switch {
			case node.Kind == model.NodeOperator && IsUnary(node.Op):
				node.Op = m.gen.unary.pick(m.rng)
			case node.Kind == model.NodeOperator && IsBinary(node.Op):
				node.Op = m.gen.binary.pick(m.rng)
			}

		case MutationConstant:
			if node.Kind == model.NodeConstant {
				step := m.cfg.ValueStepFactor
				if node.Value != 0 {
					step = math.Abs(node.Value) * m.cfg.ValueStepFactor
				}
				perturbed := node.Value + m.rng.NormFloat64()*step
				if !math.IsNaN(perturbed) && !math.IsInf(perturbed, 0) {
					node.Value = perturbed
				}
			}

		case MutationSimplify:
			if folded, ok := simplifyProduct(node); ok {
				return folded
			}
		}
	}

	decayed := prob * m.cfg.MutationDecay
	if node.Left != nil {
		node.Left = m.mutateAt(node.Left, decayed, depth+1)
	}
	if node.Right != nil {
		node.Right = m.mutateAt(node.Right, decayed, depth+1)
	}
	return node
}

// simplifyProduct folds the hard-coded multiplicative identities on a
// product node: 0*X and X*0 collapse to a constant zero, 1*X and X*1
// collapse to a copy of the surviving operand. The check is shallow: it
// inspects immediate-child constants only, never evaluated subtrees.
func simplifyProduct(node *model.Node) (*model.Node, bool) {
	if node == nil || node.Kind != model.NodeOperator || node.Op != "*" {
		return nil, false
	}
	if isConstantValue(node.Left, 0) || isConstantValue(node.Right, 0) {
		return &model.Node{Kind: model.NodeConstant, Value: 0}, true
	}
	if isConstantValue(node.Left, 1) && node.Right != nil {
		return Clone(node.Right), true
	}
	if isConstantValue(node.Right, 1) && node.Left != nil {
		return Clone(node.Left), true
	}
	return nil, false
}

func isConstantValue(node *model.Node, value float64) bool {
	return node != nil && node.Kind == model.NodeConstant && node.Value == value
}

// Mutate is the package-level entry matching the evolution loop's
// interface: one mutation pass with default tunables. Loops that mutate
// repeatedly should hold a Mutator instead.
func Mutate(rng *rand.Rand, node *model.Node, mutationProb float64, maxDepth, nVariables int, unaryWeights, binaryWeights map[string]float64) (*model.Node, error) {
	gen, err := NewGenerator(GeneratorConfig{
		MaxDepth:      maxDepth,
		NVariables:    nVariables,
		UnaryWeights:  unaryWeights,
		BinaryWeights: binaryWeights,
	}, rng)
	if err != nil {
		return nil, err
	}
	mut, err := NewMutator(MutatorConfig{MutationProbability: mutationProb}, gen, rng)
	if err != nil {
		return nil, err
	}
	return mut.Mutate(node), nil
}

type weightedMutationChoice struct {
	types []MutationType
	cum   []float64
	total float64
}

func newWeightedMutationChoice(weights map[MutationType]float64) (weightedMutationChoice, error) {
	known := map[MutationType]struct{}{
		MutationSubtree:  {},
		MutationOperator: {},
		MutationConstant: {},
		MutationSimplify: {},
	}
	types := make([]MutationType, 0, len(weights))
	for mt, w := range weights {
		if _, ok := known[mt]; !ok {
			return weightedMutationChoice{}, fmt.Errorf("unknown mutation type %q", mt)
		}
		if w < 0 {
			return weightedMutationChoice{}, fmt.Errorf("mutation weight must be >= 0, got %v for %q", w, mt)
		}
		if w > 0 {
			types = append(types, mt)
		}
	}
	if len(types) == 0 {
		return weightedMutationChoice{}, errors.New("no positive weights")
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	cum := make([]float64, len(types))
	total := 0.0
	for i, mt := range types {
		total += weights[mt]
		cum[i] = total
	}
	return weightedMutationChoice{types: types, cum: cum, total: total}, nil
}

func (c weightedMutationChoice) pick(rng *rand.Rand) MutationType {
	target := rng.Float64() * c.total
	idx := sort.SearchFloat64s(c.cum, target)
	if idx >= len(c.types) {
		idx = len(c.types) - 1
	}
	return c.types[idx]
}

package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// NodeKind distinguishes the three expression node variants.
type NodeKind string

const (
	NodeOperator NodeKind = "operator"
	NodeVariable NodeKind = "variable"
	NodeConstant NodeKind = "constant"
)

// Node is one vertex of an expression tree. Exactly one payload is
// meaningful per kind: Op for operators, Index for variables, Value for
// constants. A node owns its children exclusively; trees never share
// structure and carry no parent references.
type Node struct {
	Kind  NodeKind `json:"kind"`
	Op    string   `json:"op,omitempty"`
	Index int      `json:"index,omitempty"`
	Value float64  `json:"value,omitempty"`
	Left  *Node    `json:"left,omitempty"`
	Right *Node    `json:"right,omitempty"`
}

// Individual is one member of a GP population together with its scores.
type Individual struct {
	ID      string  `json:"id"`
	Tree    *Node   `json:"tree"`
	Fitness float64 `json:"fitness"`
	MSE     float64 `json:"mse"`
	R2      float64 `json:"r2"`
	Size    int     `json:"size"`
	Depth   int     `json:"depth"`
}

// RunRecord summarizes one completed evolution run.
type RunRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	Dataset        string  `json:"dataset"`
	Seed           int64   `json:"seed"`
	Population     int     `json:"population"`
	Generations    int     `json:"generations"`
	Workers        int     `json:"workers"`
	Evaluations    int64   `json:"evaluations"`
	BestExpression string  `json:"best_expression"`
	BestFitness    float64 `json:"best_fitness"`
	BestMSE        float64 `json:"best_mse"`
	BestR2         float64 `json:"best_r2"`
	ValidationMSE  float64 `json:"validation_mse"`
	ValidationR2   float64 `json:"validation_r2"`
}

// GenerationDiagnostics captures per-generation population health.
type GenerationDiagnostics struct {
	Generation          int     `json:"generation"`
	BestFitness         float64 `json:"best_fitness"`
	MeanFitness         float64 `json:"mean_fitness"`
	MinFitness          float64 `json:"min_fitness"`
	BestMSE             float64 `json:"best_mse"`
	BestR2              float64 `json:"best_r2"`
	MeanTreeSize        float64 `json:"mean_tree_size"`
	DistinctExpressions int     `json:"distinct_expressions"`
}

// TopExpressionRecord is one ranked entry of a run's final population.
type TopExpressionRecord struct {
	VersionedRecord
	RunID      string  `json:"run_id"`
	Rank       int     `json:"rank"`
	Expression string  `json:"expression"`
	Fitness    float64 `json:"fitness"`
	MSE        float64 `json:"mse"`
	R2         float64 `json:"r2"`
	Size       int     `json:"size"`
	Depth      int     `json:"depth"`
}

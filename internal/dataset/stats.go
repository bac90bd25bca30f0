package dataset

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// VariableStats summarizes one feature column, including its Pearson
// correlation with the target vector.
type VariableStats struct {
	Name              string  `json:"name"`
	Mean              float64 `json:"mean"`
	StdDev            float64 `json:"std_dev"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	TargetCorrelation float64 `json:"target_correlation"`
}

// TargetStats summarizes the target vector.
type TargetStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary reports per-variable statistics plus the target summary.
type Summary struct {
	Rows      int             `json:"rows"`
	Variables []VariableStats `json:"variables"`
	Target    TargetStats     `json:"target"`
}

// Summarize computes the dataset summary for reporting and the CLI
// data-info command.
func Summarize(t *Table) Summary {
	rows, cols := t.Rows(), t.Cols()
	summary := Summary{Rows: rows}
	if rows == 0 {
		return summary
	}

	summary.Variables = make([]VariableStats, cols)
	for col := 0; col < cols; col++ {
		values := mat.Col(nil, col, t.X)
		name := ""
		if col < len(t.VariableNames) {
			name = t.VariableNames[col]
		}
		summary.Variables[col] = VariableStats{
			Name:              name,
			Mean:              stat.Mean(values, nil),
			StdDev:            stat.StdDev(values, nil),
			Min:               minOf(values),
			Max:               maxOf(values),
			TargetCorrelation: stat.Correlation(values, t.Y, nil),
		}
	}
	summary.Target = TargetStats{
		Mean:   stat.Mean(t.Y, nil),
		StdDev: stat.StdDev(t.Y, nil),
		Min:    minOf(t.Y),
		Max:    maxOf(t.Y),
	}
	return summary
}

func minOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

func maxOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

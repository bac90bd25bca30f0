package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyTable      = errors.New("dataset has no rows")
	ErrRaggedRows      = errors.New("dataset rows have inconsistent widths")
	ErrUnknownProblem  = errors.New("unknown synthetic problem")
	ErrInvalidSplit    = errors.New("split ratio must be in (0, 1)")
	ErrTooFewFeatures  = errors.New("dataset needs at least one feature column and one target column")
	ErrNonNumericValue = errors.New("non-numeric value in data row")
)

// Table is an in-memory regression dataset: one feature matrix with
// samples in rows and variables in columns, plus one target vector of
// matching length.
type Table struct {
	Name          string
	X             *mat.Dense
	Y             []float64
	VariableNames []string
}

// Rows returns the sample count.
func (t *Table) Rows() int {
	if t == nil || t.X == nil {
		return 0
	}
	r, _ := t.X.Dims()
	return r
}

// Cols returns the feature (variable) count.
func (t *Table) Cols() int {
	if t == nil || t.X == nil {
		return 0
	}
	_, c := t.X.Dims()
	return c
}

// LoadCSV reads a regression dataset from a CSV file. The last column
// is the target; all preceding columns are features. A first row whose
// cells do not all parse as numbers is treated as a header and supplies
// the variable names, otherwise names default to x0..xk.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTable)
	}

	width := len(records[0])
	if width < 2 {
		return nil, fmt.Errorf("%s: %w", path, ErrTooFewFeatures)
	}

	var names []string
	start := 0
	if !allNumeric(records[0]) {
		names = append([]string(nil), records[0][:width-1]...)
		start = 1
	}
	if len(records) == start {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTable)
	}
	if names == nil {
		names = defaultNames(width - 1)
	}

	rows := len(records) - start
	data := make([]float64, 0, rows*(width-1))
	y := make([]float64, 0, rows)
	for i, record := range records[start:] {
		if len(record) != width {
			return nil, fmt.Errorf("%s row %d: %w", path, start+i+1, ErrRaggedRows)
		}
		for col, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %d: %w: %q", path, start+i+1, col, ErrNonNumericValue, cell)
			}
			if col == width-1 {
				y = append(y, v)
			} else {
				data = append(data, v)
			}
		}
	}

	return &Table{
		Name:          path,
		X:             mat.NewDense(rows, width-1, data),
		Y:             y,
		VariableNames: names,
	}, nil
}

// Split shuffles sample indices and partitions the table into a
// training table holding ratio of the rows and a validation table
// holding the rest. Both partitions are guaranteed non-empty.
func Split(rng *rand.Rand, t *Table, ratio float64) (train, validation *Table, err error) {
	if rng == nil {
		return nil, nil, errors.New("random source is required")
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("%w, got %v", ErrInvalidSplit, ratio)
	}
	rows := t.Rows()
	if rows < 2 {
		return nil, nil, fmt.Errorf("need at least 2 rows to split, got %d", rows)
	}

	indices := rng.Perm(rows)
	cut := int(float64(rows) * ratio)
	if cut < 1 {
		cut = 1
	}
	if cut >= rows {
		cut = rows - 1
	}

	train = t.subset(indices[:cut], t.Name+":train")
	validation = t.subset(indices[cut:], t.Name+":validation")
	return train, validation, nil
}

func (t *Table) subset(indices []int, name string) *Table {
	cols := t.Cols()
	out := mat.NewDense(len(indices), cols, nil)
	y := make([]float64, len(indices))
	for i, idx := range indices {
		out.SetRow(i, mat.Row(nil, idx, t.X))
		y[i] = t.Y[idx]
	}
	return &Table{
		Name:          name,
		X:             out,
		Y:             y,
		VariableNames: append([]string(nil), t.VariableNames...),
	}
}

func allNumeric(record []string) bool {
	for _, cell := range record {
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
	}
	return true
}

func defaultNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i)
	}
	return names
}

package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Synthetic problem names for self-contained runs.
const (
	SyntheticPoly3  = "poly3"
	SyntheticTrig2D = "trig2d"
)

// SyntheticNames lists the built-in problems in a stable order.
func SyntheticNames() []string {
	return []string{SyntheticPoly3, SyntheticTrig2D}
}

// Synthetic generates one of the built-in regression problems with n
// samples drawn from the given random source.
//
//	poly3:  y = x0^3 - 2*x0^2 + x0,          x0 ~ U[-3, 3]
//	trig2d: y = sin(x0) + cos(x1) * x1/2,    x0, x1 ~ U[-pi, pi]
func Synthetic(name string, n int, rng *rand.Rand) (*Table, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if n <= 1 {
		return nil, fmt.Errorf("need at least 2 samples, got %d", n)
	}

	switch name {
	case SyntheticPoly3:
		x := mat.NewDense(n, 1, nil)
		y := make([]float64, n)
		for i := 0; i < n; i++ {
			v := -3 + rng.Float64()*6
			x.Set(i, 0, v)
			y[i] = v*v*v - 2*v*v + v
		}
		return &Table{Name: name, X: x, Y: y, VariableNames: []string{"x0"}}, nil

	case SyntheticTrig2D:
		x := mat.NewDense(n, 2, nil)
		y := make([]float64, n)
		for i := 0; i < n; i++ {
			a := -math.Pi + rng.Float64()*2*math.Pi
			b := -math.Pi + rng.Float64()*2*math.Pi
			x.Set(i, 0, a)
			x.Set(i, 1, b)
			y[i] = math.Sin(a) + math.Cos(b)*b/2
		}
		return &Table{Name: name, X: x, Y: y, VariableNames: []string{"x0", "x1"}}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProblem, name)
	}
}

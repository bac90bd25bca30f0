package expr

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

// UnaryFunc applies an operator element-wise over one operand vector.
// dst and x always have equal length.
type UnaryFunc func(dst, x []float64)

// BinaryFunc applies an operator element-wise over two operand vectors.
// dst, a and b always have equal length.
type BinaryFunc func(dst, a, b []float64)

// The registries hold the operator vocabulary that generation and
// mutation draw from. They are populated at init and read-only at
// runtime. Functions compute plain IEEE arithmetic: division by zero,
// log or sqrt outside the domain, and overflow produce Inf/NaN, which
// propagate through evaluation and are filtered by the scorer.
var unaryRegistry = struct {
	mu sync.RWMutex
	m  map[string]UnaryFunc
}{
	m: make(map[string]UnaryFunc),
}

var binaryRegistry = struct {
	mu sync.RWMutex
	m  map[string]BinaryFunc
}{
	m: make(map[string]BinaryFunc),
}

func init() {
	initializeBuiltInOperators()
}

func initializeBuiltInOperators() {
	MustRegisterBinary("+", func(dst, a, b []float64) {
		for i := range dst {
			dst[i] = a[i] + b[i]
		}
	})
	MustRegisterBinary("-", func(dst, a, b []float64) {
		for i := range dst {
			dst[i] = a[i] - b[i]
		}
	})
	MustRegisterBinary("*", func(dst, a, b []float64) {
		for i := range dst {
			dst[i] = a[i] * b[i]
		}
	})
	MustRegisterBinary("/", func(dst, a, b []float64) {
		for i := range dst {
			dst[i] = a[i] / b[i]
		}
	})
	MustRegisterBinary("^", func(dst, a, b []float64) {
		for i := range dst {
			dst[i] = math.Pow(a[i], b[i])
		}
	})

	MustRegisterUnary("sin", unaryFromScalar(math.Sin))
	MustRegisterUnary("cos", unaryFromScalar(math.Cos))
	MustRegisterUnary("exp", unaryFromScalar(math.Exp))
	MustRegisterUnary("log", unaryFromScalar(math.Log))
	MustRegisterUnary("sqrt", unaryFromScalar(math.Sqrt))
	MustRegisterUnary("abs", unaryFromScalar(math.Abs))
}

func unaryFromScalar(fn func(float64) float64) UnaryFunc {
	return func(dst, x []float64) {
		for i := range dst {
			dst[i] = fn(x[i])
		}
	}
}

func RegisterUnary(symbol string, fn UnaryFunc) error {
	if symbol == "" {
		return errors.New("operator symbol is required")
	}
	if fn == nil {
		return errors.New("operator function is required")
	}

	unaryRegistry.mu.Lock()
	defer unaryRegistry.mu.Unlock()

	if _, exists := unaryRegistry.m[symbol]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, symbol)
	}
	unaryRegistry.m[symbol] = fn
	return nil
}

func MustRegisterUnary(symbol string, fn UnaryFunc) {
	if err := RegisterUnary(symbol, fn); err != nil {
		panic(err)
	}
}

func RegisterBinary(symbol string, fn BinaryFunc) error {
	if symbol == "" {
		return errors.New("operator symbol is required")
	}
	if fn == nil {
		return errors.New("operator function is required")
	}

	binaryRegistry.mu.Lock()
	defer binaryRegistry.mu.Unlock()

	if _, exists := binaryRegistry.m[symbol]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, symbol)
	}
	binaryRegistry.m[symbol] = fn
	return nil
}

func MustRegisterBinary(symbol string, fn BinaryFunc) {
	if err := RegisterBinary(symbol, fn); err != nil {
		panic(err)
	}
}

func LookupUnary(symbol string) (UnaryFunc, error) {
	unaryRegistry.mu.RLock()
	fn, ok := unaryRegistry.m[symbol]
	unaryRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, symbol)
	}
	return fn, nil
}

func LookupBinary(symbol string) (BinaryFunc, error) {
	binaryRegistry.mu.RLock()
	fn, ok := binaryRegistry.m[symbol]
	binaryRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, symbol)
	}
	return fn, nil
}

func IsUnary(symbol string) bool {
	unaryRegistry.mu.RLock()
	defer unaryRegistry.mu.RUnlock()
	_, ok := unaryRegistry.m[symbol]
	return ok
}

func IsBinary(symbol string) bool {
	binaryRegistry.mu.RLock()
	defer binaryRegistry.mu.RUnlock()
	_, ok := binaryRegistry.m[symbol]
	return ok
}

func ListUnary() []string {
	unaryRegistry.mu.RLock()
	defer unaryRegistry.mu.RUnlock()

	symbols := make([]string, 0, len(unaryRegistry.m))
	for symbol := range unaryRegistry.m {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func ListBinary() []string {
	binaryRegistry.mu.RLock()
	defer binaryRegistry.mu.RUnlock()

	symbols := make([]string, 0, len(binaryRegistry.m))
	for symbol := range binaryRegistry.m {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

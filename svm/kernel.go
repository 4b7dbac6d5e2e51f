package svm

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/bgplens/bgplens/pkg/errors"
)

// Supported kernel families.
const (
	KernelRBF    = "rbf"
	KernelLinear = "linear"
)

// Gamma specifies the RBF kernel bandwidth. It is either one of the
// presets "scale" and "auto", or a positive numeric value.
// Fields are exported for gob encoding.
type Gamma struct {
	Preset string  // "scale", "auto", or "" for a numeric value
	Value  float64 // used when Preset is empty
}

// GammaScale returns the "scale" preset: 1 / (n_features * Var(X)).
func GammaScale() Gamma { return Gamma{Preset: "scale"} }

// GammaAuto returns the "auto" preset: 1 / n_features.
func GammaAuto() Gamma { return Gamma{Preset: "auto"} }

// GammaValue returns a numeric gamma.
func GammaValue(v float64) Gamma { return Gamma{Value: v} }

// ParseGamma converts a configuration string into a Gamma.
// Accepted forms: "scale", "auto", or a positive decimal number.
func ParseGamma(s string) (Gamma, error) {
	switch s {
	case "scale":
		return GammaScale(), nil
	case "auto":
		return GammaAuto(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return Gamma{}, errors.NewValueError("ParseGamma", "gamma must be 'scale', 'auto' or a positive number, got "+s)
	}
	return GammaValue(v), nil
}

// String returns the configuration form of the gamma.
func (g Gamma) String() string {
	if g.Preset != "" {
		return g.Preset
	}
	return strconv.FormatFloat(g.Value, 'g', -1, 64)
}

// Resolve computes the numeric bandwidth for the given training data.
func (g Gamma) Resolve(X mat.Matrix) (float64, error) {
	rows, cols := X.Dims()
	if cols == 0 {
		return 0, errors.NewValueError("Gamma.Resolve", "empty matrix")
	}
	switch g.Preset {
	case "":
		if g.Value <= 0 {
			return 0, errors.NewValueError("Gamma.Resolve", "numeric gamma must be positive")
		}
		return g.Value, nil
	case "auto":
		return 1 / float64(cols), nil
	case "scale":
		variance := matrixVariance(X, rows, cols)
		if variance < 1e-12 {
			variance = 1
		}
		return 1 / (float64(cols) * variance), nil
	default:
		return 0, errors.NewValueError("Gamma.Resolve", "unknown gamma preset: "+g.Preset)
	}
}

// matrixVariance computes the population variance over all entries.
func matrixVariance(X mat.Matrix, rows, cols int) float64 {
	values := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			values = append(values, X.At(i, j))
		}
	}
	return stat.PopVariance(values, nil)
}

// kernelFunc returns the kernel evaluation function for the family.
func kernelFunc(kernel string, gamma float64) (func(a, b []float64) float64, error) {
	switch kernel {
	case KernelLinear:
		return dot, nil
	case KernelRBF:
		return func(a, b []float64) float64 {
			var d2 float64
			for i := range a {
				diff := a[i] - b[i]
				d2 += diff * diff
			}
			return math.Exp(-gamma * d2)
		}, nil
	default:
		return nil, errors.NewValueError("kernelFunc", "unknown kernel: "+kernel)
	}
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

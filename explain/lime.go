package explain

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/bgplens/bgplens/pkg/errors"
)

// LIMEExplainer fits a weighted linear surrogate to the model's
// behavior in the neighborhood of one instance. Perturbations are
// drawn from the training feature distribution and weighted by an
// exponential distance kernel.
type LIMEExplainer struct {
	// NSamples is the number of perturbed neighbors to draw.
	NSamples int

	// KernelWidth controls how fast neighbor weight decays with
	// standardized distance. Zero means sqrt(nFeatures) * 0.75.
	KernelWidth float64

	// Ridge is the L2 penalty of the surrogate regression.
	Ridge float64

	Seed int64
}

// NewLIMEExplainer creates an explainer with the usual defaults.
func NewLIMEExplainer(seed int64) *LIMEExplainer {
	return &LIMEExplainer{
		NSamples: 1000,
		Ridge:    1.0,
		Seed:     seed,
	}
}

// Explain fits the local surrogate around x and returns per-feature
// contributions, strongest first. XTrain supplies the per-feature
// sampling distribution.
func (l *LIMEExplainer) Explain(model scorer, XTrain mat.Matrix, x []float64, featureNames []string) ([]Attribution, error) {
	m := len(x)
	if m != len(featureNames) {
		return nil, errors.NewDimensionError("LIMEExplainer.Explain", len(featureNames), m, 1)
	}
	rows, cols := XTrain.Dims()
	if rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "LIMEExplainer.Explain")
	}
	if cols != m {
		return nil, errors.NewDimensionError("LIMEExplainer.Explain", m, cols, 1)
	}

	means, stds := featureMoments(XTrain)

	width := l.KernelWidth
	if width <= 0 {
		width = math.Sqrt(float64(m)) * 0.75
	}

	// Perturb around x with the training spread; the first neighbor is
	// x itself so the surrogate is anchored at the instance.
	rng := rand.New(rand.NewPCG(uint64(l.Seed), uint64(l.Seed)))
	neighbors := mat.NewDense(l.NSamples, m, nil)
	for j := 0; j < m; j++ {
		neighbors.Set(0, j, x[j])
	}
	for i := 1; i < l.NSamples; i++ {
		for j := 0; j < m; j++ {
			neighbors.Set(i, j, x[j]+rng.NormFloat64()*stds[j])
		}
	}

	decisions, err := model.DecisionFunction(neighbors)
	if err != nil {
		return nil, err
	}

	// Standardize the design so coefficients are comparable across
	// features, and weight rows by the distance kernel.
	design := mat.NewDense(l.NSamples, m+1, nil)
	target := mat.NewVecDense(l.NSamples, nil)
	for i := 0; i < l.NSamples; i++ {
		d2 := 0.0
		for j := 0; j < m; j++ {
			z := (neighbors.At(i, j) - x[j]) / stds[j]
			d2 += z * z
		}
		w := math.Sqrt(math.Exp(-d2 / (width * width)))

		design.Set(i, 0, w)
		for j := 0; j < m; j++ {
			design.Set(i, j+1, w*(neighbors.At(i, j)-means[j])/stds[j])
		}
		target.SetVec(i, w*decisions.AtVec(i))
	}

	coef, err := ridgeSolve(design, target, l.Ridge)
	if err != nil {
		return nil, errors.Wrap(err, "LIMEExplainer.Explain")
	}

	attrs := make([]Attribution, m)
	for j := 0; j < m; j++ {
		attrs[j] = Attribution{Feature: featureNames[j], Value: coef.AtVec(j + 1)}
	}
	sortAttributions(attrs)
	return attrs, nil
}

// featureMoments returns the column means and standard deviations,
// with degenerate columns clamped to unit spread.
func featureMoments(X mat.Matrix) (means, stds []float64) {
	rows, cols := X.Dims()
	means = make([]float64, cols)
	stds = make([]float64, cols)

	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			col[i] = X.At(i, j)
		}
		mean, std := stat.MeanStdDev(col, nil)
		means[j] = mean
		if std < 1e-8 || math.IsNaN(std) {
			std = 1.0
		}
		stds[j] = std
	}
	return means, stds
}

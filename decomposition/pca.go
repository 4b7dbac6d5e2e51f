// Package decomposition provides principal component analysis for
// projecting the selected feature space into two dimensions for
// decision-boundary rendering.
package decomposition

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/core/model"
	"github.com/bgplens/bgplens/pkg/errors"
)

// PCA projects data onto its principal components. Fields are
// exported for gob encoding.
type PCA struct {
	model.BaseEstimator

	// NComponents is the number of components to keep.
	NComponents int

	// Mean is the per-feature mean subtracted before projection.
	Mean []float64

	// Components holds the principal axes as rows (NComponents x nFeatures).
	Components *mat.Dense

	// ExplainedVariance is the variance carried by each component.
	ExplainedVariance []float64

	// ExplainedVarianceRatio is each component's share of the total variance.
	ExplainedVarianceRatio []float64
}

// NewPCA creates a PCA keeping nComponents components.
func NewPCA(nComponents int) *PCA {
	return &PCA{NComponents: nComponents}
}

// Fit learns the principal axes of X via singular value decomposition
// of the centered data matrix.
func (p *PCA) Fit(X mat.Matrix) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.Wrap(errors.ErrEmptyData, "PCA.Fit")
	}
	if p.NComponents < 1 || p.NComponents > cols || p.NComponents > rows {
		return errors.NewValueError("PCA.Fit",
			"nComponents must be in [1, min(nSamples, nFeatures)]")
	}

	// Center the data.
	p.Mean = make([]float64, cols)
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += X.At(i, j)
		}
		p.Mean[j] = sum / float64(rows)
	}
	centered := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			centered.Set(i, j, X.At(i, j)-p.Mean[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return errors.Wrap(errors.ErrSingularMatrix, "PCA.Fit: SVD failed to converge")
	}

	var v mat.Dense
	svd.VTo(&v)
	singular := svd.Values(nil)

	// Principal axes are the right singular vectors, one per row.
	p.Components = mat.NewDense(p.NComponents, cols, nil)
	for k := 0; k < p.NComponents; k++ {
		for j := 0; j < cols; j++ {
			p.Components.Set(k, j, v.At(j, k))
		}
	}

	// Singular values relate to variance as s^2 / (n - 1).
	total := 0.0
	variances := make([]float64, len(singular))
	for i, s := range singular {
		variances[i] = s * s / math.Max(float64(rows-1), 1)
		total += variances[i]
	}
	p.ExplainedVariance = variances[:p.NComponents]
	p.ExplainedVarianceRatio = make([]float64, p.NComponents)
	if total > 0 {
		for k := 0; k < p.NComponents; k++ {
			p.ExplainedVarianceRatio[k] = p.ExplainedVariance[k] / total
		}
	}

	p.SetFitted()
	return nil
}

// Transform projects X onto the learned components.
func (p *PCA) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "Transform")
	}
	rows, cols := X.Dims()
	if cols != len(p.Mean) {
		return nil, errors.NewDimensionError("PCA.Transform", len(p.Mean), cols, 1)
	}

	projected := mat.NewDense(rows, p.NComponents, nil)
	for i := 0; i < rows; i++ {
		for k := 0; k < p.NComponents; k++ {
			sum := 0.0
			for j := 0; j < cols; j++ {
				sum += (X.At(i, j) - p.Mean[j]) * p.Components.At(k, j)
			}
			projected.Set(i, k, sum)
		}
	}
	return projected, nil
}

// FitTransform fits the PCA and projects X in one call.
func (p *PCA) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// InverseTransform maps projected points back into the original
// feature space. The reconstruction is exact only when NComponents
// equals the original dimensionality.
func (p *PCA) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "InverseTransform")
	}
	rows, cols := X.Dims()
	if cols != p.NComponents {
		return nil, errors.NewDimensionError("PCA.InverseTransform", p.NComponents, cols, 1)
	}

	nFeatures := len(p.Mean)
	restored := mat.NewDense(rows, nFeatures, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < nFeatures; j++ {
			sum := p.Mean[j]
			for k := 0; k < p.NComponents; k++ {
				sum += X.At(i, k) * p.Components.At(k, j)
			}
			restored.Set(i, j, sum)
		}
	}
	return restored, nil
}

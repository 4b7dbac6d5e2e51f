package evaluate

import (
	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/decomposition"
	"github.com/bgplens/bgplens/modelsel"
	"github.com/bgplens/bgplens/pipeline"
	"github.com/bgplens/bgplens/pkg/errors"
	"github.com/bgplens/bgplens/svm"
)

// DefaultGridSteps is the mesh resolution per axis of the boundary view.
const DefaultGridSteps = 200

// boundaryPadding widens the mesh beyond the data extent so the
// boundary is not clipped at the outermost points.
const boundaryPadding = 0.1

// Boundary holds a 2-D projection of the dataset together with a
// class-prediction mesh over its extent. The secondary 2-D model that
// produces the mesh is visualization-only and is never persisted.
type Boundary struct {
	// Points are the PCA-projected samples (n x 2).
	Points *mat.Dense

	// Labels are the true classes of the projected samples.
	Labels *mat.VecDense

	// GridX and GridY are the mesh axis coordinates.
	GridX []float64
	GridY []float64

	// GridZ holds the predicted class for each mesh point,
	// GridZ[i][j] at (GridX[j], GridY[i]).
	GridZ [][]float64

	// ExplainedVarianceRatio of the two components, for axis labels.
	ExplainedVarianceRatio []float64
}

// NewBoundary projects X to two principal components, refits a
// classifier with the winning hyperparameters on the projection, and
// samples its predictions over a mesh covering the projected extent.
// Preset gamma values are resolved to their numeric equivalent on the
// projection, since the presets are data-dependent.
func NewBoundary(X mat.Matrix, y *mat.VecDense, params modelsel.Params, seed int64, gridSteps int) (*Boundary, error) {
	nSamples, _ := X.Dims()
	if nSamples == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "evaluate.NewBoundary")
	}
	if y.Len() != nSamples {
		return nil, errors.NewDimensionError("evaluate.NewBoundary", nSamples, y.Len(), 0)
	}
	if gridSteps < 2 {
		gridSteps = DefaultGridSteps
	}

	pca := decomposition.NewPCA(2)
	projected, err := pca.FitTransform(X)
	if err != nil {
		return nil, err
	}

	gamma := params.Gamma
	if gamma.Preset != "" {
		numeric, err := gamma.Resolve(projected)
		if err != nil {
			return nil, err
		}
		gamma = svm.GammaValue(numeric)
	}

	clf := svm.NewSVC(
		svm.WithC(params.C),
		svm.WithGamma(gamma),
		svm.WithKernel(params.Kernel),
		svm.WithSeed(seed),
	)
	view := pipeline.New(clf)
	if err := view.Fit(projected, y); err != nil {
		return nil, errors.Wrap(err, "evaluate.NewBoundary: 2-D refit failed")
	}

	gridX := meshAxis(colExtent(projected, 0), gridSteps)
	gridY := meshAxis(colExtent(projected, 1), gridSteps)

	gridZ := make([][]float64, len(gridY))
	row := mat.NewDense(len(gridX), 2, nil)
	for i, yv := range gridY {
		for j, xv := range gridX {
			row.Set(j, 0, xv)
			row.Set(j, 1, yv)
		}
		pred, err := view.Predict(row)
		if err != nil {
			return nil, err
		}
		gridZ[i] = make([]float64, len(gridX))
		for j := range gridX {
			gridZ[i][j] = pred.At(j, 0)
		}
	}

	labels := mat.NewVecDense(y.Len(), nil)
	labels.CopyVec(y)

	return &Boundary{
		Points:                 projected,
		Labels:                 labels,
		GridX:                  gridX,
		GridY:                  gridY,
		GridZ:                  gridZ,
		ExplainedVarianceRatio: pca.ExplainedVarianceRatio,
	}, nil
}

// colExtent returns the min and max of column j.
func colExtent(m *mat.Dense, j int) [2]float64 {
	rows, _ := m.Dims()
	lo, hi := m.At(0, j), m.At(0, j)
	for i := 1; i < rows; i++ {
		v := m.At(i, j)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return [2]float64{lo, hi}
}

// meshAxis spaces steps points over a padded extent.
func meshAxis(extent [2]float64, steps int) []float64 {
	span := extent[1] - extent[0]
	if span == 0 {
		span = 1
	}
	lo := extent[0] - boundaryPadding*span
	hi := extent[1] + boundaryPadding*span

	axis := make([]float64, steps)
	step := (hi - lo) / float64(steps-1)
	for i := range axis {
		axis[i] = lo + float64(i)*step
	}
	return axis
}

package modelsel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/pkg/errors"
	"github.com/bgplens/bgplens/svm"
)

// clusteredData builds 30 rows in two well-separated clusters.
func clusteredData() (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(30, 2, nil)
	y := mat.NewVecDense(30, nil)
	for i := 0; i < 30; i++ {
		if i < 20 {
			X.Set(i, 0, 1.0+0.1*float64(i%5))
			X.Set(i, 1, 2.0+0.1*float64(i%4))
		} else {
			X.Set(i, 0, 10.0+0.1*float64(i%5))
			X.Set(i, 1, 20.0+0.1*float64(i%4))
			y.SetVec(i, 1)
		}
	}
	return X, y
}

func smallGrid() ParamGrid {
	return ParamGrid{
		Cs:      []float64{1, 10},
		Gammas:  []svm.Gamma{svm.GammaScale(), svm.GammaValue(0.1)},
		Kernels: []string{svm.KernelRBF, svm.KernelLinear},
	}
}

func TestGridCombinationsOrder(t *testing.T) {
	combos := smallGrid().Combinations()
	require.Len(t, combos, 8)

	// C varies slowest, kernel fastest.
	assert.Equal(t, Params{C: 1, Gamma: svm.GammaScale(), Kernel: svm.KernelRBF}, combos[0])
	assert.Equal(t, Params{C: 1, Gamma: svm.GammaScale(), Kernel: svm.KernelLinear}, combos[1])
	assert.Equal(t, Params{C: 10, Gamma: svm.GammaValue(0.1), Kernel: svm.KernelLinear}, combos[7])
}

func TestDefaultGridSize(t *testing.T) {
	assert.Len(t, DefaultGrid().Combinations(), 40)
}

func TestGridSearchCVFindsSeparatingModel(t *testing.T) {
	X, y := clusteredData()
	gs := NewGridSearchCV(smallGrid(), 5, 42)
	require.NoError(t, gs.Fit(X, y))

	require.Len(t, gs.Results, 8)
	assert.InDelta(t, 1.0, gs.BestScore, 1e-9, "separable clusters must reach a perfect F1")
	require.NotNil(t, gs.BestModel)

	pred, err := gs.BestModel.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		assert.Equal(t, y.AtVec(i), pred.At(i, 0), "sample %d", i)
	}
}

// 同一シードでの探索は同一の勝者と同一のスコアを返さなければならない
func TestGridSearchCVDeterministic(t *testing.T) {
	X, y := clusteredData()

	first := NewGridSearchCV(smallGrid(), 5, 42)
	require.NoError(t, first.Fit(X, y))
	second := NewGridSearchCV(smallGrid(), 5, 42)
	require.NoError(t, second.Fit(X, y))

	assert.Equal(t, first.BestParams, second.BestParams)
	assert.Equal(t, first.BestScore, second.BestScore)
	for i := range first.Results {
		assert.Equal(t, first.Results[i].MeanF1, second.Results[i].MeanF1, "candidate %d", i)
	}
}

func TestGridSearchCVSingleClassFails(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewVecDense(10, nil)

	err := NewGridSearchCV(smallGrid(), 5, 42).Fit(X, y)
	require.Error(t, err)
	var trErr *errors.TrainingError
	assert.True(t, errors.As(err, &trErr))
}

func TestGridSearchCVEmptyGridFails(t *testing.T) {
	X, y := clusteredData()
	err := NewGridSearchCV(ParamGrid{}, 5, 42).Fit(X, y)
	require.Error(t, err)
	var trErr *errors.TrainingError
	assert.True(t, errors.As(err, &trErr))
}

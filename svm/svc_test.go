package svm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/pkg/errors"
)

// separableData builds a linearly separable two-cluster dataset.
func separableData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 2, []float64{
		-2.0, -2.1,
		-1.8, -1.7,
		-2.2, -1.9,
		-1.5, -2.3,
		2.0, 2.1,
		1.8, 1.7,
		2.2, 1.9,
		1.5, 2.3,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func TestSVCFitPredictLinear(t *testing.T) {
	X, y := separableData()
	clf := NewSVC(WithKernel(KernelLinear), WithC(1.0), WithSeed(42))
	require.NoError(t, clf.Fit(X, y))

	pred, err := clf.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "sample %d", i)
	}
}

func TestSVCFitPredictRBF(t *testing.T) {
	X, y := separableData()
	clf := NewSVC(WithKernel(KernelRBF), WithGamma(GammaScale()), WithSeed(42))
	require.NoError(t, clf.Fit(X, y))

	pred, err := clf.Predict(mat.NewDense(2, 2, []float64{-1.9, -2.0, 1.9, 2.0}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 1.0, pred.At(1, 0))
}

func TestSVCPredictProba(t *testing.T) {
	X, y := separableData()
	clf := NewSVC(WithKernel(KernelLinear), WithSeed(42))
	require.NoError(t, clf.Fit(X, y))

	probas, err := clf.PredictProba(X)
	require.NoError(t, err)

	r, c := probas.Dims()
	require.Equal(t, 8, r)
	require.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		sum := probas.At(i, 0) + probas.At(i, 1)
		assert.InDelta(t, 1.0, sum, 1e-9, "probabilities must sum to 1")
	}
	// The anomaly cluster must receive a higher anomaly probability
	// than the normal cluster.
	assert.Greater(t, probas.At(4, 1), probas.At(0, 1))
}

func TestSVCSingleClassFails(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{1, 1, 1})

	err := NewSVC().Fit(X, y)
	require.Error(t, err)
	var trErr *errors.TrainingError
	assert.True(t, errors.As(err, &trErr), "expected TrainingError, got %T", err)
}

func TestSVCNonBinaryLabelsFail(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewDense(2, 1, []float64{0, 2})

	err := NewSVC().Fit(X, y)
	require.Error(t, err)
	var vErr *errors.ValueError
	assert.True(t, errors.As(err, &vErr))
}

func TestSVCNotFitted(t *testing.T) {
	_, err := NewSVC().Predict(mat.NewDense(1, 1, []float64{1}))
	var nfErr *errors.NotFittedError
	assert.True(t, errors.As(err, &nfErr))
}

func TestSVCDeterministicWithSeed(t *testing.T) {
	X, y := separableData()

	first := NewSVC(WithKernel(KernelRBF), WithSeed(7))
	require.NoError(t, first.Fit(X, y))
	second := NewSVC(WithKernel(KernelRBF), WithSeed(7))
	require.NoError(t, second.Fit(X, y))

	df1, err := first.DecisionFunction(X)
	require.NoError(t, err)
	df2, err := second.DecisionFunction(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(df1, df2, 1e-15), "same seed must give identical models")
}

func TestParseGamma(t *testing.T) {
	tests := []struct {
		in      string
		want    Gamma
		wantErr bool
	}{
		{in: "scale", want: GammaScale()},
		{in: "auto", want: GammaAuto()},
		{in: "0.01", want: GammaValue(0.01)},
		{in: "-1", wantErr: true},
		{in: "wide", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGamma(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGammaResolve(t *testing.T) {
	X := mat.NewDense(2, 4, []float64{1, 2, 3, 4, 5, 6, 7, 8})

	auto, err := GammaAuto().Resolve(X)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, auto, 1e-12)

	numeric, err := GammaValue(0.5).Resolve(X)
	require.NoError(t, err)
	assert.Equal(t, 0.5, numeric)

	scale, err := GammaScale().Resolve(X)
	require.NoError(t, err)
	// 1 / (n_features * population variance of all entries)
	assert.InDelta(t, 1.0/(4.0*5.25), scale, 1e-9)
}

func TestPlattProbMonotonic(t *testing.T) {
	decisions := []float64{-2, -1, -0.5, 0.5, 1, 2}
	labels := []float64{-1, -1, -1, 1, 1, 1}
	a, b := plattFit(decisions, labels)

	prev := math.Inf(-1)
	for _, d := range decisions {
		p := plattProb(d, a, b)
		assert.Greater(t, p, prev, "calibrated probability must increase with the decision value")
		assert.True(t, p > 0 && p < 1)
		prev = p
	}
}

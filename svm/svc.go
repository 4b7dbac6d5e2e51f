// Package svm implements a C-support vector classifier trained with a
// simplified SMO (sequential minimal optimization) solver.
//
// The classifier handles the binary case only, with labels 0 (normal)
// and 1 (anomaly). Probability estimates use Platt sigmoid calibration
// fitted on the training decision values.
package svm

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/core/model"
	"github.com/bgplens/bgplens/pkg/errors"
)

var _ model.Classifier = (*SVC)(nil)

// SVC is a C-support vector classifier.
// Compatible with scikit-learn's SVC for the binary case.
// Fitted fields are exported for gob encoding.
type SVC struct {
	model.BaseEstimator

	// Hyperparameters
	C       float64 // Regularization strength
	Kernel  string  // Kernel family: "rbf" or "linear"
	Gamma   Gamma   // RBF bandwidth ("scale", "auto" or numeric)
	Tol     float64 // KKT violation tolerance
	MaxIter int     // Hard cap on optimization sweeps
	Seed    int64   // Seed for the SMO working-pair selection

	// Fitted parameters
	SupportVectors *mat.Dense // Support vectors (n_sv x n_features)
	DualCoef       []float64  // alpha_i * y_i for each support vector
	Intercept      float64
	ResolvedGamma  float64 // Numeric gamma used at fit time
	NFeatures      int

	// Platt calibration: P(y=1|f) = 1 / (1 + exp(A*f + B))
	PlattA float64
	PlattB float64
}

// SVCOption is a functional option for SVC.
type SVCOption func(*SVC)

// NewSVC creates a new SVC with scikit-learn-compatible defaults
// (C=1.0, rbf kernel, gamma="scale").
func NewSVC(opts ...SVCOption) *SVC {
	clf := &SVC{
		C:       1.0,
		Kernel:  KernelRBF,
		Gamma:   GammaScale(),
		Tol:     1e-3,
		MaxIter: 1000,
		Seed:    0,
	}
	for _, opt := range opts {
		opt(clf)
	}
	return clf
}

// WithC sets the regularization strength.
func WithC(c float64) SVCOption {
	return func(s *SVC) { s.C = c }
}

// WithKernel sets the kernel family.
func WithKernel(kernel string) SVCOption {
	return func(s *SVC) { s.Kernel = kernel }
}

// WithGamma sets the RBF bandwidth.
func WithGamma(g Gamma) SVCOption {
	return func(s *SVC) { s.Gamma = g }
}

// WithTol sets the KKT violation tolerance.
func WithTol(tol float64) SVCOption {
	return func(s *SVC) { s.Tol = tol }
}

// WithMaxIter sets the maximum number of optimization sweeps.
func WithMaxIter(maxIter int) SVCOption {
	return func(s *SVC) { s.MaxIter = maxIter }
}

// WithSeed sets the seed for the SMO working-pair selection.
func WithSeed(seed int64) SVCOption {
	return func(s *SVC) { s.Seed = seed }
}

// Fit trains the classifier.
// Returns a TrainingError when the training data contains fewer than
// two classes.
func (s *SVC) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, _ := y.Dims()
	if nSamples != yRows {
		return errors.NewDimensionError("SVC.Fit", nSamples, yRows, 0)
	}
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, "SVC.Fit")
	}

	// Convert labels to ±1 and verify both classes are present.
	labels := make([]float64, nSamples)
	var nPos, nNeg int
	for i := 0; i < nSamples; i++ {
		switch y.At(i, 0) {
		case 1:
			labels[i] = 1
			nPos++
		case 0:
			labels[i] = -1
			nNeg++
		default:
			return errors.NewValueError("SVC.Fit", "labels must be binary (0 or 1)")
		}
	}
	if nPos == 0 || nNeg == 0 {
		return errors.NewTrainingError("SVC.Fit", "training data contains a single class")
	}

	gamma, err := s.Gamma.Resolve(X)
	if err != nil {
		return err
	}
	kernel, err := kernelFunc(s.Kernel, gamma)
	if err != nil {
		return err
	}

	rows := denseRows(X)
	alphas, b, iters := s.smo(rows, labels, kernel)
	if iters >= s.MaxIter {
		errors.Warn(errors.NewConvergenceWarning("SVC", iters, ""))
	}

	// Keep support vectors only.
	const svEps = 1e-8
	var svRows []float64
	var dualCoef []float64
	var decisions []float64
	for i, a := range alphas {
		if a > svEps {
			svRows = append(svRows, rows[i]...)
			dualCoef = append(dualCoef, a*labels[i])
		}
	}
	if len(dualCoef) == 0 {
		// Degenerate but possible with tiny C; keep a single vector so
		// the decision function stays defined.
		svRows = append(svRows, rows[0]...)
		dualCoef = append(dualCoef, 0)
	}

	s.SupportVectors = mat.NewDense(len(dualCoef), nFeatures, svRows)
	s.DualCoef = dualCoef
	s.Intercept = b
	s.ResolvedGamma = gamma
	s.NFeatures = nFeatures
	s.SetFitted()

	// Platt calibration on the training decision values.
	decisions = make([]float64, nSamples)
	for i, row := range rows {
		decisions[i] = s.decisionOne(row, kernel)
	}
	s.PlattA, s.PlattB = plattFit(decisions, labels)

	return nil
}

// smo runs the simplified SMO solver and returns the dual coefficients,
// the intercept and the number of sweeps used.
func (s *SVC) smo(rows [][]float64, labels []float64, kernel func(a, b []float64) float64) ([]float64, float64, int) {
	n := len(rows)
	alphas := make([]float64, n)
	b := 0.0

	// Precompute the kernel matrix; the datasets this pipeline trains
	// on are small enough for the O(n^2) cache.
	K := make([][]float64, n)
	for i := range K {
		K[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			v := kernel(rows[i], rows[j])
			K[i][j] = v
			K[j][i] = v
		}
	}

	f := func(i int) float64 {
		sum := b
		for k := 0; k < n; k++ {
			if alphas[k] > 0 {
				sum += alphas[k] * labels[k] * K[k][i]
			}
		}
		return sum
	}

	rng := rand.New(rand.NewPCG(uint64(s.Seed), uint64(s.Seed)+1))
	const maxPasses = 5
	passes := 0
	iter := 0
	for passes < maxPasses && iter < s.MaxIter {
		numChanged := 0
		for i := 0; i < n; i++ {
			Ei := f(i) - labels[i]
			if (labels[i]*Ei < -s.Tol && alphas[i] < s.C) || (labels[i]*Ei > s.Tol && alphas[i] > 0) {
				j := rng.IntN(n - 1)
				if j >= i {
					j++
				}
				Ej := f(j) - labels[j]

				aiOld, ajOld := alphas[i], alphas[j]
				var L, H float64
				if labels[i] != labels[j] {
					L = math.Max(0, ajOld-aiOld)
					H = math.Min(s.C, s.C+ajOld-aiOld)
				} else {
					L = math.Max(0, aiOld+ajOld-s.C)
					H = math.Min(s.C, aiOld+ajOld)
				}
				if L == H {
					continue
				}

				eta := 2*K[i][j] - K[i][i] - K[j][j]
				if eta >= 0 {
					continue
				}

				aj := ajOld - labels[j]*(Ei-Ej)/eta
				aj = math.Min(math.Max(aj, L), H)
				if math.Abs(aj-ajOld) < 1e-5 {
					continue
				}
				ai := aiOld + labels[i]*labels[j]*(ajOld-aj)

				alphas[i], alphas[j] = ai, aj

				b1 := b - Ei - labels[i]*(ai-aiOld)*K[i][i] - labels[j]*(aj-ajOld)*K[i][j]
				b2 := b - Ej - labels[i]*(ai-aiOld)*K[i][j] - labels[j]*(aj-ajOld)*K[j][j]
				switch {
				case ai > 0 && ai < s.C:
					b = b1
				case aj > 0 && aj < s.C:
					b = b2
				default:
					b = (b1 + b2) / 2
				}
				numChanged++
			}
		}
		if numChanged == 0 {
			passes++
		} else {
			passes = 0
		}
		iter++
	}
	return alphas, b, iter
}

// DecisionFunction returns the signed distance to the separating
// hyperplane for each sample.
func (s *SVC) DecisionFunction(X mat.Matrix) (*mat.VecDense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SVC", "DecisionFunction")
	}
	rows, cols := X.Dims()
	if cols != s.NFeatures {
		return nil, errors.NewDimensionError("SVC.DecisionFunction", s.NFeatures, cols, 1)
	}

	kernel, err := kernelFunc(s.Kernel, s.ResolvedGamma)
	if err != nil {
		return nil, err
	}

	result := mat.NewVecDense(rows, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		result.SetVec(i, s.decisionOne(row, kernel))
	}
	return result, nil
}

// decisionOne evaluates the decision function for a single sample.
func (s *SVC) decisionOne(x []float64, kernel func(a, b []float64) float64) float64 {
	sum := s.Intercept
	nSV, _ := s.SupportVectors.Dims()
	for i := 0; i < nSV; i++ {
		sum += s.DualCoef[i] * kernel(s.SupportVectors.RawRowView(i), x)
	}
	return sum
}

// Predict returns 0/1 class labels as a column matrix.
func (s *SVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	decisions, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := decisions.Len()
	predictions := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if decisions.AtVec(i) >= 0 {
			predictions.Set(i, 0, 1)
		}
	}
	return predictions, nil
}

// PredictProba returns class probability estimates as an (n x 2)
// matrix; column 0 holds P(normal), column 1 holds P(anomaly).
func (s *SVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	decisions, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := decisions.Len()
	probas := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		p := plattProb(decisions.AtVec(i), s.PlattA, s.PlattB)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (s *SVC) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	n, _ := X.Dims()
	correct := 0
	for i := 0; i < n; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// GetParams returns the hyperparameters.
func (s *SVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":        s.C,
		"kernel":   s.Kernel,
		"gamma":    s.Gamma.String(),
		"tol":      s.Tol,
		"max_iter": s.MaxIter,
	}
}

// denseRows copies a matrix into per-row slices.
func denseRows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, X)
	}
	return rows
}

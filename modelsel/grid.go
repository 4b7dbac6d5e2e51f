package modelsel

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/metrics"
	"github.com/bgplens/bgplens/pipeline"
	"github.com/bgplens/bgplens/pkg/errors"
	bgplog "github.com/bgplens/bgplens/pkg/log"
	"github.com/bgplens/bgplens/svm"
)

// Params is one hyperparameter combination for the SVM classifier.
type Params struct {
	C      float64
	Gamma  svm.Gamma
	Kernel string
}

// String renders the combination in a log-friendly form.
func (p Params) String() string {
	return fmt.Sprintf("C=%g gamma=%s kernel=%s", p.C, p.Gamma, p.Kernel)
}

// ParamGrid enumerates the candidate values for each hyperparameter.
// The search space is the cartesian product of the three axes.
type ParamGrid struct {
	Cs      []float64
	Gammas  []svm.Gamma
	Kernels []string
}

// DefaultGrid returns the search space used by the detection pipeline.
func DefaultGrid() ParamGrid {
	return ParamGrid{
		Cs: []float64{0.1, 1, 10, 100},
		Gammas: []svm.Gamma{
			svm.GammaScale(),
			svm.GammaAuto(),
			svm.GammaValue(0.01),
			svm.GammaValue(0.1),
			svm.GammaValue(1),
		},
		Kernels: []string{svm.KernelRBF, svm.KernelLinear},
	}
}

// Combinations expands the grid into an ordered list of candidates.
// The order is deterministic so that score ties always resolve the
// same way.
func (g ParamGrid) Combinations() []Params {
	var combos []Params
	for _, c := range g.Cs {
		for _, gamma := range g.Gammas {
			for _, kernel := range g.Kernels {
				combos = append(combos, Params{C: c, Gamma: gamma, Kernel: kernel})
			}
		}
	}
	return combos
}

// CVResult records the cross-validated score of one candidate.
type CVResult struct {
	Params     Params
	MeanF1     float64
	FoldScores []float64
}

// GridSearchCV exhaustively searches a hyperparameter grid with
// stratified k-fold cross-validation, scoring each candidate by the
// mean F1 over folds. After Fit, the best estimator is refit on the
// full training data.
type GridSearchCV struct {
	Grid   ParamGrid
	NFolds int
	Seed   int64
	Logger *slog.Logger

	BestParams Params
	BestScore  float64
	BestModel  *pipeline.Pipeline
	Results    []CVResult
}

// NewGridSearchCV creates a grid search over the given grid with
// nFolds stratified folds.
func NewGridSearchCV(grid ParamGrid, nFolds int, seed int64) *GridSearchCV {
	return &GridSearchCV{
		Grid:   grid,
		NFolds: nFolds,
		Seed:   seed,
	}
}

// Fit runs the search. The winning combination is the one with the
// highest mean F1; on an exact tie the earlier candidate in grid
// order wins.
func (gs *GridSearchCV) Fit(X mat.Matrix, y *mat.VecDense) error {
	nSamples, _ := X.Dims()
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, "GridSearchCV.Fit")
	}
	if y.Len() != nSamples {
		return errors.NewDimensionError("GridSearchCV.Fit", nSamples, y.Len(), 0)
	}
	if len(groupByClass(y)) < 2 {
		return errors.NewTrainingError("GridSearchCV.Fit", "training data contains a single class")
	}

	combos := gs.Grid.Combinations()
	if len(combos) == 0 {
		return errors.NewTrainingError("GridSearchCV.Fit", "empty parameter grid")
	}

	skf := NewStratifiedKFold(gs.NFolds, true, gs.Seed)
	folds := skf.Split(y)

	gs.Results = make([]CVResult, 0, len(combos))
	best := -1

	for i, params := range combos {
		result, err := gs.evaluateCandidate(X, y, folds, params)
		if err != nil {
			return err
		}
		gs.Results = append(gs.Results, result)

		if gs.Logger != nil {
			gs.Logger.Debug("grid search candidate scored",
				slog.String("params", params.String()),
				slog.Float64(bgplog.BestScoreKey, result.MeanF1))
		}
		if best < 0 || result.MeanF1 > gs.Results[best].MeanF1 {
			best = i
		}
	}

	gs.BestParams = gs.Results[best].Params
	gs.BestScore = gs.Results[best].MeanF1

	// Refit on the full training data with the winning parameters.
	refit := pipeline.New(newCandidateSVC(gs.BestParams, gs.Seed))
	if err := refit.Fit(X, y); err != nil {
		return errors.Wrapf(err, "GridSearchCV.Fit: refit with %s", gs.BestParams)
	}
	gs.BestModel = refit

	if gs.Logger != nil {
		gs.Logger.Info("grid search complete",
			slog.String(bgplog.BestParamsKey, gs.BestParams.String()),
			slog.Float64(bgplog.BestScoreKey, gs.BestScore))
	}
	return nil
}

// evaluateCandidate fits and scores one combination across all folds.
func (gs *GridSearchCV) evaluateCandidate(X mat.Matrix, y *mat.VecDense, folds []CVFold, params Params) (CVResult, error) {
	result := CVResult{Params: params, FoldScores: make([]float64, 0, len(folds))}

	for _, fold := range folds {
		XTrain := subsetMatrix(X, fold.TrainIndices)
		yTrain := subsetVec(y, fold.TrainIndices)
		XTest := subsetMatrix(X, fold.TestIndices)
		yTest := subsetVec(y, fold.TestIndices)

		p := pipeline.New(newCandidateSVC(params, gs.Seed))
		if err := p.Fit(XTrain, yTrain); err != nil {
			return CVResult{}, errors.Wrapf(err, "GridSearchCV.Fit: candidate %s", params)
		}
		pred, err := p.Predict(XTest)
		if err != nil {
			return CVResult{}, errors.Wrapf(err, "GridSearchCV.Fit: candidate %s", params)
		}
		score, err := metrics.F1Score(yTest, predictionVec(pred))
		if err != nil {
			return CVResult{}, errors.Wrapf(err, "GridSearchCV.Fit: candidate %s", params)
		}
		result.FoldScores = append(result.FoldScores, score)
	}

	sum := 0.0
	for _, s := range result.FoldScores {
		sum += s
	}
	result.MeanF1 = sum / float64(len(result.FoldScores))
	return result, nil
}

// newCandidateSVC builds a classifier configured with one grid point.
func newCandidateSVC(params Params, seed int64) *svm.SVC {
	return svm.NewSVC(
		svm.WithC(params.C),
		svm.WithGamma(params.Gamma),
		svm.WithKernel(params.Kernel),
		svm.WithSeed(seed),
	)
}

// predictionVec extracts the single prediction column as a vector.
func predictionVec(pred mat.Matrix) *mat.VecDense {
	rows, _ := pred.Dims()
	v := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		v.SetVec(i, pred.At(i, 0))
	}
	return v
}

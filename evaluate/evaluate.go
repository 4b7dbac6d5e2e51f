// Package evaluate computes the held-out metric bundle and the 2-D
// decision-boundary view for a fitted detection pipeline.
package evaluate

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/core/model"
	"github.com/bgplens/bgplens/metrics"
	"github.com/bgplens/bgplens/pkg/errors"
	bgplog "github.com/bgplens/bgplens/pkg/log"
)

// Report bundles every held-out metric the pipeline produces.
type Report struct {
	Accuracy         float64
	Precision        float64
	Recall           float64
	F1               float64
	ROCAUC           float64
	AveragePrecision float64

	Confusion metrics.ConfusionCounts

	ROC *metrics.Curve
	PR  *metrics.Curve
}

// Evaluate scores a fitted classifier on the held-out split. Scores
// for the ranking metrics are the positive-class probabilities.
func Evaluate(clf model.Classifier, XTest mat.Matrix, yTest *mat.VecDense) (*Report, error) {
	nSamples, _ := XTest.Dims()
	if nSamples == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "evaluate.Evaluate")
	}
	if yTest.Len() != nSamples {
		return nil, errors.NewDimensionError("evaluate.Evaluate", nSamples, yTest.Len(), 0)
	}

	predMat, err := clf.Predict(XTest)
	if err != nil {
		return nil, err
	}
	pred := columnVec(predMat, 0)

	probaMat, err := clf.PredictProba(XTest)
	if err != nil {
		return nil, err
	}
	// Column 1 is P(class == 1).
	scores := columnVec(probaMat, 1)

	report := &Report{}
	if report.Accuracy, err = metrics.Accuracy(yTest, pred); err != nil {
		return nil, err
	}
	if report.Precision, err = metrics.Precision(yTest, pred); err != nil {
		return nil, err
	}
	if report.Recall, err = metrics.Recall(yTest, pred); err != nil {
		return nil, err
	}
	if report.F1, err = metrics.F1Score(yTest, pred); err != nil {
		return nil, err
	}
	if report.Confusion, err = metrics.Confusion(yTest, pred); err != nil {
		return nil, err
	}
	if report.ROCAUC, err = metrics.AUC(yTest, scores); err != nil {
		return nil, err
	}
	if report.AveragePrecision, err = metrics.AveragePrecision(yTest, scores); err != nil {
		return nil, err
	}

	// A single-class held-out split leaves the ranking curves
	// undefined. The scalar conventions still apply (AUC 0.5, AP 0,
	// each with an UndefinedMetricWarning), so the report is returned
	// with nil curves instead of aborting.
	if !hasBothClasses(yTest) {
		return report, nil
	}

	if report.ROC, err = metrics.ROCCurve(yTest, scores); err != nil {
		return nil, err
	}
	if report.PR, err = metrics.PrecisionRecallCurve(yTest, scores); err != nil {
		return nil, err
	}
	return report, nil
}

// hasBothClasses reports whether y contains both a 0 and a 1 label.
func hasBothClasses(y *mat.VecDense) bool {
	var pos, neg bool
	for i := 0; i < y.Len(); i++ {
		if y.AtVec(i) == 1 {
			pos = true
		} else {
			neg = true
		}
	}
	return pos && neg
}

// Log emits the report through the standard metric attribute keys.
func (r *Report) Log(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Info("held-out evaluation",
		slog.Float64(bgplog.AccuracyKey, r.Accuracy),
		slog.Float64(bgplog.PrecisionKey, r.Precision),
		slog.Float64(bgplog.RecallKey, r.Recall),
		slog.Float64(bgplog.F1Key, r.F1),
		slog.Float64(bgplog.AUCKey, r.ROCAUC),
		slog.Float64(bgplog.APKey, r.AveragePrecision),
	)
}

// columnVec copies column j of m into a vector.
func columnVec(m mat.Matrix, j int) *mat.VecDense {
	rows, _ := m.Dims()
	v := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		v.SetVec(i, m.At(i, j))
	}
	return v
}

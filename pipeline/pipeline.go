// Package pipeline はスケーリングと分類を束ねた推定器を提供します。
package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/core/model"
	"github.com/bgplens/bgplens/pkg/errors"
	"github.com/bgplens/bgplens/preprocessing"
	"github.com/bgplens/bgplens/svm"
)

var _ model.Classifier = (*Pipeline)(nil)

// Pipeline はStandardScalerとSVCを直列に結合した分類パイプライン
// scikit-learnの make_pipeline(StandardScaler(), SVC()) に相当する
// フィールドはgobでの永続化のために公開されている
type Pipeline struct {
	model.BaseEstimator

	Scaler     *preprocessing.StandardScaler
	Classifier *svm.SVC
}

// New は新しいPipelineを作成する
func New(classifier *svm.SVC) *Pipeline {
	return &Pipeline{
		Scaler:     preprocessing.NewStandardScaler(),
		Classifier: classifier,
	}
}

// Fit はスケーラーを学習させてデータを変換し、分類器を学習させる
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	scaled, err := p.Scaler.FitTransform(X)
	if err != nil {
		return errors.Wrap(err, "pipeline: scaling failed")
	}
	if err := p.Classifier.Fit(scaled, y); err != nil {
		return err
	}
	p.SetFitted()
	return nil
}

// Predict は入力をスケーリングしてから分類する
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}
	scaled, err := p.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.Classifier.Predict(scaled)
}

// PredictProba は入力をスケーリングしてから予測確率を返す
func (p *Pipeline) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "PredictProba")
	}
	scaled, err := p.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.Classifier.PredictProba(scaled)
}

// DecisionFunction は入力をスケーリングしてから決定関数値を返す
func (p *Pipeline) DecisionFunction(X mat.Matrix) (*mat.VecDense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "DecisionFunction")
	}
	scaled, err := p.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.Classifier.DecisionFunction(scaled)
}

package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/pkg/errors"
)

// checkPair は2つのベクトルの形状を検証する
func checkPair(op string, yTrue, yPred *mat.VecDense) error {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != yTrue.Len() {
		return errors.NewDimensionError(op, yTrue.Len(), yPred.Len(), 0)
	}
	return nil
}

// checkBinaryLabels はラベルが0/1のみであることを検証する
func checkBinaryLabels(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be binary (0 or 1)")
		}
	}
	return nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := checkPair("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < yTrue.Len(); i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(yTrue.Len()), nil
}

// ClassificationError は誤分類率（1 − accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// ConfusionCounts は二値分類の混同行列の要素数
type ConfusionCounts struct {
	TP, FP, TN, FN int
}

// Confusion は二値ラベルと予測から混同行列を計算する
// 陽性クラスはラベル1（異常）
func Confusion(yTrue, yPred *mat.VecDense) (ConfusionCounts, error) {
	var c ConfusionCounts
	if err := checkPair("Confusion", yTrue, yPred); err != nil {
		return c, err
	}
	if err := checkBinaryLabels("Confusion", yTrue); err != nil {
		return c, err
	}
	if err := checkBinaryLabels("Confusion", yPred); err != nil {
		return c, err
	}

	for i := 0; i < yTrue.Len(); i++ {
		switch {
		case yTrue.AtVec(i) == 1 && yPred.AtVec(i) == 1:
			c.TP++
		case yTrue.AtVec(i) == 0 && yPred.AtVec(i) == 1:
			c.FP++
		case yTrue.AtVec(i) == 0 && yPred.AtVec(i) == 0:
			c.TN++
		default:
			c.FN++
		}
	}
	return c, nil
}

// Precision は適合率 TP/(TP+FP) を計算する
//
// 陽性クラスの予測が1つも存在しない場合、値は未定義となる。
// その場合はscikit-learnと同じ規約で0を返し、UndefinedMetricWarningを
// 警告ハンドラに通知する
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := Confusion(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if c.TP+c.FP == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted positive samples", 0))
		return 0, nil
	}
	return float64(c.TP) / float64(c.TP+c.FP), nil
}

// Recall は再現率 TP/(TP+FN) を計算する
//
// 陽性クラスの行が1つも存在しない場合は未定義となり、0を返して
// UndefinedMetricWarningを通知する
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := Confusion(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if c.TP+c.FN == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no true positive samples", 0))
		return 0, nil
	}
	return float64(c.TP) / float64(c.TP+c.FN), nil
}

// F1Score は適合率と再現率の調和平均を計算する（binary averaging）
func F1Score(yTrue, yPred *mat.VecDense) (float64, error) {
	precision, err := Precision(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	recall, err := Recall(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if precision+recall == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f1", "precision and recall are both zero", 0))
		return 0, nil
	}
	return 2 * precision * recall / (precision + recall), nil
}

// BinaryLogLoss は二値分類の交差エントロピー損失を計算する
// 予測確率はlog(0)を避けるためにクリップされる
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := checkPair("BinaryLogLoss", yTrue, yPred); err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	const eps = 1e-15
	var loss float64
	for i := 0; i < yTrue.Len(); i++ {
		p := math.Min(math.Max(yPred.AtVec(i), eps), 1-eps)
		if yTrue.AtVec(i) == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(yTrue.Len()), nil
}

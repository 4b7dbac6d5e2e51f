package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/pkg/errors"
)

// AUC はROC曲線下面積を計算する
//
// 同点スコアは平均順位で扱う（Mann-Whitney U統計量による定義）。
// ラベルが片方のクラスしか含まない場合、値は未定義となるため
// 0.5を返し、UndefinedMetricWarningを通知する
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := checkPair("AUC", yTrue, yPred); err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("AUC", yTrue); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yPred.AtVec(idx[a]) < yPred.AtVec(idx[b])
	})

	// 同点グループに平均順位を割り当てる
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && yPred.AtVec(idx[j]) == yPred.AtVec(idx[i]) {
			j++
		}
		avgRank := float64(i+j+1) / 2 // 1-based average rank
		for k := i; k < j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j
	}

	var nPos, nNeg int
	var rankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present", 0.5))
		return 0.5, nil
	}

	return (rankSum - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg)), nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する（先頭カラムを使用）
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yTrueVec, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	yPredVec, err := firstColumn("AUCMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return AUC(yTrueVec, yPredVec)
}

// firstColumn は行列の先頭カラムをベクトルとして取り出す
func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	vec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		vec.SetVec(i, m.At(i, 0))
	}
	return vec, nil
}

// Curve はしきい値を掃引して得られる2次元曲線
// ROC曲線では X=FPR, Y=TPR、PR曲線では X=Recall, Y=Precision
type Curve struct {
	X          []float64
	Y          []float64
	Thresholds []float64
}

// ROCCurve はROC曲線（FPR, TPR）をしきい値の降順で計算する
// 曲線は(0,0)から(1,1)までを含む
func ROCCurve(yTrue, yScore *mat.VecDense) (*Curve, error) {
	if err := checkPair("ROCCurve", yTrue, yScore); err != nil {
		return nil, err
	}
	if err := checkBinaryLabels("ROCCurve", yTrue); err != nil {
		return nil, err
	}

	order := scoreOrderDesc(yScore)
	var nPos, nNeg int
	for i := 0; i < yTrue.Len(); i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return nil, errors.NewValueError("ROCCurve", "only one class present")
	}

	curve := &Curve{X: []float64{0}, Y: []float64{0}, Thresholds: []float64{yScore.AtVec(order[0]) + 1}}
	tp, fp := 0, 0
	for i := 0; i < len(order); {
		threshold := yScore.AtVec(order[i])
		// 同点スコアはまとめて処理する
		for i < len(order) && yScore.AtVec(order[i]) == threshold {
			if yTrue.AtVec(order[i]) == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		curve.X = append(curve.X, float64(fp)/float64(nNeg))
		curve.Y = append(curve.Y, float64(tp)/float64(nPos))
		curve.Thresholds = append(curve.Thresholds, threshold)
	}
	return curve, nil
}

// PrecisionRecallCurve は適合率-再現率曲線をしきい値の降順で計算する
func PrecisionRecallCurve(yTrue, yScore *mat.VecDense) (*Curve, error) {
	if err := checkPair("PrecisionRecallCurve", yTrue, yScore); err != nil {
		return nil, err
	}
	if err := checkBinaryLabels("PrecisionRecallCurve", yTrue); err != nil {
		return nil, err
	}

	order := scoreOrderDesc(yScore)
	nPos := 0
	for i := 0; i < yTrue.Len(); i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		}
	}
	if nPos == 0 {
		return nil, errors.NewValueError("PrecisionRecallCurve", "no positive samples")
	}

	curve := &Curve{}
	tp, predicted := 0, 0
	for i := 0; i < len(order); {
		threshold := yScore.AtVec(order[i])
		for i < len(order) && yScore.AtVec(order[i]) == threshold {
			if yTrue.AtVec(order[i]) == 1 {
				tp++
			}
			predicted++
			i++
		}
		curve.X = append(curve.X, float64(tp)/float64(nPos))
		curve.Y = append(curve.Y, float64(tp)/float64(predicted))
		curve.Thresholds = append(curve.Thresholds, threshold)
	}
	return curve, nil
}

// AveragePrecision は平均適合率（AP）を計算する
//
// スコアの降順に並べたとき、各陽性アイテムの位置での適合率を
// 平均した値。陽性アイテムが存在しない場合は0を返し、
// UndefinedMetricWarningを通知する
func AveragePrecision(yTrue, yScore *mat.VecDense) (float64, error) {
	if err := checkPair("AveragePrecision", yTrue, yScore); err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("AveragePrecision", yTrue); err != nil {
		return 0, err
	}

	order := scoreOrderDesc(yScore)
	var sum float64
	relevant := 0
	for rank, idx := range order {
		if yTrue.AtVec(idx) == 1 {
			relevant++
			sum += float64(relevant) / float64(rank+1)
		}
	}
	if relevant == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("average_precision", "no positive samples", 0))
		return 0, nil
	}
	return sum / float64(relevant), nil
}

// scoreOrderDesc はスコア降順のインデックスを返す（同点は元の順序を保つ）
func scoreOrderDesc(yScore *mat.VecDense) []int {
	order := make([]int, yScore.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return yScore.AtVec(order[a]) > yScore.AtVec(order[b])
	})
	return order
}

// Package featsel は異常期間と正常期間の平均値の相対変化量による
// 特徴量ランキングを提供します。
//
// 各特徴量カラムについて
//
//	relative_shift = (mean_anomaly − mean_normal) / mean_normal
//
// を計算し、絶対値の降順でランク付けして上位K件を選択します。
// 正常期間の平均が0で異常期間の平均が非0の場合、シフトは無限大と
// みなされ最上位にランクされます。両方の平均が0の場合、シフトは0です。
// 同順位（無限大同士を含む）は元のカラム順で安定に決まるため、
// ランキングは入力テーブルに対して完全に決定的です。
package featsel

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/bgplens/bgplens/dataset"
	"github.com/bgplens/bgplens/pkg/errors"
)

// DefaultK はデフォルトで選択する特徴量の数
const DefaultK = 15

// RankedFeature はランク付けされた1つの特徴量
type RankedFeature struct {
	// Name はカラム名
	Name string

	// Shift は相対変化量（符号付き。無限大になり得る）
	Shift float64

	// MeanNormal とMeanAnomaly は各ラベルグループでの平均値
	MeanNormal  float64
	MeanAnomaly float64
}

// Ranking は絶対シフト降順の特徴量リスト
type Ranking struct {
	Features []RankedFeature
}

// Names は選択された特徴量名を順序付きで返す
func (r *Ranking) Names() []string {
	names := make([]string, len(r.Features))
	for i, f := range r.Features {
		names[i] = f.Name
	}
	return names
}

// Selector は相対変化量による特徴量選択器
type Selector struct {
	// K は選択する特徴量の数。利用可能な特徴量数を超える場合は
	// 全特徴量を選択する
	K int
}

// NewSelector は新しいSelectorを作成する
// kが0以下の場合はDefaultKを使用する
func NewSelector(k int) *Selector {
	if k <= 0 {
		k = DefaultK
	}
	return &Selector{K: k}
}

// Select はテーブルの全特徴量をランク付けし、上位K件を返す
//
// 異常ラベルの行が1つも存在しない場合、ランキングは退化して
// しまうため、FeatureSelectionErrorを返す（設定エラーとして扱う）。
func (s *Selector) Select(t *dataset.Table) (*Ranking, error) {
	if t.NumFeatures() == 0 {
		return nil, errors.NewFeatureSelectionError("no feature columns in table")
	}

	normalIdx, anomalyIdx := splitByLabel(t)
	if len(anomalyIdx) == 0 {
		return nil, errors.NewFeatureSelectionError("no rows labeled as anomaly; check the input dataset")
	}
	if len(normalIdx) == 0 {
		return nil, errors.NewFeatureSelectionError("no rows labeled as normal; check the input dataset")
	}

	ranked := make([]RankedFeature, 0, t.NumFeatures())
	for j, name := range t.Columns {
		meanNormal := columnMean(t, j, normalIdx)
		meanAnomaly := columnMean(t, j, anomalyIdx)
		ranked = append(ranked, RankedFeature{
			Name:        name,
			Shift:       relativeShift(meanNormal, meanAnomaly),
			MeanNormal:  meanNormal,
			MeanAnomaly: meanAnomaly,
		})
	}

	// 絶対シフト降順。無限大は常に先頭、同値は元のカラム順
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Shift) > math.Abs(ranked[j].Shift)
	})

	k := s.K
	if k > len(ranked) {
		k = len(ranked)
	}
	return &Ranking{Features: ranked[:k]}, nil
}

// relativeShift は2グループの平均から相対変化量を計算する
//
// エッジケースのポリシー:
//   - mean_normal == 0 かつ mean_anomaly == 0 → 0
//   - mean_normal == 0 かつ mean_anomaly != 0 → ±Inf（最上位ランク）
func relativeShift(meanNormal, meanAnomaly float64) float64 {
	if meanNormal == 0 {
		if meanAnomaly == 0 {
			return 0
		}
		return math.Inf(int(math.Copysign(1, meanAnomaly)))
	}
	return (meanAnomaly - meanNormal) / meanNormal
}

// splitByLabel はラベルごとの行インデックスを返す
func splitByLabel(t *dataset.Table) (normal, anomaly []int) {
	for i := 0; i < t.NumRows(); i++ {
		if t.Y.AtVec(i) == 1 {
			anomaly = append(anomaly, i)
		} else {
			normal = append(normal, i)
		}
	}
	return normal, anomaly
}

// columnMean は指定行だけを対象にカラム平均を計算する
func columnMean(t *dataset.Table, col int, rows []int) float64 {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = t.X.At(r, col)
	}
	return stat.Mean(values, nil)
}

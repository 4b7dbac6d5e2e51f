package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/pkg/errors"
)

// Table はBGP特徴量テーブルをメモリ上に保持する読み取り専用の構造体
// 各行は1つのタイムバケットに対応し、Xには数値特徴量、Yには二値ラベル
// （0 = 正常, 1 = 異常）が格納される
type Table struct {
	// Columns は特徴量カラム名の順序付きリスト
	Columns []string

	// X は特徴量行列 (n_samples × n_features)
	X *mat.Dense

	// Y はラベルベクトル (n_samples)
	Y *mat.VecDense
}

// NumRows はテーブルの行数を返す
func (t *Table) NumRows() int {
	r, _ := t.X.Dims()
	return r
}

// NumFeatures は特徴量カラムの数を返す
func (t *Table) NumFeatures() int {
	_, c := t.X.Dims()
	return c
}

// AnomalyCount は異常ラベル（1）の行数を返す
func (t *Table) AnomalyCount() int {
	count := 0
	for i := 0; i < t.Y.Len(); i++ {
		if t.Y.AtVec(i) == 1 {
			count++
		}
	}
	return count
}

// ColumnIndex はカラム名に対応する列番号を返す
// 存在しない場合は-1を返す
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column は指定したカラムの値をコピーして返す
func (t *Table) Column(name string) ([]float64, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, errors.NewValueError("Table.Column", "unknown column: "+name)
	}
	return mat.Col(nil, idx, t.X), nil
}

// Select は指定したカラムだけを、指定した順序で含む特徴量行列を返す
// 学習済みモデルへ入力するカラム集合と順序を揃えるために使用する
func (t *Table) Select(columns []string) (*mat.Dense, error) {
	rows := t.NumRows()
	result := mat.NewDense(rows, len(columns), nil)

	for j, name := range columns {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return nil, errors.NewValueError("Table.Select", "unknown column: "+name)
		}
		for i := 0; i < rows; i++ {
			result.Set(i, j, t.X.At(i, idx))
		}
	}
	return result, nil
}

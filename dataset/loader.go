// Package dataset はBGP特徴量テーブルの読み込みを提供します。
//
// 入力はタイムバケットごとの特徴量を1行とするCSVファイルで、
// 二値ラベルを持つ `class` カラムを必ず含みます。`timestamp` や
// `timestamp2`、名前のない行番号カラムはモデリング前に除外されます。
// 特徴量の欠損値は0で補完されます（データ分布からの推定ではなく
// 固定のポリシー）。
package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/pkg/errors"
)

// LabelColumn は必須のラベルカラム名
const LabelColumn = "class"

// droppedColumns はモデリング前に除外されるカラム
// 空文字列はpandas由来の行番号カラムに対応する
var droppedColumns = map[string]bool{
	"":           true,
	"index":      true,
	"timestamp":  true,
	"timestamp2": true,
}

// Load はCSVファイルを読み込み、Tableを構築する
//
// パラメータ:
//   - path: 入力ファイルのパス
//
// 戻り値:
//   - *Table: 読み込まれたテーブル
//   - error: ファイルの欠落・不正な行・classカラムの欠如などのDataLoadError
func Load(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataLoadError(path, "cannot open file: "+err.Error())
	}
	defer file.Close()

	table, err := Read(file)
	if err != nil {
		return nil, annotatePath(err, path)
	}
	return table, nil
}

// annotatePath はReadが返したDataLoadErrorにファイルパスを付与する
func annotatePath(err error, path string) error {
	var dlErr *errors.DataLoadError
	if errors.As(err, &dlErr) && dlErr.Path == "" {
		return errors.NewDataLoadError(path, dlErr.Reason)
	}
	return err
}

// Read はio.ReaderからCSVテーブルを読み込む
//
// ヘッダー行を解析して特徴量カラムとラベルカラムを特定し、
// 全行を数値化して特徴量行列とラベルベクトルを構築する。
// 欠損セル（空文字・NaN）は0で補完する。ラベルは0または1で
// なければならない。
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewDataLoadError("", "empty file")
	}
	if err != nil {
		return nil, errors.NewDataLoadError("", "malformed header: "+err.Error())
	}

	labelIdx := -1
	featureIdx := make([]int, 0, len(header))
	featureNames := make([]string, 0, len(header))
	for i, name := range header {
		switch {
		case name == LabelColumn:
			labelIdx = i
		case droppedColumns[name]:
			// 除外カラム
		default:
			featureIdx = append(featureIdx, i)
			featureNames = append(featureNames, name)
		}
	}
	if labelIdx < 0 {
		return nil, errors.NewDataLoadError("", "missing required column '"+LabelColumn+"'")
	}
	if len(featureIdx) == 0 {
		return nil, errors.NewDataLoadError("", "no feature columns found")
	}

	var features []float64
	var labels []float64
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.NewDataLoadError("", "malformed row at line "+strconv.Itoa(line)+": "+err.Error())
		}

		label, err := parseLabel(record[labelIdx])
		if err != nil {
			return nil, errors.NewDataLoadError("", "invalid label at line "+strconv.Itoa(line)+": "+err.Error())
		}
		labels = append(labels, label)

		for _, idx := range featureIdx {
			value, err := parseFeature(record[idx])
			if err != nil {
				return nil, errors.NewDataLoadError("", "invalid value at line "+strconv.Itoa(line)+", column '"+header[idx]+"': "+err.Error())
			}
			features = append(features, value)
		}
	}

	if len(labels) == 0 {
		return nil, errors.NewDataLoadError("", "no data rows")
	}

	return &Table{
		Columns: featureNames,
		X:       mat.NewDense(len(labels), len(featureIdx), features),
		Y:       mat.NewVecDense(len(labels), labels),
	}, nil
}

// parseLabel はラベルセルを0または1として解析する
func parseLabel(cell string) (float64, error) {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, errors.New("not a number: " + cell)
	}
	if v != 0 && v != 1 {
		return 0, errors.New("label must be 0 or 1, got " + cell)
	}
	return v, nil
}

// parseFeature は特徴量セルを解析する
// 空文字とNaNは0で補完する（欠損値ポリシー）
func parseFeature(cell string) (float64, error) {
	if cell == "" || cell == "NaN" || cell == "nan" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, errors.New("not a number: " + cell)
	}
	if math.IsNaN(v) {
		return 0, nil
	}
	return v, nil
}

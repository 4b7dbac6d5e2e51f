package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Classifier は二値分類モデルのインターフェース
type Classifier interface {
	Fitter
	Predictor

	// PredictProba は各クラスに対する予測確率を返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Persistable は保存・復元が可能なモデルのインターフェース
type Persistable interface {
	// Save はモデルをファイルに保存する
	Save(path string) error

	// Load はファイルからモデルを読み込む
	Load(path string) error
}

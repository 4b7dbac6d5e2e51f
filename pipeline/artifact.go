package pipeline

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/bgplens/bgplens/core/model"
	"github.com/bgplens/bgplens/pkg/errors"
)

// SchemaVersion は成果物フォーマットの識別子
// モデルと特徴量リストの結合を暗黙の命名規約ではなくスキーマタグで
// 保証するために、成果物本体に埋め込まれる
const SchemaVersion = "bgplens/artifact/v1"

// Artifact は学習済みパイプラインと、それが期待する特徴量カラムの
// 順序付きリストを1つに束ねた永続化単位
type Artifact struct {
	// Schema は成果物フォーマットの識別子（SchemaVersion）
	Schema string

	// FeatureNames は選択された特徴量名。推論時の入力はこの順序で
	// カラムを並べなければならない
	FeatureNames []string

	// Model は学習済みパイプライン
	Model *Pipeline
}

var _ model.Persistable = (*Artifact)(nil)

// NewArtifact は学習済みパイプラインから成果物を作成する
func NewArtifact(features []string, p *Pipeline) *Artifact {
	return &Artifact{
		Schema:       SchemaVersion,
		FeatureNames: features,
		Model:        p,
	}
}

// Save は成果物をgob形式でファイルに保存する
func (a *Artifact) Save(path string) error {
	return model.SaveModel(a, path)
}

// Load はファイルから成果物を読み込み、スキーマを検証する
func (a *Artifact) Load(path string) error {
	if err := model.LoadModel(a, path); err != nil {
		return err
	}
	if a.Schema != SchemaVersion {
		return errors.NewPersistenceError("Artifact.Load", path,
			errors.Newf("unsupported artifact schema %q, want %q", a.Schema, SchemaVersion))
	}
	return nil
}

// LoadArtifact はファイルから成果物を読み込む
func LoadArtifact(path string) (*Artifact, error) {
	var artifact Artifact
	if err := artifact.Load(path); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// WriteFeatureList は選択された特徴量名を `Feature` カラムを持つ
// CSVファイルとして書き出す
func WriteFeatureList(features []string, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.NewPersistenceError("WriteFeatureList", path, err)
	}
	defer file.Close()

	if err := writeFeatureCSV(features, file); err != nil {
		return errors.NewPersistenceError("WriteFeatureList", path, err)
	}
	return nil
}

func writeFeatureCSV(features []string, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Feature"}); err != nil {
		return err
	}
	for _, f := range features {
		if err := writer.Write([]string{f}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadFeatureList はWriteFeatureListが書き出したCSVを読み込む
func ReadFeatureList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewPersistenceError("ReadFeatureList", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewPersistenceError("ReadFeatureList", path, err)
	}
	if len(records) == 0 || len(records[0]) != 1 || records[0][0] != "Feature" {
		return nil, errors.NewPersistenceError("ReadFeatureList", path, errors.New("missing 'Feature' header"))
	}

	features := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		features = append(features, rec[0])
	}
	return features, nil
}

package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/pkg/errors"
	"github.com/bgplens/bgplens/svm"
)

func trainingData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(10, 2, []float64{
		10, 100,
		11, 110,
		12, 105,
		10, 95,
		11, 102,
		50, 500,
		52, 520,
		55, 510,
		51, 495,
		53, 505,
	})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1})
	return X, y
}

func TestPipelineFitPredict(t *testing.T) {
	X, y := trainingData()
	p := New(svm.NewSVC(svm.WithKernel(svm.KernelLinear), svm.WithSeed(42)))
	require.NoError(t, p.Fit(X, y))

	pred, err := p.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "sample %d", i)
	}
}

func TestPipelineNotFitted(t *testing.T) {
	p := New(svm.NewSVC())
	_, err := p.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	var nfErr *errors.NotFittedError
	assert.True(t, errors.As(err, &nfErr))
}

// 永続化して読み込み直したモデルは、元のモデルと同一の予測を
// 再現しなければならない
func TestArtifactRoundTrip(t *testing.T) {
	X, y := trainingData()
	p := New(svm.NewSVC(svm.WithKernel(svm.KernelRBF), svm.WithGamma(svm.GammaScale()), svm.WithSeed(42)))
	require.NoError(t, p.Fit(X, y))

	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.gob")

	artifact := NewArtifact([]string{"announcements", "withdrawals"}, p)
	require.NoError(t, artifact.Save(modelPath))

	loaded, err := LoadArtifact(modelPath)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, loaded.Schema)
	assert.Equal(t, []string{"announcements", "withdrawals"}, loaded.FeatureNames)

	test := mat.NewDense(4, 2, []float64{10, 100, 52, 515, 11, 98, 54, 500})

	wantPred, err := p.Predict(test)
	require.NoError(t, err)
	gotPred, err := loaded.Model.Predict(test)
	require.NoError(t, err)
	assert.True(t, mat.Equal(wantPred, gotPred), "reloaded model must reproduce identical predictions")

	wantProba, err := p.PredictProba(test)
	require.NoError(t, err)
	gotProba, err := loaded.Model.PredictProba(test)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(wantProba, gotProba, 1e-15))
}

func TestLoadArtifactRejectsUnknownSchema(t *testing.T) {
	X, y := trainingData()
	p := New(svm.NewSVC(svm.WithKernel(svm.KernelLinear)))
	require.NoError(t, p.Fit(X, y))

	dir := t.TempDir()
	path := filepath.Join(dir, "model.gob")

	artifact := NewArtifact([]string{"a", "b"}, p)
	artifact.Schema = "bgplens/artifact/v0"
	require.NoError(t, artifact.Save(path))

	_, err := LoadArtifact(path)
	require.Error(t, err)
	var pErr *errors.PersistenceError
	assert.True(t, errors.As(err, &pErr))
}

func TestFeatureListRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.csv")

	features := []string{"announcements", "withdrawals", "avg_as_path"}
	require.NoError(t, WriteFeatureList(features, path))

	got, err := ReadFeatureList(path)
	require.NoError(t, err)
	assert.Equal(t, features, got)
}

func TestWriteFeatureListBadPath(t *testing.T) {
	err := WriteFeatureList([]string{"a"}, filepath.Join(t.TempDir(), "missing", "features.csv"))
	require.Error(t, err)
	var pErr *errors.PersistenceError
	assert.True(t, errors.As(err, &pErr))
}

package explain

import (
	"context"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/pipeline"
	bgplog "github.com/bgplens/bgplens/pkg/log"
	"github.com/bgplens/bgplens/svm"
)

// RowAttribution ties attributions to a test-split row index.
type RowAttribution struct {
	Row          int
	Attributions []Attribution
}

// Summary is the output of one explanation stage run.
type Summary struct {
	// SHAP holds Shapley attributions for the sampled test rows,
	// computed against the simplified linear-kernel surrogate.
	SHAP []RowAttribution

	// Surrogate is the linear-kernel pipeline the Shapley
	// attributions explain. Visualization/attribution only, never
	// persisted.
	Surrogate *pipeline.Pipeline

	// LIME holds local surrogate contributions for the first anomaly
	// in the test split; nil when the split has no anomaly.
	LIME []Attribution

	// LIMERow is the explained test-split row index, -1 when skipped.
	LIMERow int
}

// Stage runs the optional explanation step. The capability is
// resolved once from configuration; a disabled stage is a successful
// no-op.
type Stage struct {
	Enabled bool
	Seed    int64
	Logger  *slog.Logger
}

// Run computes attributions for the fitted model. A nil summary with
// a nil error means the stage was disabled.
//
// The Shapley attributions are computed against a simplified
// linear-kernel surrogate fitted on the training split, not against
// the model itself; the local surrogate explains the model directly.
func (s *Stage) Run(model scorer, featureNames []string, XTrain, XTest mat.Matrix, yTrain, yTest *mat.VecDense) (*Summary, error) {
	if !s.Enabled {
		s.log(slog.LevelInfo, "explanation capability disabled, skipping stage")
		return nil, nil
	}

	surrogate := pipeline.New(svm.NewSVC(svm.WithKernel(svm.KernelLinear), svm.WithSeed(s.Seed)))
	if err := surrogate.Fit(XTrain, yTrain); err != nil {
		return nil, err
	}

	shap, err := NewSHAPExplainer(XTrain, s.Seed)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Surrogate: surrogate, LIMERow: -1}

	for _, row := range sampleTestRows(XTest, MaxExplainedRows, s.Seed) {
		attrs, err := shap.Explain(surrogate, rowValues(XTest, row), featureNames)
		if err != nil {
			return nil, err
		}
		summary.SHAP = append(summary.SHAP, RowAttribution{Row: row, Attributions: attrs})
	}

	anomaly := firstAnomalyRow(yTest)
	if anomaly < 0 {
		s.log(slog.LevelWarn, "test split contains no anomaly, skipping local surrogate")
		return summary, nil
	}

	lime := NewLIMEExplainer(s.Seed)
	attrs, err := lime.Explain(model, XTrain, rowValues(XTest, anomaly), featureNames)
	if err != nil {
		return nil, err
	}
	summary.LIME = attrs
	summary.LIMERow = anomaly

	s.log(slog.LevelInfo, "explanation stage complete",
		slog.Int("shap.rows", len(summary.SHAP)),
		slog.Int("lime.row", anomaly))
	return summary, nil
}

func (s *Stage) log(level slog.Level, msg string, attrs ...any) {
	if s.Logger == nil {
		return
	}
	args := append([]any{slog.String(bgplog.StageKey, "explain")}, attrs...)
	s.Logger.Log(context.Background(), level, msg, args...)
}

// firstAnomalyRow returns the lowest index labeled 1, or -1.
func firstAnomalyRow(y *mat.VecDense) int {
	for i := 0; i < y.Len(); i++ {
		if y.AtVec(i) == 1 {
			return i
		}
	}
	return -1
}

// sampleTestRows picks at most limit row indices, seeded, ascending.
func sampleTestRows(X mat.Matrix, limit int, seed int64) []int {
	rows, _ := X.Dims()
	if rows <= limit {
		indices := make([]int, rows)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	sampled := sampleRowIndices(rows, limit, seed)
	sort.Ints(sampled)
	return sampled
}

func rowValues(X mat.Matrix, i int) []float64 {
	_, cols := X.Dims()
	out := make([]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = X.At(i, j)
	}
	return out
}

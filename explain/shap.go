// Package explain computes local feature attributions for a fitted
// detection pipeline. Two complementary views are provided: a Shapley
// kernel regression over feature coalitions and a weighted local
// surrogate around a single instance.
package explain

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/pkg/errors"
)

const (
	// MaxBackgroundRows caps the background sample used to marginalize
	// absent features.
	MaxBackgroundRows = 100

	// MaxExplainedRows caps how many test rows receive attributions.
	MaxExplainedRows = 10

	// defaultCoalitions caps the sampled coalition count when full
	// enumeration is too large.
	defaultCoalitions = 2048
)

// scorer is the model surface the explainers need: a continuous
// decision value per row.
type scorer interface {
	DecisionFunction(X mat.Matrix) (*mat.VecDense, error)
}

// Attribution is one feature's contribution to a prediction.
type Attribution struct {
	Feature string
	Value   float64
}

// sortAttributions orders by descending magnitude, ties by feature
// name for determinism.
func sortAttributions(attrs []Attribution) {
	sort.SliceStable(attrs, func(i, j int) bool {
		ai, aj := math.Abs(attrs[i].Value), math.Abs(attrs[j].Value)
		if ai != aj {
			return ai > aj
		}
		return attrs[i].Feature < attrs[j].Feature
	})
}

// SHAPExplainer estimates Shapley values with the kernel regression
// approximation: absent features are replaced by background rows, and
// coalition scores are fit with Shapley kernel weights.
type SHAPExplainer struct {
	// Background marginalizes features that are absent from a coalition.
	Background *mat.Dense

	// NCoalitions bounds the sampled coalitions per explanation.
	NCoalitions int

	Seed int64
}

// NewSHAPExplainer samples at most MaxBackgroundRows rows of XTrain
// as the background set.
func NewSHAPExplainer(XTrain mat.Matrix, seed int64) (*SHAPExplainer, error) {
	rows, _ := XTrain.Dims()
	if rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "explain.NewSHAPExplainer")
	}
	return &SHAPExplainer{
		Background:  sampleRows(XTrain, MaxBackgroundRows, seed),
		NCoalitions: defaultCoalitions,
		Seed:        seed,
	}, nil
}

// Explain attributes the model's decision value for x across its
// features. The attributions sum to f(x) - f(background) up to the
// regression tolerance.
func (e *SHAPExplainer) Explain(model scorer, x []float64, featureNames []string) ([]Attribution, error) {
	m := len(x)
	if m != len(featureNames) {
		return nil, errors.NewDimensionError("SHAPExplainer.Explain", len(featureNames), m, 1)
	}
	if m < 2 {
		return nil, errors.NewValueError("SHAPExplainer.Explain", "need at least 2 features")
	}

	fx, err := e.coalitionScore(model, x, full(m))
	if err != nil {
		return nil, err
	}
	f0, err := e.coalitionScore(model, x, make([]bool, m))
	if err != nil {
		return nil, err
	}

	coalitions := e.coalitions(m)
	n := len(coalitions)

	// Weighted regression with the last feature eliminated through the
	// additivity constraint sum(phi) = f(x) - f(0).
	design := mat.NewDense(n, m-1, nil)
	target := mat.NewVecDense(n, nil)
	for i, z := range coalitions {
		score, err := e.coalitionScore(model, x, z)
		if err != nil {
			return nil, err
		}
		w := math.Sqrt(shapleyKernelWeight(m, count(z)))
		zm := b2f(z[m-1])
		for j := 0; j < m-1; j++ {
			design.Set(i, j, w*(b2f(z[j])-zm))
		}
		target.SetVec(i, w*(score-f0-zm*(fx-f0)))
	}

	phi, err := ridgeSolve(design, target, 1e-10)
	if err != nil {
		return nil, errors.Wrap(err, "SHAPExplainer.Explain")
	}

	attrs := make([]Attribution, m)
	sum := 0.0
	for j := 0; j < m-1; j++ {
		attrs[j] = Attribution{Feature: featureNames[j], Value: phi.AtVec(j)}
		sum += phi.AtVec(j)
	}
	attrs[m-1] = Attribution{Feature: featureNames[m-1], Value: (fx - f0) - sum}

	sortAttributions(attrs)
	return attrs, nil
}

// coalitions enumerates every proper non-empty coalition when small
// enough, otherwise samples them.
func (e *SHAPExplainer) coalitions(m int) [][]bool {
	total := (1 << uint(m)) - 2
	if total <= e.NCoalitions {
		out := make([][]bool, 0, total)
		for bits := 1; bits < (1<<uint(m))-1; bits++ {
			z := make([]bool, m)
			for j := 0; j < m; j++ {
				z[j] = bits&(1<<uint(j)) != 0
			}
			out = append(out, z)
		}
		return out
	}

	rng := rand.New(rand.NewPCG(uint64(e.Seed), uint64(e.Seed)))
	out := make([][]bool, 0, e.NCoalitions)
	for len(out) < e.NCoalitions {
		size := 1 + rng.IntN(m-1)
		z := make([]bool, m)
		for _, j := range rng.Perm(m)[:size] {
			z[j] = true
		}
		out = append(out, z)
	}
	return out
}

// coalitionScore averages the model decision over the background set
// with present features pinned to x.
func (e *SHAPExplainer) coalitionScore(model scorer, x []float64, z []bool) (float64, error) {
	rows, cols := e.Background.Dims()
	synth := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if z[j] {
				synth.Set(i, j, x[j])
			} else {
				synth.Set(i, j, e.Background.At(i, j))
			}
		}
	}
	decisions, err := model.DecisionFunction(synth)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for i := 0; i < decisions.Len(); i++ {
		sum += decisions.AtVec(i)
	}
	return sum / float64(rows), nil
}

// shapleyKernelWeight is pi(s) = (m-1) / (C(m,s) * s * (m-s)).
func shapleyKernelWeight(m, s int) float64 {
	return float64(m-1) / (binomial(m, s) * float64(s) * float64(m-s))
}

func binomial(n, k int) float64 {
	if k > n-k {
		k = n - k
	}
	out := 1.0
	for i := 0; i < k; i++ {
		out = out * float64(n-i) / float64(i+1)
	}
	return out
}

// ridgeSolve computes the least squares solution of A x = b with a
// small L2 penalty for numerical stability.
func ridgeSolve(a *mat.Dense, b *mat.VecDense, lambda float64) (*mat.VecDense, error) {
	rows, cols := a.Dims()

	aug := mat.NewDense(rows+cols, cols, nil)
	augB := mat.NewVecDense(rows+cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			aug.Set(i, j, a.At(i, j))
		}
		augB.SetVec(i, b.AtVec(i))
	}
	root := math.Sqrt(lambda)
	for j := 0; j < cols; j++ {
		aug.Set(rows+j, j, root)
	}

	x := mat.NewVecDense(cols, nil)
	if err := x.SolveVec(aug, augB); err != nil {
		return nil, errors.Wrap(errors.ErrSingularMatrix, "ridgeSolve")
	}
	return x, nil
}

// sampleRowIndices draws limit distinct indices out of rows, seeded.
func sampleRowIndices(rows, limit int, seed int64) []int {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	return rng.Perm(rows)[:limit]
}

// sampleRows draws at most limit distinct rows of X, seeded.
func sampleRows(X mat.Matrix, limit int, seed int64) *mat.Dense {
	rows, cols := X.Dims()
	n := rows
	if n > limit {
		n = limit
	}

	picked := sampleRowIndices(rows, n, seed)
	sort.Ints(picked)

	out := mat.NewDense(n, cols, nil)
	for i, idx := range picked {
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}

func full(m int) []bool {
	z := make([]bool, m)
	for j := range z {
		z[j] = true
	}
	return z
}

func count(z []bool) int {
	n := 0
	for _, v := range z {
		if v {
			n++
		}
	}
	return n
}

func b2f(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

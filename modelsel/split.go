// Package modelsel provides train/test splitting, stratified k-fold
// cross-validation and exhaustive hyperparameter search for the
// anomaly classifier.
package modelsel

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/pkg/errors"
)

// DefaultTestSize is the held-out fraction used by the pipeline.
const DefaultTestSize = 0.3

// Split holds a stratified train/test partition.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.VecDense

	TrainIndices []int
	TestIndices  []int
}

// TrainTestSplit partitions the data into stratified train and test
// sets. The split is reproducible: a fixed seed yields identical row
// partitions on identical input.
func TrainTestSplit(X mat.Matrix, y *mat.VecDense, testSize float64, seed int64) (*Split, error) {
	nSamples, _ := X.Dims()
	if nSamples == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "TrainTestSplit")
	}
	if y.Len() != nSamples {
		return nil, errors.NewDimensionError("TrainTestSplit", nSamples, y.Len(), 0)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, errors.NewValueError("TrainTestSplit", "testSize must be in (0, 1)")
	}

	// Group row indices by class, then shuffle within each class.
	classIndices := groupByClass(y)
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	for _, label := range sortedLabels(classIndices) {
		indices := classIndices[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	var trainIdx, testIdx []int
	for _, label := range sortedLabels(classIndices) {
		indices := classIndices[label]
		nTest := int(float64(len(indices)) * testSize)
		testIdx = append(testIdx, indices[:nTest]...)
		trainIdx = append(trainIdx, indices[nTest:]...)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, errors.NewValueError("TrainTestSplit", "split produced an empty partition")
	}

	return &Split{
		XTrain:       subsetMatrix(X, trainIdx),
		XTest:        subsetMatrix(X, testIdx),
		YTrain:       subsetVec(y, trainIdx),
		YTest:        subsetVec(y, testIdx),
		TrainIndices: trainIdx,
		TestIndices:  testIdx,
	}, nil
}

// CVFold represents a single fold in cross-validation.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// StratifiedKFold implements stratified k-fold cross-validation:
// each fold preserves the class balance of the full dataset.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int64
}

// NewStratifiedKFold creates a new stratified k-fold splitter.
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// Split generates stratified train/test indices for each fold.
func (skf *StratifiedKFold) Split(y *mat.VecDense) []CVFold {
	nSamples := y.Len()
	classIndices := groupByClass(y)

	if skf.Shuffle {
		rng := rand.New(rand.NewPCG(uint64(skf.RandomSeed), uint64(skf.RandomSeed)))
		for _, label := range sortedLabels(classIndices) {
			indices := classIndices[label]
			rng.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]CVFold, skf.NSplits)

	// Distribute each class across folds.
	for _, label := range sortedLabels(classIndices) {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		currentIdx := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			for j := 0; j < testSize && currentIdx < nClass; j++ {
				folds[i].TestIndices = append(folds[i].TestIndices, indices[currentIdx])
				currentIdx++
			}
		}
	}

	// Build train sets (all samples not in test).
	for i := 0; i < skf.NSplits; i++ {
		testSet := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			testSet[idx] = true
		}
		for j := 0; j < nSamples; j++ {
			if !testSet[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
		sort.Ints(folds[i].TestIndices)
	}

	return folds
}

// groupByClass maps each label value to its row indices.
func groupByClass(y *mat.VecDense) map[float64][]int {
	classIndices := make(map[float64][]int)
	for i := 0; i < y.Len(); i++ {
		label := y.AtVec(i)
		classIndices[label] = append(classIndices[label], i)
	}
	return classIndices
}

// sortedLabels returns the class labels in ascending order so that
// map iteration order never leaks into the split.
func sortedLabels(classIndices map[float64][]int) []float64 {
	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)
	return labels
}

// subsetMatrix extracts the given rows of X.
func subsetMatrix(X mat.Matrix, indices []int) *mat.Dense {
	_, cols := X.Dims()
	subset := mat.NewDense(len(indices), cols, nil)
	for i, idx := range indices {
		for j := 0; j < cols; j++ {
			subset.Set(i, j, X.At(idx, j))
		}
	}
	return subset
}

// subsetVec extracts the given entries of y.
func subsetVec(y *mat.VecDense, indices []int) *mat.VecDense {
	subset := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		subset.SetVec(i, y.AtVec(idx))
	}
	return subset
}

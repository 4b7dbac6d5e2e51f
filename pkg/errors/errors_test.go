package errors

import (
	"strings"
	"testing"
)

func TestDataLoadError(t *testing.T) {
	err := NewDataLoadError("features.csv", "missing required column 'class'")

	var dlErr *DataLoadError
	if !As(err, &dlErr) {
		t.Fatalf("expected DataLoadError, got %T", err)
	}
	if dlErr.Path != "features.csv" {
		t.Errorf("Path = %q, want %q", dlErr.Path, "features.csv")
	}
	if !strings.Contains(err.Error(), "missing required column 'class'") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestFeatureSelectionError(t *testing.T) {
	err := NewFeatureSelectionError("no rows labeled as anomaly")

	var fsErr *FeatureSelectionError
	if !As(err, &fsErr) {
		t.Fatalf("expected FeatureSelectionError, got %T", err)
	}
	if !strings.Contains(err.Error(), "no rows labeled as anomaly") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestTrainingError(t *testing.T) {
	err := NewTrainingError("GridSearchCV.Fit", "training split contains a single class")

	var trErr *TrainingError
	if !As(err, &trErr) {
		t.Fatalf("expected TrainingError, got %T", err)
	}
	if trErr.Op != "GridSearchCV.Fit" {
		t.Errorf("Op = %q, want %q", trErr.Op, "GridSearchCV.Fit")
	}
}

func TestPersistenceErrorUnwrap(t *testing.T) {
	cause := New("disk full")
	err := NewPersistenceError("SaveArtifact", "model.gob", cause)

	var pErr *PersistenceError
	if !As(err, &pErr) {
		t.Fatalf("expected PersistenceError, got %T", err)
	}
	if !Is(err, cause) {
		t.Error("PersistenceError should unwrap to its cause")
	}
}

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("SVC", "Predict")
	want := "bgplens: SVC: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("StandardScaler.Transform", 15, 3, 1)
	if !strings.Contains(err.Error(), "Expected 15, got 3") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestWarningHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	w := NewUndefinedMetricWarning("precision", "no predicted samples", 0.0)
	Warn(w)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "'precision' is ill-defined") {
		t.Errorf("unexpected warning message: %v", captured)
	}
}

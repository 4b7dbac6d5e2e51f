// Package log defines standard attribute keys for the anomaly-detection pipeline.
//
// Using these keys consistently across stages enables structured log
// analysis of a full training run: which stage ran, on how many rows,
// with which score. The keys follow a hierarchical naming convention
// (e.g. "data.samples", "search.best_f1") so logs can be filtered by
// prefix.
package log

// Stage and Operation Context
const (
	// StageKey identifies the pipeline stage emitting the record.
	// Standard values: "load", "select", "split", "search", "evaluate",
	// "explain", "persist", "render"
	StageKey = "pipeline.stage"

	// ModelNameKey identifies the estimator type.
	// Examples: "SVC", "StandardScaler", "Pipeline"
	ModelNameKey = "model.name"

	// OperationKey specifies the estimator operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// AnomalyRowsKey indicates the number of rows labeled as anomaly.
	AnomalyRowsKey = "data.anomaly_rows"
)

// Search and Evaluation
const (
	// BestParamsKey carries the winning hyperparameter configuration.
	BestParamsKey = "search.best_params"

	// BestScoreKey carries the best cross-validated F1 score.
	BestScoreKey = "search.best_f1"

	// AccuracyKey, PrecisionKey, RecallKey, F1Key and AUCKey carry the
	// held-out evaluation metrics.
	AccuracyKey  = "eval.accuracy"
	PrecisionKey = "eval.precision"
	RecallKey    = "eval.recall"
	F1Key        = "eval.f1"
	AUCKey       = "eval.roc_auc"
	APKey        = "eval.average_precision"
)

// Performance
const (
	// DurationMsKey records the execution time of a stage in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Artifacts
const (
	// ArtifactPathKey records where a persisted artifact was written.
	ArtifactPathKey = "artifact.path"

	// SchemaVersionKey records the artifact schema identifier.
	SchemaVersionKey = "artifact.schema_version"
)

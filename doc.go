// Package bgplens trains and evaluates an SVM-based anomaly detector
// for BGP feature time series.
//
// The pipeline consumes a labeled feature CSV (one row per time
// bucket, a binary `class` column marking anomaly periods), ranks the
// features by the relative shift of their anomaly-period mean, and
// fits a scale-then-SVM pipeline tuned by stratified grid search.
//
// # Packages
//
//   - dataset: CSV loading with imputation and column filtering
//   - featsel: relative mean-shift feature ranking
//   - preprocessing: standard scaling
//   - svm: support vector classifier (SMO solver, Platt calibration)
//   - pipeline: scaler+classifier composition and artifact persistence
//   - modelsel: stratified splitting and grid search
//   - metrics: classification and ranking metrics
//   - decomposition: PCA for the 2-D boundary view
//   - evaluate: held-out metric bundle and boundary mesh
//   - explain: optional Shapley / local-surrogate attributions
//   - render: PNG rendering of curves and the boundary
//
// # Quick Start
//
// Train a model with the default configuration:
//
//	go run ./cmd/bgplens -config run.yaml
//
// Or drive the pieces directly:
//
//	table, err := dataset.Load("features.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ranking, err := featsel.NewSelector(15).Select(table)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	X, _ := table.Select(ranking.Names())
//	split, _ := modelsel.TrainTestSplit(X, table.Y, 0.3, 42)
//
//	search := modelsel.NewGridSearchCV(modelsel.DefaultGrid(), 5, 42)
//	if err := search.Fit(split.XTrain, split.YTrain); err != nil {
//	    log.Fatal(err)
//	}
//	report, _ := evaluate.Evaluate(search.BestModel, split.XTest, split.YTest)
//	fmt.Printf("F1 %.3f AUC %.3f\n", report.F1, report.ROCAUC)
package bgplens

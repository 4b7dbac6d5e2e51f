// Command bgplens trains a BGP anomaly classifier from a labeled
// feature CSV: rank features by their anomaly-period mean shift,
// grid-search an SVM pipeline, evaluate it on a held-out split,
// optionally explain it, and persist the winning model.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/bgplens/bgplens/dataset"
	"github.com/bgplens/bgplens/evaluate"
	"github.com/bgplens/bgplens/explain"
	"github.com/bgplens/bgplens/featsel"
	"github.com/bgplens/bgplens/internal/config"
	"github.com/bgplens/bgplens/modelsel"
	"github.com/bgplens/bgplens/pipeline"
	"github.com/bgplens/bgplens/pkg/errors"
	bgplog "github.com/bgplens/bgplens/pkg/log"
	"github.com/bgplens/bgplens/render"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML run configuration (empty runs the defaults)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("run failed", bgplog.ErrAttr(err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// SetupLogger also routes metric warnings (undefined
	// precision/recall and the like) into a zerolog stream.
	bgplog.SetupLogger(cfg.LogLevel)
	logger := slog.Default()

	// Load.
	start := time.Now()
	table, err := dataset.Load(cfg.Input)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded",
		slog.String(bgplog.StageKey, "load"),
		slog.Int(bgplog.SamplesKey, table.NumRows()),
		slog.Int(bgplog.FeaturesKey, table.NumFeatures()),
		slog.Int(bgplog.AnomalyRowsKey, table.AnomalyCount()),
		slog.Int64(bgplog.DurationMsKey, time.Since(start).Milliseconds()))

	// Select.
	start = time.Now()
	ranking, err := featsel.NewSelector(cfg.Select.TopK).Select(table)
	if err != nil {
		return err
	}
	features := ranking.Names()
	X, err := table.Select(features)
	if err != nil {
		return err
	}
	logger.Info("features selected",
		slog.String(bgplog.StageKey, "select"),
		slog.Int(bgplog.FeaturesKey, len(features)),
		slog.Any("features", features),
		slog.Int64(bgplog.DurationMsKey, time.Since(start).Milliseconds()))

	// Split.
	split, err := modelsel.TrainTestSplit(X, table.Y, cfg.Split.TestSize, cfg.Split.Seed)
	if err != nil {
		return err
	}
	logger.Info("train/test split",
		slog.String(bgplog.StageKey, "split"),
		slog.Int("train_rows", len(split.TrainIndices)),
		slog.Int("test_rows", len(split.TestIndices)))

	// Search.
	start = time.Now()
	grid, err := cfg.Grid()
	if err != nil {
		return err
	}
	search := modelsel.NewGridSearchCV(grid, cfg.Search.Folds, cfg.Split.Seed)
	search.Logger = logger
	if err := search.Fit(split.XTrain, split.YTrain); err != nil {
		return err
	}
	logger.Info("hyperparameter search finished",
		slog.String(bgplog.StageKey, "search"),
		slog.String(bgplog.BestParamsKey, search.BestParams.String()),
		slog.Float64(bgplog.BestScoreKey, search.BestScore),
		slog.Int64(bgplog.DurationMsKey, time.Since(start).Milliseconds()))

	// Evaluate.
	report, err := evaluate.Evaluate(search.BestModel, split.XTest, split.YTest)
	if err != nil {
		return err
	}
	report.Log(logger)

	if cfg.Render.Enabled {
		if err := renderArtifacts(cfg, report, X, table, search); err != nil {
			return err
		}
		logger.Info("plots written",
			slog.String(bgplog.StageKey, "render"),
			slog.String("dir", cfg.Render.Dir))
	}

	// Explain (optional capability).
	stage := &explain.Stage{Enabled: cfg.Explain.Enabled, Seed: cfg.Split.Seed, Logger: logger}
	summary, err := stage.Run(search.BestModel, features, split.XTrain, split.XTest, split.YTrain, split.YTest)
	if err != nil {
		return err
	}
	if summary != nil && summary.LIME != nil {
		top := summary.LIME[0]
		logger.Info("strongest local contribution",
			slog.String(bgplog.StageKey, "explain"),
			slog.String("feature", top.Feature),
			slog.Float64("value", top.Value))
	}

	// Persist.
	for _, path := range []string{cfg.Output.Model, cfg.Output.Features} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.NewPersistenceError("persist", path, err)
		}
	}
	artifact := pipeline.NewArtifact(features, search.BestModel)
	if err := artifact.Save(cfg.Output.Model); err != nil {
		return err
	}
	if err := pipeline.WriteFeatureList(features, cfg.Output.Features); err != nil {
		return err
	}
	logger.Info("artifact persisted",
		slog.String(bgplog.StageKey, "persist"),
		slog.String(bgplog.ArtifactPathKey, cfg.Output.Model),
		slog.String(bgplog.SchemaVersionKey, pipeline.SchemaVersion))

	fmt.Printf("model: %s (F1 %.3f, AUC %.3f)\n", cfg.Output.Model, report.F1, report.ROCAUC)
	return nil
}

// renderArtifacts draws the ROC/PR curves and the 2-D boundary view.
// The 2-D refit uses the winning hyperparameters and is never saved.
func renderArtifacts(cfg *config.Config, report *evaluate.Report, X *mat.Dense, table *dataset.Table, search *modelsel.GridSearchCV) error {
	if err := os.MkdirAll(cfg.Render.Dir, 0o755); err != nil {
		return errors.NewPersistenceError("render", cfg.Render.Dir, err)
	}

	// Curves are nil when the held-out split had a single class.
	if report.ROC != nil {
		if err := render.ROCCurve(report.ROC, report.ROCAUC, filepath.Join(cfg.Render.Dir, "roc.png")); err != nil {
			return err
		}
	}
	if report.PR != nil {
		if err := render.PRCurve(report.PR, report.AveragePrecision, filepath.Join(cfg.Render.Dir, "pr.png")); err != nil {
			return err
		}
	}

	boundary, err := evaluate.NewBoundary(X, table.Y, search.BestParams, cfg.Split.Seed, evaluate.DefaultGridSteps)
	if err != nil {
		return err
	}
	return render.DecisionBoundary(boundary, filepath.Join(cfg.Render.Dir, "boundary.png"))
}

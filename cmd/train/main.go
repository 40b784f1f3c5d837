// Command train fits a model from a CSV dataset outside the API server,
// writing the same artifact the server loads at startup.
package main

import (
	"flag"
	"fmt"
	"os"

	"phishguard/internal/config"
	"phishguard/internal/features"
	"phishguard/internal/logger"
	"phishguard/internal/ml"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Training error: %v", err)
	}
}

func run() error {
	dataPath := flag.String("data", "", "path to the CSV dataset (default: configured dataset)")
	grid := flag.Bool("grid", false, "run a hyperparameter grid search")
	labelColumn := flag.String("label-column", "", "dataset column holding labels (default: auto-detect)")
	out := flag.String("out", "", "artifact output path (default: configured model path)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	path := *dataPath
	if path == "" {
		path = cfg.DefaultDataPath
	}
	outPath := *out
	if outPath == "" {
		outPath = cfg.ModelPath
	}

	samples, err := ml.LoadDataset(path, *labelColumn)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	extractor := features.NewExtractor(cfg.SuspiciousTokens)
	model, metrics, err := ml.Train(samples, extractor, ml.Options{Grid: *grid})
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if err := model.Save(outPath); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}

	logger.Get().Infow("model trained",
		"version", model.Version,
		"accuracy", metrics.Accuracy,
		"trained_rows", metrics.TrainedRows,
		"test_rows", metrics.TestRows,
		"artifact", outPath,
	)
	return nil
}

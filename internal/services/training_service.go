package services

import (
	"fmt"
	"math"
	"os"
	"sync"

	"phishguard/internal/authz"
	"phishguard/internal/config"
	apperrors "phishguard/internal/errors"
	"phishguard/internal/features"
	"phishguard/internal/logger"
	"phishguard/internal/metrics"
	"phishguard/internal/ml"
	"phishguard/internal/registry"
)

// trainingService drives retraining. The mutex is held for the whole run,
// not just the publish, so an overlapping trigger is rejected immediately
// instead of queuing. Training never blocks registry reads: predictions
// keep scoring against the outgoing model until Publish swaps the handle.
type trainingService struct {
	mu        sync.Mutex
	registry  *registry.Registry
	extractor *features.Extractor

	autoTrainOnce sync.Once
}

// NewTrainingService creates a new TrainingServicer.
func NewTrainingService(reg *registry.Registry, extractor *features.Extractor) TrainingServicer {
	return &trainingService{registry: reg, extractor: extractor}
}

// Trigger runs one training cycle: load dataset, train, validate, persist
// the artifact, publish. On any validation failure the previously active
// model stays published and the artifact on disk is untouched.
func (s *trainingService) Trigger(actor authz.Claims, opts TrainingOptions) (*TrainingResult, error) {
	if !authz.Can(actor, authz.ActionTriggerTraining, nil) {
		return nil, apperrors.ErrForbidden
	}

	if !s.mu.TryLock() {
		metrics.TrainingRunsTotal.WithLabelValues("rejected").Inc()
		return nil, apperrors.ErrTrainingInProgress
	}
	defer s.mu.Unlock()

	cfg := config.Get()
	dataPath := opts.DataPath
	if dataPath == "" {
		dataPath = cfg.DefaultDataPath
	}

	samples, err := ml.LoadDataset(dataPath, opts.LabelColumn)
	if err != nil {
		metrics.TrainingRunsTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	model, trainMetrics, err := ml.Train(samples, s.extractor, ml.Options{Grid: opts.Grid})
	if err != nil {
		metrics.TrainingRunsTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.Wrap(apperrors.ErrTrainingFailed, err)
	}

	if err := validateModel(model); err != nil {
		metrics.TrainingRunsTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.Wrap(apperrors.ErrTrainingFailed, err)
	}

	if err := model.Save(cfg.ModelPath); err != nil {
		metrics.TrainingRunsTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.Wrap(apperrors.ErrTrainingFailed, err)
	}

	s.registry.Publish(model)
	metrics.TrainingRunsTotal.WithLabelValues("published").Inc()
	logger.Get().Infow("model published",
		"model_version", model.Version,
		"accuracy", model.Accuracy,
		"trained_rows", trainMetrics.TrainedRows,
		"test_rows", trainMetrics.TestRows,
	)

	return &TrainingResult{ModelVersion: model.Version, Metrics: trainMetrics}, nil
}

// LoadFromDisk publishes the saved artifact if present and compatible.
// A missing artifact is not an error: the service simply starts degraded.
func (s *trainingService) LoadFromDisk() error {
	path := config.Get().ModelPath
	model, err := ml.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := validateModel(model); err != nil {
		logger.Get().Warnw("saved model artifact rejected", "path", path, "error", err)
		return nil
	}
	s.registry.Publish(model)
	logger.Get().Infow("model loaded from disk",
		"model_version", model.Version,
		"accuracy", model.Accuracy,
	)
	return nil
}

// AutoTrain makes a one-time attempt to train from the default dataset when
// no model is active. Failures are logged and swallowed; the service keeps
// answering with degraded responses.
func (s *trainingService) AutoTrain() {
	s.autoTrainOnce.Do(func() {
		if _, ok := s.registry.Current(); ok {
			return
		}
		path := config.Get().DefaultDataPath
		if _, err := os.Stat(path); err != nil {
			return
		}
		logger.Get().Infow("attempting auto-train, no model loaded", "data_path", path)
		if _, err := s.Trigger(authz.Claims{Role: authz.RoleAdmin}, TrainingOptions{DataPath: path}); err != nil {
			logger.Get().Warnw("auto-train failed", "error", err)
		}
	})
}

// validateModel enforces the publish gate: sane accuracy and a feature
// schema matching the current extractor.
func validateModel(m *ml.Model) error {
	if math.IsNaN(m.Accuracy) || m.Accuracy < 0 || m.Accuracy > 1 {
		return fmt.Errorf("model accuracy %v out of range [0,1]", m.Accuracy)
	}
	if !m.Compatible() {
		return fmt.Errorf("model schema fingerprint %s does not match extractor %s", m.SchemaFingerprint, features.Fingerprint())
	}
	return nil
}

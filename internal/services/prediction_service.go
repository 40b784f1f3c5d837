package services

import (
	"context"
	"encoding/json"
	"errors"

	"phishguard/internal/authz"
	"phishguard/internal/config"
	apperrors "phishguard/internal/errors"
	"phishguard/internal/features"
	"phishguard/internal/logger"
	"phishguard/internal/metrics"
	"phishguard/internal/ml"
	"phishguard/internal/models"
	"phishguard/internal/registry"
)

// Verdict labels derived from the classifier output.
const (
	VerdictPhishing   = "phishing"
	VerdictLegitimate = "legitimate"
	// VerdictDegraded is returned while no model is loaded. The request
	// still completes and is still audited, with a null prediction.
	VerdictDegraded = "model_not_loaded"
)

// predictionService orchestrates the hot path.
type predictionService struct {
	registry  *registry.Registry
	extractor *features.Extractor
	audit     AuditServicer
}

// NewPredictionService creates a new PredictionServicer.
func NewPredictionService(reg *registry.Registry, extractor *features.Extractor, audit AuditServicer) PredictionServicer {
	return &predictionService{registry: reg, extractor: extractor, audit: audit}
}

// Predict runs one prediction request: validate, extract, score or degrade,
// then append exactly one audit entry. Validation rejections append
// nothing; completed requests (scored or degraded) append exactly one. An
// audit failure is reported on the operational channel and never fails the
// prediction response.
func (s *predictionService) Predict(ctx context.Context, actor authz.Claims, url string, client ClientInfo) (*PredictionResult, error) {
	if !authz.Can(actor, authz.ActionPredict, nil) {
		return nil, apperrors.ErrForbidden
	}

	if url == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "url is required")
	}
	if max := config.Get().MaxURLLength; len(url) > max {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "url exceeds maximum length")
	}

	vec := s.extractor.Extract(url)

	handle, ok := s.registry.Current()
	if !ok {
		result := &PredictionResult{
			Prediction:   VerdictDegraded,
			Features:     vec,
			ModelVersion: registry.AbsentVersion,
			Message:      "No trained model available. Train a model via POST /train.",
		}
		result.LogID = s.appendLog(ctx, actor, url, vec, nil, nil, registry.AbsentVersion, client)
		metrics.PredictionsTotal.WithLabelValues("degraded").Inc()
		return result, nil
	}

	model := handle.Model
	probability, err := model.Score(vec)
	if err != nil {
		if errors.Is(err, ml.ErrSchemaMismatch) {
			return nil, apperrors.Wrap(apperrors.ErrModelIncompatible, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	prediction := model.Label(probability)
	verdict := VerdictLegitimate
	if prediction == 1 {
		verdict = VerdictPhishing
	}

	accuracy := model.Accuracy
	result := &PredictionResult{
		Prediction:    verdict,
		Probability:   &probability,
		Features:      vec,
		ModelVersion:  model.Version,
		ModelAccuracy: &accuracy,
	}
	result.LogID = s.appendLog(ctx, actor, url, vec, &prediction, &probability, model.Version, client)
	metrics.PredictionsTotal.WithLabelValues(verdict).Inc()
	return result, nil
}

// appendLog writes the audit entry for a completed request and returns the
// assigned id, or nil when the write was dropped.
func (s *predictionService) appendLog(ctx context.Context, actor authz.Claims, url string, vec features.Vector, prediction *int, probability *float64, modelVersion string, client ClientInfo) *uint {
	featuresJSON, err := json.Marshal(vec)
	if err != nil {
		featuresJSON = []byte("{}")
	}

	entry := &models.PredictionLog{
		UserID:       actor.UserID,
		URL:          url,
		FeaturesJSON: string(featuresJSON),
		Prediction:   prediction,
		Probability:  probability,
		ModelVersion: modelVersion,
		Device:       client.Device,
		IP:           client.IP,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		logger.Get().Warnw("failed to append prediction log",
			"error", err,
			"user_id", actor.UserID,
			"model_version", modelVersion,
		)
		metrics.AuditAppendFailures.Inc()
		return nil
	}
	return &entry.ID
}

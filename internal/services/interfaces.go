package services

import (
	"context"

	"phishguard/internal/authz"
	"phishguard/internal/features"
	"phishguard/internal/ml"
	"phishguard/internal/models"
	"phishguard/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, role string) (*models.User, error)
	AttemptLogin(email, password, ip, device string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	ListUsers(req pagination.PageRequest) (pagination.PageResponse[models.User], error)
	SetRole(userID uint, role string) (*models.User, error)
	SetCanDeleteOwnLogs(userID uint, allowed bool) (*models.User, error)
	EnsureAdmin(email, password string) error
}

// AuditServicer is the append-only prediction log store with scoped reads
// and scoped deletion.
type AuditServicer interface {
	// Append writes one log entry. The id and timestamp are assigned
	// server-side; the write survives a canceled request context but is
	// bounded by the configured audit timeout.
	Append(ctx context.Context, entry *models.PredictionLog) error
	// Recent returns entries most-recent-first, scoped to ownerID when
	// non-nil. The limit is clamped to MaxQueryLimit.
	Recent(ownerID *uint, limit int) ([]models.PredictionLog, error)
	// DeleteScoped removes all entries (ownerID nil) or one owner's
	// entries, after authorization evaluator approval for the actor.
	// Deletion is all-or-nothing per call.
	DeleteScoped(actor authz.Claims, ownerID *uint) (int64, error)
}

// ClientInfo carries advisory request metadata (declared device and client
// IP). It enriches the audit trail only and never feeds security decisions.
type ClientInfo struct {
	IP     string
	Device string
}

// PredictionResult is the outcome of a completed prediction request.
// Probability and LogID are nil when no model was loaded or the audit
// append was dropped, respectively.
type PredictionResult struct {
	Prediction    string          `json:"prediction"`
	Probability   *float64        `json:"probability"`
	Features      features.Vector `json:"features"`
	ModelVersion  string          `json:"model_version"`
	ModelAccuracy *float64        `json:"model_accuracy"`
	LogID         *uint           `json:"log_id"`
	Message       string          `json:"message,omitempty"`
}

// PredictionServicer is the hot path: validate, extract, score (or degrade),
// and audit exactly once per completed request.
type PredictionServicer interface {
	Predict(ctx context.Context, actor authz.Claims, url string, client ClientInfo) (*PredictionResult, error)
}

// TrainingOptions selects the dataset and search mode for a run.
type TrainingOptions struct {
	DataPath    string
	Grid        bool
	LabelColumn string
}

// TrainingResult reports a published model.
type TrainingResult struct {
	ModelVersion string     `json:"model_version"`
	Metrics      ml.Metrics `json:"metrics"`
}

// TrainingServicer coordinates retraining: at most one run in flight
// process-wide, validation before publish, and fail-fast rejection of
// overlapping triggers.
type TrainingServicer interface {
	Trigger(actor authz.Claims, opts TrainingOptions) (*TrainingResult, error)
	// LoadFromDisk publishes a previously saved artifact, if one exists
	// and matches the current feature schema.
	LoadFromDisk() error
	// AutoTrain makes a one-time best-effort attempt to train from the
	// default dataset when no model is active.
	AutoTrain()
}

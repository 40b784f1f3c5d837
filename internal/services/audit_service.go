package services

import (
	"context"
	"net/url"
	"time"

	"gorm.io/gorm"

	"phishguard/internal/authz"
	"phishguard/internal/config"
	apperrors "phishguard/internal/errors"
	"phishguard/internal/models"
)

// MaxQueryLimit bounds a single log query so responses stay small.
const MaxQueryLimit = 200

const defaultQueryLimit = 50

// auditService is the append-only prediction log store.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Append writes one prediction log entry. The entry id and timestamp are
// database-assigned; a client-supplied CreatedAt is discarded. The write is
// detached from the request's cancellation so a disconnect cannot lose the
// trail, but it is bounded by the configured audit timeout so it can never
// block a response indefinitely.
func (s *auditService) Append(ctx context.Context, entry *models.PredictionLog) error {
	entry.ID = 0
	entry.CreatedAt = time.Time{} // database-assigned, never client-supplied
	entry.URL = MaskURL(entry.URL)

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.Get().AuditWriteTimeout)
	defer cancel()

	if err := s.db.WithContext(dctx).Create(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Recent returns entries most-recent-first. ownerID nil means all owners
// (admin scope); limit <= 0 uses the default and anything above
// MaxQueryLimit is clamped.
func (s *auditService) Recent(ownerID *uint, limit int) ([]models.PredictionLog, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}

	q := s.db.Model(&models.PredictionLog{}).Order("id DESC").Limit(limit)
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}

	var entries []models.PredictionLog
	if err := q.Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, nil
}

// DeleteScoped removes entries after evaluator approval. A single DELETE
// statement keeps the operation all-or-nothing: a concurrent append lands
// either entirely before or entirely after it.
func (s *auditService) DeleteScoped(actor authz.Claims, ownerID *uint) (int64, error) {
	action := authz.ActionDeleteAnyLogs
	var resource *authz.Resource
	if ownerID != nil {
		resource = &authz.Resource{OwnerUserID: *ownerID}
		if *ownerID == actor.UserID {
			action = authz.ActionDeleteOwnLogs
		}
	}
	if !authz.Can(actor, action, resource) {
		return 0, apperrors.ErrForbidden
	}

	q := s.db.Model(&models.PredictionLog{})
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	} else {
		q = q.Where("1 = 1")
	}
	res := q.Delete(&models.PredictionLog{})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}

// MaskURL reduces a URL to scheme and host before storage when full-URL
// logging is disabled. Masking happens once, at write time, and is not
// reversible.
func MaskURL(raw string) string {
	if config.Get().LogFullURLs {
		return raw
	}
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		if len(raw) > 50 {
			return raw[:40] + "... (masked)"
		}
		return raw
	}
	scheme := ""
	if parsed.Scheme != "" {
		scheme = parsed.Scheme + "://"
	}
	host := parsed.Host
	if host == "" {
		host = parsed.Path
	}
	if len(host) > 40 {
		host = host[:40]
	}
	return scheme + host + "... (masked)"
}

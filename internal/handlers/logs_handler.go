package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"phishguard/internal/authz"
	apperrors "phishguard/internal/errors"
	"phishguard/internal/services"
)

// LogsHandler serves the caller's own slice of the audit trail
type LogsHandler struct {
	auditService services.AuditServicer
}

// NewLogsHandler creates a new LogsHandler
func NewLogsHandler(auditService services.AuditServicer) *LogsHandler {
	return &LogsHandler{auditService: auditService}
}

// parseLimit reads the optional limit query parameter. Zero means
// "use the service default"; the service clamps the upper bound.
func parseLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid limit")
	}
	return limit, nil
}

// GetOwnLogs lists the caller's recent prediction logs
// @Summary     List own prediction logs
// @Description Return the caller's recent prediction log entries, newest first
// @Tags        logs
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Maximum entries to return (default 50, max 200)"
// @Success     200 {array} models.PredictionLog "Log entries"
// @Failure     401 {object} ErrorResponse "Authentication required"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /logs [get]
func (h *LogsHandler) GetOwnLogs(c *gin.Context) {
	claims, err := authorize(c, authz.ActionViewOwnLogs, nil)
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit, err := parseLimit(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	logs, err := h.auditService.Recent(&claims.UserID, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// DeleteOwnLogs removes all of the caller's prediction logs
// @Summary     Delete own prediction logs
// @Description Remove every log entry owned by the caller. Requires the
// @Description per-user deletion permission; the deletion is all-or-nothing.
// @Tags        logs
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Number of deleted entries"
// @Failure     401 {object} ErrorResponse "Authentication required"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /logs [delete]
func (h *LogsHandler) DeleteOwnLogs(c *gin.Context) {
	claims, err := getClaims(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.auditService.DeleteScoped(claims, &claims.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

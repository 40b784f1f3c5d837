package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"phishguard/internal/authz"
	apperrors "phishguard/internal/errors"
	"phishguard/internal/logger"
	"phishguard/internal/middleware"
)

// getClaims extracts the verified token claims from the Gin context.
// Returns ErrUnauthorized if not present.
func getClaims(c *gin.Context) (authz.Claims, error) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return authz.Claims{}, apperrors.ErrUnauthorized
	}
	return claims.Authz(), nil
}

// authorize runs the single authorization decision point for a handler.
// Returns ErrForbidden when the evaluator denies.
func authorize(c *gin.Context, action authz.Action, resource *authz.Resource) (authz.Claims, error) {
	claims, err := getClaims(c)
	if err != nil {
		return authz.Claims{}, err
	}
	if !authz.Can(claims, action, resource) {
		return authz.Claims{}, apperrors.ErrForbidden
	}
	return claims, nil
}

// parsePathID parses a uint path parameter.
// Returns ErrInvalidInput if the parameter is not a valid positive integer.
func parsePathID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return uint(id), nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

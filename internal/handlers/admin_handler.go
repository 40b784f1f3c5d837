package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"phishguard/internal/authz"
	apperrors "phishguard/internal/errors"
	"phishguard/internal/pagination"
	"phishguard/internal/services"
)

// AdminHandler handles user administration and audit oversight
type AdminHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(userService services.UserServicer, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{userService: userService, auditService: auditService}
}

// CreateUserRequest represents the admin user creation payload
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Role     string `json:"role" binding:"required,user_role"`
}

// SetRoleRequest represents the role change payload
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,user_role"`
}

// SetPermissionsRequest represents the permission flag payload
type SetPermissionsRequest struct {
	CanDeleteOwnLogs *bool `json:"can_delete_own_logs" binding:"required"`
}

// ListUsers lists all users with pagination
// @Summary     List users
// @Description List all user accounts (admin only)
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number (default 1)"
// @Param       page_size query int false "Page size (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.User] "Users"
// @Failure     401 {object} ErrorResponse "Authentication required"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	if _, err := authorize(c, authz.ActionManageUsers, nil); err != nil {
		respondWithError(c, err)
		return
	}

	var req pagination.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	req.Defaults()

	page, err := h.userService.ListUsers(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// CreateUser creates a user with an explicit role
// @Summary     Create user
// @Description Create a user account with an explicit role (admin only)
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateUserRequest true "User data"
// @Success     201 {object} UserResponse "Created user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Router      /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	if _, err := authorize(c, authz.ActionManageUsers, nil); err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.CreateUser(req.Email, req.Password, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// SetRole changes a user's role
// @Summary     Set user role
// @Description Change a user's role. Takes effect for tokens issued afterwards;
// @Description outstanding tokens keep the role they were issued with.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Param       request body SetRoleRequest true "New role"
// @Success     200 {object} UserResponse "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id}/role [put]
func (h *AdminHandler) SetRole(c *gin.Context) {
	if _, err := authorize(c, authz.ActionManageUsers, nil); err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.SetRole(id, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// SetPermissions changes a user's permission flags
// @Summary     Set user permissions
// @Description Change a user's can_delete_own_logs flag. Takes effect for
// @Description tokens issued afterwards.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Param       request body SetPermissionsRequest true "Permission flags"
// @Success     200 {object} UserResponse "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id}/permissions [put]
func (h *AdminHandler) SetPermissions(c *gin.Context) {
	if _, err := authorize(c, authz.ActionManageUsers, nil); err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.SetCanDeleteOwnLogs(id, *req.CanDeleteOwnLogs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// GetAllLogs lists recent prediction logs across all users
// @Summary     List all prediction logs
// @Description Return recent prediction log entries for every user, newest first
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Maximum entries to return (default 50, max 200)"
// @Success     200 {array} models.PredictionLog "Log entries"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /admin/logs [get]
func (h *AdminHandler) GetAllLogs(c *gin.Context) {
	if _, err := authorize(c, authz.ActionViewAnyLogs, nil); err != nil {
		respondWithError(c, err)
		return
	}

	limit, err := parseLimit(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	logs, err := h.auditService.Recent(nil, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// GetUserLogs lists recent prediction logs for one user
// @Summary     List one user's prediction logs
// @Description Return recent prediction log entries for the given user
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Param       limit query int false "Maximum entries to return (default 50, max 200)"
// @Success     200 {array} models.PredictionLog "Log entries"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id}/logs [get]
func (h *AdminHandler) GetUserLogs(c *gin.Context) {
	if _, err := authorize(c, authz.ActionViewAnyLogs, nil); err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, err := h.userService.GetUserByID(id); err != nil {
		respondWithError(c, err)
		return
	}

	limit, err := parseLimit(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	logs, err := h.auditService.Recent(&id, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// DeleteAllLogs removes every prediction log
// @Summary     Delete all prediction logs
// @Description Remove every log entry for every user. All-or-nothing.
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Number of deleted entries"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /admin/logs [delete]
func (h *AdminHandler) DeleteAllLogs(c *gin.Context) {
	claims, err := getClaims(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.auditService.DeleteScoped(claims, nil)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// DeleteUserLogs removes one user's prediction logs
// @Summary     Delete one user's prediction logs
// @Description Remove every log entry owned by the given user. All-or-nothing.
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Success     200 {object} map[string]interface{} "Number of deleted entries"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /admin/users/{id}/logs [delete]
func (h *AdminHandler) DeleteUserLogs(c *gin.Context) {
	claims, err := getClaims(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.auditService.DeleteScoped(claims, &id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

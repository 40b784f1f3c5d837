package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"phishguard/internal/authz"
	"phishguard/internal/config"
	apperrors "phishguard/internal/errors"
	"phishguard/internal/middleware"
	"phishguard/internal/services"
)

// TrainHandler handles model retraining requests
type TrainHandler struct {
	trainingService services.TrainingServicer
}

// NewTrainHandler creates a new TrainHandler
func NewTrainHandler(trainingService services.TrainingServicer) *TrainHandler {
	return &TrainHandler{trainingService: trainingService}
}

// TrainRequest represents the retraining request payload
type TrainRequest struct {
	DataPath    string `json:"data_path" binding:"max=1024"`
	Grid        bool   `json:"grid"`
	LabelColumn string `json:"label_column" binding:"max=128"`
}

// trainActor resolves the caller identity for a training request. Two paths
// are accepted: the operator secret in X-Admin-Token (constant-time compare),
// or a bearer token whose claims authorize trigger_training.
func trainActor(c *gin.Context) (authz.Claims, error) {
	cfg := config.Get()
	if operator := c.GetHeader("X-Admin-Token"); operator != "" {
		if cfg.AdminToken != "" &&
			subtle.ConstantTimeCompare([]byte(operator), []byte(cfg.AdminToken)) == 1 {
			// Synthetic operator identity. UserID 0 marks it as
			// non-interactive; the admin role carries the authorization.
			return authz.Claims{Role: authz.RoleAdmin}, nil
		}
		return authz.Claims{}, apperrors.ErrUnauthorized
	}

	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return authz.Claims{}, apperrors.ErrUnauthorized
	}
	claims, err := middleware.ParseAccessToken(token)
	if err != nil {
		return authz.Claims{}, err
	}
	return claims.Authz(), nil
}

// Train triggers a model retraining run
// @Summary     Retrain the model
// @Description Load the dataset, train a candidate model, validate it, and
// @Description publish it atomically. At most one run is in flight at a time;
// @Description overlapping triggers are rejected immediately.
// @Tags        train
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Admin-Token header string false "Operator secret (alternative to bearer token)"
// @Param       request body TrainRequest false "Training options"
// @Success     200 {object} services.TrainingResult "Published model"
// @Failure     400 {object} ErrorResponse "Invalid dataset"
// @Failure     401 {object} ErrorResponse "Authentication required"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Training already in progress"
// @Failure     422 {object} ErrorResponse "Training failed validation"
// @Router      /train [post]
func (h *TrainHandler) Train(c *gin.Context) {
	actor, err := trainActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TrainRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	result, err := h.trainingService.Trigger(actor, services.TrainingOptions{
		DataPath:    req.DataPath,
		Grid:        req.Grid,
		LabelColumn: req.LabelColumn,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "phishguard/internal/errors"
	"phishguard/internal/services"
)

// PredictHandler handles URL classification requests
type PredictHandler struct {
	predictionService services.PredictionServicer
}

// NewPredictHandler creates a new PredictHandler
func NewPredictHandler(predictionService services.PredictionServicer) *PredictHandler {
	return &PredictHandler{predictionService: predictionService}
}

// PredictRequest represents the classification request payload
type PredictRequest struct {
	URL    string `json:"url" binding:"required"`
	Device string `json:"device" binding:"max=255"`
}

// Predict classifies a URL
// @Summary     Classify a URL
// @Description Extract features from a URL and score it with the active model.
// @Description When no model is loaded the response carries the extracted
// @Description features and a degraded verdict instead of a probability.
// @Tags        predict
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PredictRequest true "URL to classify"
// @Success     200 {object} services.PredictionResult "Classification result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Authentication required"
// @Failure     409 {object} ErrorResponse "Model incompatible with feature schema"
// @Router      /predict [post]
func (h *PredictHandler) Predict(c *gin.Context) {
	claims, err := getClaims(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	device := req.Device
	if device == "" {
		device = c.GetHeader("User-Agent")
	}

	result, err := h.predictionService.Predict(c.Request.Context(), claims, req.URL, services.ClientInfo{
		IP:     c.ClientIP(),
		Device: device,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

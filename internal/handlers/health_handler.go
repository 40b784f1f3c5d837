package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"phishguard/internal/features"
	"phishguard/internal/registry"
)

// HealthHandler serves liveness and model status
type HealthHandler struct {
	registry  *registry.Registry
	extractor *features.Extractor
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(reg *registry.Registry, extractor *features.Extractor) *HealthHandler {
	return &HealthHandler{registry: reg, extractor: extractor}
}

// Health reports service and model status
// @Summary     Health check
// @Description Report service liveness and the active model, if any
// @Tags        health
// @Produce     json
// @Success     200 {object} map[string]interface{} "Service status"
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{
		"status":       "ok",
		"model_loaded": false,
	}

	if handle, ok := h.registry.Current(); ok {
		body["model_loaded"] = true
		body["model_version"] = handle.Model.Version
		body["model_accuracy"] = handle.Model.Accuracy
		body["model_compatible"] = handle.Model.Compatible()
		body["loaded_at"] = handle.LoadedAt
	}

	c.JSON(http.StatusOK, body)
}

// FeatureSchema describes the extracted feature set
// @Summary     Feature schema
// @Description Describe every feature the extractor produces, plus the
// @Description schema fingerprint models must match to be scoreable
// @Tags        health
// @Produce     json
// @Success     200 {object} map[string]interface{} "Feature schema"
// @Router      /features/schema [get]
func (h *HealthHandler) FeatureSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fingerprint": features.Fingerprint(),
		"numeric":     features.Names(),
		"features":    features.Schema(),
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cordon-zt/cordon/internal/application/feature/usecases"
	"github.com/cordon-zt/cordon/internal/domain/feature"
	"github.com/cordon-zt/cordon/internal/interfaces/http/middleware"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
	"github.com/cordon-zt/cordon/internal/shared/utils"
)

// FeatureHandler handles per-account feature flag requests.
type FeatureHandler struct {
	checker          authorization.Checker
	featureEnabledUC *usecases.FeatureEnabledUseCase
	setFeatureUC     *usecases.SetFeatureUseCase
	logger           logger.Interface
}

// NewFeatureHandler creates a new FeatureHandler.
func NewFeatureHandler(
	checker authorization.Checker,
	featureEnabledUC *usecases.FeatureEnabledUseCase,
	setFeatureUC *usecases.SetFeatureUseCase,
	log logger.Interface,
) *FeatureHandler {
	return &FeatureHandler{
		checker:          checker,
		featureEnabledUC: featureEnabledUC,
		setFeatureUC:     setFeatureUC,
		logger:           log,
	}
}

// FeatureResponse reports one flag's effective state.
type FeatureResponse struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}

// SetFeatureRequest toggles one flag.
type SetFeatureRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// GetFeature handles GET /v1/features/:key
func (h *FeatureHandler) GetFeature(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	key, err := feature.NewKey(c.Param("key"))
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("unknown feature key"))
		return
	}

	enabled, err := h.featureEnabledUC.Execute(c.Request.Context(), subject.AccountID, key)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", FeatureResponse{Key: key.String(), Enabled: enabled})
}

// SetFeature handles PUT /v1/features/:key
func (h *FeatureHandler) SetFeature(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.checker.EnsureHasPermission(subject, authorization.PermissionManageFeatures); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	key, err := feature.NewKey(c.Param("key"))
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("unknown feature key"))
		return
	}

	var req SetFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("enabled is required"))
		return
	}

	if err := h.setFeatureUC.Execute(c.Request.Context(), subject.AccountID, key, *req.Enabled); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "feature updated", FeatureResponse{Key: key.String(), Enabled: *req.Enabled})
}

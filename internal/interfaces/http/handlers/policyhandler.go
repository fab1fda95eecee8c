package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cordon-zt/cordon/internal/application/flow/usecases"
	"github.com/cordon-zt/cordon/internal/interfaces/http/middleware"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/id"
	"github.com/cordon-zt/cordon/internal/shared/logger"
	"github.com/cordon-zt/cordon/internal/shared/utils"
)

// PolicyHandler handles policy lifecycle requests.
type PolicyHandler struct {
	disablePolicyUC *usecases.DisablePolicyUseCase
	logger          logger.Interface
}

// NewPolicyHandler creates a new PolicyHandler.
func NewPolicyHandler(disablePolicyUC *usecases.DisablePolicyUseCase, log logger.Interface) *PolicyHandler {
	return &PolicyHandler{
		disablePolicyUC: disablePolicyUC,
		logger:          log,
	}
}

// DisablePolicy handles POST /v1/policies/:id/disable
//
// Disabling expires every flow the policy authorized and attempts one
// reauthorization per affected client before responding.
func (h *PolicyHandler) DisablePolicy(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	policySID := c.Param("id")
	if err := id.ValidatePrefix(policySID, id.PrefixPolicy); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid policy ID format, expected pol_xxxxx"))
		return
	}

	result, err := h.disablePolicyUC.Execute(c.Request.Context(), usecases.DisablePolicyCommand{
		Subject:   subject,
		PolicySID: policySID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "policy disabled", result)
}

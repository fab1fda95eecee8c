// Package handlers provides the HTTP handlers of the broker API surface.
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

// FlowHandler handles flow authorization requests.
type FlowHandler struct {
	createFlowUC *usecases.CreateFlowUseCase
	logger       logger.Interface
}

// NewFlowHandler creates a new FlowHandler.
func NewFlowHandler(createFlowUC *usecases.CreateFlowUseCase, log logger.Interface) *FlowHandler {
	return &FlowHandler{
		createFlowUC: createFlowUC,
		logger:       log,
	}
}

// CreateFlowRequest asks the broker to authorize a tunnel from a client to
// a resource. Geo fields are optional posture attributes; lat and lon must
// be given together.
type CreateFlowRequest struct {
	ClientID            string   `json:"client_id" binding:"required,shortid"`
	ResourceID          string   `json:"resource_id" binding:"required,shortid"`
	PreferredGatewayIDs []string `json:"preferred_gateway_ids,omitempty" binding:"omitempty,dive,shortid"`
	Country             string   `json:"country,omitempty" binding:"omitempty,len=2"`
	ProviderID          string   `json:"provider_id,omitempty"`
	Lat                 *float64 `json:"lat,omitempty" binding:"omitempty,gte=-90,lte=90"`
	Lon                 *float64 `json:"lon,omitempty" binding:"omitempty,gte=-180,lte=180"`
}

// CreateFlow handles POST /v1/flows
func (h *FlowHandler) CreateFlow(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create flow", "error", err, "ip", c.ClientIP())
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid request body"))
		return
	}

	if err := id.ValidatePrefix(req.ClientID, id.PrefixClient); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid client_id format, expected cli_xxxxx"))
		return
	}
	if err := id.ValidatePrefix(req.ResourceID, id.PrefixResource); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid resource_id format, expected res_xxxxx"))
		return
	}
	for _, gwSID := range req.PreferredGatewayIDs {
		if err := id.ValidatePrefix(gwSID, id.PrefixGateway); err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("invalid preferred_gateway_ids entry, expected gw_xxxxx"))
			return
		}
	}

	result, err := h.createFlowUC.Execute(c.Request.Context(), usecases.CreateFlowCommand{
		Subject:              subject,
		ClientSID:            req.ClientID,
		ResourceSID:          req.ResourceID,
		PreferredGatewaySIDs: req.PreferredGatewayIDs,
		Country:              req.Country,
		ProviderID:           req.ProviderID,
		ClientLat:            req.Lat,
		ClientLon:            req.Lon,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

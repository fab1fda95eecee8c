package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cordon-zt/cordon/internal/application/actor/usecases"
	"github.com/cordon-zt/cordon/internal/interfaces/http/middleware"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/id"
	"github.com/cordon-zt/cordon/internal/shared/logger"
	"github.com/cordon-zt/cordon/internal/shared/utils"
)

// ActorHandler handles actor lifecycle requests.
type ActorHandler struct {
	disableActorUC *usecases.DisableActorUseCase
	deleteActorUC  *usecases.DeleteActorUseCase
	logger         logger.Interface
}

// NewActorHandler creates a new ActorHandler.
func NewActorHandler(
	disableActorUC *usecases.DisableActorUseCase,
	deleteActorUC *usecases.DeleteActorUseCase,
	log logger.Interface,
) *ActorHandler {
	return &ActorHandler{
		disableActorUC: disableActorUC,
		deleteActorUC:  deleteActorUC,
		logger:         log,
	}
}

// DisableActor handles POST /v1/actors/:id/disable
func (h *ActorHandler) DisableActor(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	actorSID := c.Param("id")
	if err := id.ValidatePrefix(actorSID, id.PrefixActor); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid actor ID format, expected act_xxxxx"))
		return
	}

	result, err := h.disableActorUC.Execute(c.Request.Context(), usecases.DisableActorCommand{
		Subject:  subject,
		ActorSID: actorSID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "actor disabled", result)
}

// DeleteActor handles DELETE /v1/actors/:id
func (h *ActorHandler) DeleteActor(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	actorSID := c.Param("id")
	if err := id.ValidatePrefix(actorSID, id.PrefixActor); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid actor ID format, expected act_xxxxx"))
		return
	}

	result, err := h.deleteActorUC.Execute(c.Request.Context(), usecases.DeleteActorCommand{
		Subject:  subject,
		ActorSID: actorSID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "actor deleted", result)
}

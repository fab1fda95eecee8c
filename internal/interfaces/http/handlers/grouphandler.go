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

// GroupHandler handles group membership requests. Managed and
// provider-synced groups reject direct edits at the use case layer.
type GroupHandler struct {
	addMemberUC    *usecases.AddGroupMemberUseCase
	removeMemberUC *usecases.RemoveGroupMemberUseCase
	logger         logger.Interface
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(
	addMemberUC *usecases.AddGroupMemberUseCase,
	removeMemberUC *usecases.RemoveGroupMemberUseCase,
	log logger.Interface,
) *GroupHandler {
	return &GroupHandler{
		addMemberUC:    addMemberUC,
		removeMemberUC: removeMemberUC,
		logger:         log,
	}
}

func groupMemberParams(c *gin.Context) (string, string, error) {
	groupSID := c.Param("id")
	if err := id.ValidatePrefix(groupSID, id.PrefixActorGroup); err != nil {
		return "", "", errors.NewValidationError("invalid group ID format, expected grp_xxxxx")
	}
	actorSID := c.Param("actor_id")
	if err := id.ValidatePrefix(actorSID, id.PrefixActor); err != nil {
		return "", "", errors.NewValidationError("invalid actor ID format, expected act_xxxxx")
	}
	return groupSID, actorSID, nil
}

// AddMember handles PUT /v1/groups/:id/members/:actor_id
func (h *GroupHandler) AddMember(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	groupSID, actorSID, err := groupMemberParams(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.addMemberUC.Execute(c.Request.Context(), usecases.AddGroupMemberCommand{
		Subject:  subject,
		GroupSID: groupSID,
		ActorSID: actorSID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// RemoveMember handles DELETE /v1/groups/:id/members/:actor_id
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	groupSID, actorSID, err := groupMemberParams(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.removeMemberUC.Execute(c.Request.Context(), usecases.RemoveGroupMemberCommand{
		Subject:  subject,
		GroupSID: groupSID,
		ActorSID: actorSID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "member removed", result)
}

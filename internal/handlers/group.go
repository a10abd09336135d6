package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/group-task-api/internal/dto"
	apierrors "github.com/yukikurage/group-task-api/internal/errors"
	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/services"
)

type GroupHandler struct {
	groupService *services.GroupService
}

func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroup creates a group owned by the current user
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required,max=100"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	group, err := h.groupService.Create(c.Request.Context(), actor, services.CreateGroupInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := dto.ToGroupDTO(*group, true)
	result.Role = models.RoleOwner
	result.MemberCount = 1
	c.JSON(http.StatusCreated, result)
}

// ListGroups returns the groups the current user belongs to
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	groups, err := h.groupService.ListUserGroups(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": dto.ToGroupSummaryDTOs(groups)})
}

// GetGroup returns a group with its members
func (h *GroupHandler) GetGroup(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	details, err := h.groupService.GetDetails(c.Request.Context(), userID, groupID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDetailsDTO(details))
}

// UpdateGroup renames a group or changes its join password
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
		Version  *int    `json:"version"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	group, err := h.groupService.Update(c.Request.Context(), actor, groupID, services.UpdateGroupInput{
		Name:            req.Name,
		Password:        req.Password,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group, true))
}

// DeleteGroup soft-deletes a group (owner only)
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), actor, groupID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}

// JoinGroup joins a group by its code
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		Code     string `json:"code" binding:"required"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.groupService.Join(c.Request.Context(), actor, req.Code, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Successfully joined group",
		"group_id": member.GroupID,
		"member":   dto.ToMemberDTO(*member),
	})
}

// LeaveGroup removes the current user from a group
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.Leave(c.Request.Context(), actor, groupID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left group successfully"})
}

// RegenerateCode issues a new join code
func (h *GroupHandler) RegenerateCode(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	group, err := h.groupService.RegenerateCode(c.Request.Context(), actor, groupID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": group.Code})
}

// InviteMember sends the join code to an email address
func (h *GroupHandler) InviteMember(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.groupService.Invite(c.Request.Context(), actor, groupID, req.Email); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation sent"})
}

// ChangeMemberRole sets a member's role
func (h *GroupHandler) ChangeMemberRole(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	var req struct {
		Role models.GroupRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.groupService.ChangeUserRole(c.Request.Context(), actor, groupID, targetID, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberDTO(*member))
}

// RemoveMember removes another member from a group
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.groupService.RemoveMember(c.Request.Context(), actor, groupID, targetID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

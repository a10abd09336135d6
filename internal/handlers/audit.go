package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/group-task-api/internal/dto"
	"github.com/yukikurage/group-task-api/internal/services"
	"github.com/yukikurage/group-task-api/internal/utils"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GetEntityHistory returns the history of one entity
func (h *AuditHandler) GetEntityHistory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	entityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.auditService.GetEntityHistory(c.Request.Context(), userID, c.Param("type"), entityID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": dto.ToAuditLogDTOs(entries)})
}

// GetTaskHistory returns the history of a task
func (h *AuditHandler) GetTaskHistory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.auditService.GetTaskHistory(c.Request.Context(), userID, taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": dto.ToAuditLogDTOs(entries)})
}

// GetGroupHistory returns a page of a group's activity
func (h *AuditHandler) GetGroupHistory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetAuditPaginationParams(c)
	entries, total, err := h.auditService.GetGroupHistory(c.Request.Context(), userID, groupID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuditPageResponse{
		Entries:    dto.ToAuditLogDTOs(entries),
		Pagination: params.Response(total),
	})
}

// GetUserHistory returns a page of a user's activity in shared groups
func (h *AuditHandler) GetUserHistory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetAuditPaginationParams(c)
	entries, total, err := h.auditService.GetUserHistory(c.Request.Context(), userID, targetID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuditPageResponse{
		Entries:    dto.ToAuditLogDTOs(entries),
		Pagination: params.Response(total),
	})
}

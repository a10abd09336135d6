package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/group-task-api/internal/dto"
	apierrors "github.com/yukikurage/group-task-api/internal/errors"
	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/services"
)

type AttachmentHandler struct {
	attachmentService *services.AttachmentService
}

func NewAttachmentHandler(attachmentService *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// toDTO falls back to the download route when the store has no public URL
func (h *AttachmentHandler) toDTO(attachment models.TaskAttachment) dto.AttachmentDTO {
	url := h.attachmentService.URL(&attachment)
	if url == "" {
		url = fmt.Sprintf("/api/tasks/%d/attachments/%d/download", attachment.TaskID, attachment.ID)
	}
	return dto.ToAttachmentDTO(attachment, url)
}

// ListAttachments returns a task's attachments
func (h *AttachmentHandler) ListAttachments(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	attachments, err := h.attachmentService.List(c.Request.Context(), userID, taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := make([]dto.AttachmentDTO, len(attachments))
	for i, a := range attachments {
		result[i] = h.toDTO(a)
	}
	c.JSON(http.StatusOK, gin.H{"attachments": result})
}

// UploadAttachment stores the multipart "file" field on a task
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "A file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		apierrors.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer file.Close()

	attachment, err := h.attachmentService.Upload(c.Request.Context(), actor, taskID, services.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.toDTO(*attachment))
}

// GetAttachment returns one attachment's metadata
func (h *AttachmentHandler) GetAttachment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := parseIDParam(c, "attachment_id")
	if !ok {
		return
	}

	attachment, err := h.attachmentService.Get(c.Request.Context(), userID, taskID, attachmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toDTO(*attachment))
}

// DownloadAttachment streams the stored file
func (h *AttachmentHandler) DownloadAttachment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := parseIDParam(c, "attachment_id")
	if !ok {
		return
	}

	attachment, body, err := h.attachmentService.Download(c.Request.Context(), userID, taskID, attachmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer func() {
		if err := body.Close(); err != nil {
			log.Printf("attachment %d: close: %v", attachment.ID, err)
		}
	}()

	c.DataFromReader(http.StatusOK, attachment.FileSize, attachment.ContentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", attachment.FileName),
	})
}

// DeleteAttachment removes an attachment from a task
func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := parseIDParam(c, "attachment_id")
	if !ok {
		return
	}

	if err := h.attachmentService.Delete(c.Request.Context(), actor, taskID, attachmentID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted successfully"})
}

package dto

import (
	"time"

	"github.com/yukikurage/group-task-api/internal/models"
)

// CommentDTO represents a task comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	TaskID    uint64    `json:"task_id"`
	UserID    uint64    `json:"user_id"`
	User      *UserDTO  `json:"user,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AttachmentDTO represents a task attachment in API responses
type AttachmentDTO struct {
	ID          uint64    `json:"id"`
	TaskID      uint64    `json:"task_id"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	UploadedBy  uint64    `json:"uploaded_by"`
	Uploader    *UserDTO  `json:"uploader,omitempty"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToCommentDTO converts a TaskComment model
func ToCommentDTO(comment models.TaskComment) CommentDTO {
	dto := CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
	if comment.User.ID != 0 {
		user := ToUserDTO(comment.User)
		dto.User = &user
	}
	return dto
}

// ToCommentDTOs converts a slice of comments
func ToCommentDTOs(comments []models.TaskComment) []CommentDTO {
	result := make([]CommentDTO, len(comments))
	for i, c := range comments {
		result[i] = ToCommentDTO(c)
	}
	return result
}

// ToAttachmentDTO converts a TaskAttachment model; url is where it can be fetched
func ToAttachmentDTO(attachment models.TaskAttachment, url string) AttachmentDTO {
	dto := AttachmentDTO{
		ID:          attachment.ID,
		TaskID:      attachment.TaskID,
		FileName:    attachment.FileName,
		FileSize:    attachment.FileSize,
		ContentType: attachment.ContentType,
		UploadedBy:  attachment.UploadedBy,
		URL:         url,
		CreatedAt:   attachment.CreatedAt,
	}
	if attachment.Uploader.ID != 0 {
		uploader := ToUserDTO(attachment.Uploader)
		dto.Uploader = &uploader
	}
	return dto
}

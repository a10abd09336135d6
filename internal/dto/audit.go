package dto

import (
	"time"

	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/utils"
)

// AuditLogDTO represents an audit entry in API responses
type AuditLogDTO struct {
	ID           uint64    `json:"id"`
	EntityType   string    `json:"entity_type"`
	EntityID     uint64    `json:"entity_id"`
	Action       string    `json:"action"`
	PropertyName string    `json:"property_name,omitempty"`
	OldValue     string    `json:"old_value,omitempty"`
	NewValue     string    `json:"new_value,omitempty"`
	UserID       uint64    `json:"user_id"`
	UserName     string    `json:"user_name"`
	GroupID      *uint64   `json:"group_id,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditPageResponse is a page of audit entries
type AuditPageResponse struct {
	Entries    []AuditLogDTO            `json:"entries"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToAuditLogDTO converts an AuditLog model. IP, user agent and email stay
// server-side.
func ToAuditLogDTO(entry models.AuditLog) AuditLogDTO {
	return AuditLogDTO{
		ID:           entry.ID,
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		Action:       entry.Action,
		PropertyName: entry.PropertyName,
		OldValue:     entry.OldValue,
		NewValue:     entry.NewValue,
		UserID:       entry.UserID,
		UserName:     entry.UserName,
		GroupID:      entry.GroupID,
		Reason:       entry.Reason,
		CreatedAt:    entry.CreatedAt,
	}
}

// ToAuditLogDTOs converts a slice of audit entries
func ToAuditLogDTOs(entries []models.AuditLog) []AuditLogDTO {
	result := make([]AuditLogDTO, len(entries))
	for i, e := range entries {
		result[i] = ToAuditLogDTO(e)
	}
	return result
}

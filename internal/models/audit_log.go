package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Audited entity types
const (
	EntityTypeTask       = "TaskItem"
	EntityTypeGroup      = "Group"
	EntityTypeMember     = "GroupMember"
	EntityTypeComment    = "TaskComment"
	EntityTypeAttachment = "TaskAttachment"
)

// Audit actions
const (
	AuditActionCreated         = "Created"
	AuditActionUpdated         = "Updated"
	AuditActionDeleted         = "Deleted"
	AuditActionStatusChanged   = "StatusChanged"
	AuditActionPriorityChanged = "PriorityChanged"
	AuditActionAssigned        = "Assigned"
	AuditActionUnassigned      = "Unassigned"
	AuditActionJoined          = "Joined"
	AuditActionLeft            = "Left"
	AuditActionRoleChanged     = "RoleChanged"
	AuditActionMemberRemoved   = "MemberRemoved"
	AuditActionCodeRegenerated = "CodeRegenerated"
	AuditActionInvited         = "Invited"
	AuditActionUploaded        = "Uploaded"
)

var ErrAuditLogImmutable = errors.New("audit log entries are immutable")

// AuditLog is append-only. UserName and UserEmail are a snapshot taken
// when the entry is written.
type AuditLog struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	EntityType   string    `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID     uint64    `gorm:"not null;index" json:"entity_id"`
	Action       string    `gorm:"type:varchar(50);not null" json:"action"`
	PropertyName string    `gorm:"type:varchar(100)" json:"property_name,omitempty"`
	OldValue     string    `gorm:"type:varchar(1000)" json:"old_value,omitempty"`
	NewValue     string    `gorm:"type:varchar(1000)" json:"new_value,omitempty"`
	UserID       uint64    `gorm:"not null;index" json:"user_id"`
	UserName     string    `gorm:"type:varchar(50)" json:"user_name"`
	UserEmail    string    `gorm:"type:varchar(255)" json:"user_email"`
	GroupID      *uint64   `gorm:"index" json:"group_id,omitempty"`
	IPAddress    string    `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent    string    `gorm:"type:varchar(1000)" json:"user_agent"`
	Reason       string    `gorm:"type:varchar(1000)" json:"reason,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}

func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusNotStarted  TaskStatus = "NotStarted"
	TaskStatusInProgress  TaskStatus = "InProgress"
	TaskStatusUnderReview TaskStatus = "UnderReview"
	TaskStatusCompleted   TaskStatus = "Completed"
	TaskStatusCancelled   TaskStatus = "Cancelled"
)

// IsValid reports whether the status is one of the known task states.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusUnderReview,
		TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

type TaskItem struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Title        string         `gorm:"type:varchar(200);not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	GroupID      uint64         `gorm:"not null;index" json:"group_id"`
	Status       TaskStatus     `gorm:"type:varchar(20);not null;default:'NotStarted';index" json:"status"`
	PriorityID   uint           `gorm:"not null" json:"priority_id"`
	AssignedToID *uint64        `gorm:"index" json:"assigned_to_id"`
	DueDate      *time.Time     `gorm:"index" json:"due_date"`
	CompletedAt  *time.Time     `json:"completed_at"`
	CreatorID    uint64         `gorm:"not null;index" json:"creator_id"`
	UpdatedBy    *uint64        `json:"updated_by,omitempty"`
	Version      int            `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy    *uint64        `json:"-"`

	// Relations
	Creator     User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	AssignedTo  *User            `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	Group       Group            `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Priority    TaskPriority     `gorm:"foreignKey:PriorityID" json:"priority,omitempty"`
	Comments    []TaskComment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Attachments []TaskAttachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
}

// SetStatus moves the task to status and keeps CompletedAt consistent:
// entering Completed stamps it with now, any other status clears it.
func (t *TaskItem) SetStatus(status TaskStatus, now time.Time) {
	t.Status = status
	if status == TaskStatusCompleted {
		completedAt := now
		t.CompletedAt = &completedAt
		return
	}
	t.CompletedAt = nil
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *TaskItem) IsAssignedTo(userID uint64) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type Group struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"type:varchar(100);not null" json:"name"`
	Code         string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	PasswordHash *string        `gorm:"type:varchar(255)" json:"-"`
	OwnerID      uint64         `gorm:"not null;index" json:"owner_id"`
	IsActive     bool           `gorm:"not null" json:"is_active"`
	Version      int            `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy    *uint64        `json:"-"`

	// Relations
	Owner   User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	Tasks   []TaskItem    `gorm:"foreignKey:GroupID" json:"tasks,omitempty"`
}

// IsPasswordProtected reports whether joining requires a password.
func (g *Group) IsPasswordProtected() bool {
	return g.PasswordHash != nil && *g.PasswordHash != ""
}

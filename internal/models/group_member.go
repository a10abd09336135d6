package models

import (
	"time"

	"gorm.io/gorm"
)

// GroupMember is the join between users and groups. At most one
// non-deleted row exists per (group, user); leaving soft-deletes the row
// and joining again restores it.
type GroupMember struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	GroupID   uint64         `gorm:"not null;uniqueIndex:idx_group_members_group_user" json:"group_id"`
	UserID    uint64         `gorm:"not null;uniqueIndex:idx_group_members_group_user;index" json:"user_id"`
	Role      GroupRole      `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt  time.Time      `json:"joined_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy *uint64        `json:"-"`

	// Relations
	Group Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// PermissionLevel returns the numeric tier of the member's role.
func (m *GroupMember) PermissionLevel() int {
	return m.Role.PermissionLevel()
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskComment struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	TaskID    uint64         `gorm:"not null;index" json:"task_id"`
	UserID    uint64         `gorm:"not null;index" json:"user_id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	UpdatedBy *uint64        `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy *uint64        `json:"-"`

	// Relations
	Task TaskItem `gorm:"foreignKey:TaskID" json:"-"`
	User User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskAttachment struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	TaskID      uint64         `gorm:"not null;index" json:"task_id"`
	FileName    string         `gorm:"type:varchar(255);not null" json:"file_name"`
	FilePath    string         `gorm:"type:varchar(500);not null" json:"-"`
	FileSize    int64          `gorm:"not null" json:"file_size"`
	ContentType string         `gorm:"type:varchar(100)" json:"content_type"`
	UploadedBy  uint64         `gorm:"not null" json:"uploaded_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy   *uint64        `json:"-"`

	// Relations
	Task     TaskItem `gorm:"foreignKey:TaskID" json:"-"`
	Uploader User     `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
}

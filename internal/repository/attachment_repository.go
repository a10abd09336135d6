package repository

import (
	"context"

	"github.com/yukikurage/group-task-api/internal/models"
	"gorm.io/gorm"
)

// GormAttachmentRepository is a GORM implementation of AttachmentRepository
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

func (r *GormAttachmentRepository) Create(ctx context.Context, attachment *models.TaskAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *GormAttachmentRepository) FindByID(ctx context.Context, id uint64) (*models.TaskAttachment, error) {
	var attachment models.TaskAttachment
	if err := r.db.WithContext(ctx).Preload("Uploader").First(&attachment, id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *GormAttachmentRepository) FindByIDUnscoped(ctx context.Context, id uint64) (*models.TaskAttachment, error) {
	var attachment models.TaskAttachment
	if err := r.db.WithContext(ctx).Unscoped().First(&attachment, id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// ListByTask lists a task's attachments newest first
func (r *GormAttachmentRepository) ListByTask(ctx context.Context, taskID uint64) ([]models.TaskAttachment, error) {
	var attachments []models.TaskAttachment
	if err := r.db.WithContext(ctx).Preload("Uploader").
		Where("task_id = ?", taskID).
		Order("created_at DESC, id DESC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *GormAttachmentRepository) Delete(ctx context.Context, id, deletedBy uint64) error {
	return softDelete(r.db.WithContext(ctx), &models.TaskAttachment{}, deletedBy, "id = ?", id)
}

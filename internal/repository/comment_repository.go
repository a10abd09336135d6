package repository

import (
	"context"

	"github.com/yukikurage/group-task-api/internal/models"
	"gorm.io/gorm"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(ctx context.Context, comment *models.TaskComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *GormCommentRepository) FindByID(ctx context.Context, id uint64) (*models.TaskComment, error) {
	var comment models.TaskComment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *GormCommentRepository) FindByIDUnscoped(ctx context.Context, id uint64) (*models.TaskComment, error) {
	var comment models.TaskComment
	if err := r.db.WithContext(ctx).Unscoped().First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByTask lists a task's comments oldest first
func (r *GormCommentRepository) ListByTask(ctx context.Context, taskID uint64) ([]models.TaskComment, error) {
	var comments []models.TaskComment
	if err := r.db.WithContext(ctx).Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *GormCommentRepository) UpdateContent(ctx context.Context, id uint64, content string, updatedBy uint64) error {
	return r.db.WithContext(ctx).Model(&models.TaskComment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":    content,
			"updated_by": updatedBy,
		}).Error
}

func (r *GormCommentRepository) Delete(ctx context.Context, id, deletedBy uint64) error {
	return softDelete(r.db.WithContext(ctx), &models.TaskComment{}, deletedBy, "id = ?", id)
}

package repository

import (
	"context"

	"github.com/yukikurage/group-task-api/internal/constants"
	"github.com/yukikurage/group-task-api/internal/database"
	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.TaskItem) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.TaskItem, error) {
	var task models.TaskItem
	query := r.db.WithContext(ctx)

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindByIDUnscoped finds a task by ID including soft-deleted rows
func (r *GormTaskRepository) FindByIDUnscoped(ctx context.Context, id uint64) (*models.TaskItem, error) {
	var task models.TaskItem
	if err := r.db.WithContext(ctx).Unscoped().First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks of one group with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.TaskItem, int64, error) {
	var tasks []models.TaskItem

	query := r.db.WithContext(ctx).Model(&models.TaskItem{}).Where("task_items.group_id = ?", filter.GroupID)

	// Apply filters
	if filter.Status != nil {
		query = query.Where("task_items.status = ?", *filter.Status)
	}
	if filter.PriorityID != nil {
		query = query.Where("task_items.priority_id = ?", *filter.PriorityID)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("task_items.assigned_to_id = ?", *filter.AssignedUserID)
	}
	if filter.CreatorID != nil {
		query = query.Where("task_items.creator_id = ?", *filter.CreatorID)
	}
	if filter.OverdueAt != nil {
		query = query.Scopes(database.Overdue(*filter.OverdueAt))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("task_items.title LIKE ? OR task_items.description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Session(&gorm.Session{})
	if filter.SortByDueDate {
		listQuery = listQuery.Order("CASE WHEN task_items.due_date IS NULL THEN 1 ELSE 0 END, task_items.due_date ASC")
	} else {
		listQuery = listQuery.Order("task_items.created_at DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		params := utils.NewPaginationParams(filter.Page, filter.PageSize, constants.DefaultPageSize)
		listQuery = listQuery.Scopes(database.Paginate(params))
	}

	if err := listQuery.Preload("Creator").Preload("AssignedTo").Preload("Priority").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update writes the given columns if the stored version still matches
func (r *GormTaskRepository) Update(ctx context.Context, task *models.TaskItem, updates map[string]interface{}) error {
	if err := versionedUpdate(r.db.WithContext(ctx), &models.TaskItem{}, task.ID, task.Version, updates); err != nil {
		return err
	}
	task.Version++
	return nil
}

// Delete soft deletes a task together with its attachments, and its comments
// when withComments is set
func (r *GormTaskRepository) Delete(ctx context.Context, id, deletedBy uint64, withComments bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := softDelete(tx, &models.TaskAttachment{}, deletedBy, "task_id = ?", id); err != nil {
			return err
		}

		if withComments {
			if err := softDelete(tx, &models.TaskComment{}, deletedBy, "task_id = ?", id); err != nil {
				return err
			}
		}

		return softDelete(tx, &models.TaskItem{}, deletedBy, "id = ?", id)
	})
}

// FindPriority finds an active priority
func (r *GormTaskRepository) FindPriority(ctx context.Context, id uint) (*models.TaskPriority, error) {
	var priority models.TaskPriority
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&priority).Error; err != nil {
		return nil, err
	}
	return &priority, nil
}

// ListPriorities lists active priorities in display order
func (r *GormTaskRepository) ListPriorities(ctx context.Context) ([]models.TaskPriority, error) {
	var priorities []models.TaskPriority
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&priorities).Error; err != nil {
		return nil, err
	}
	return priorities, nil
}

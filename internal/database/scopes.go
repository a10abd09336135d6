package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// Overdue keeps open tasks whose due date has passed.
func Overdue(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("task_items.due_date < ?", now).
			Where("task_items.status NOT IN ?", []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusCancelled})
	}
}

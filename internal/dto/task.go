package dto

import (
	"time"

	"github.com/yukikurage/group-task-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// PriorityDTO represents a task priority in API responses
type PriorityDTO struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	DisplayOrder int    `json:"display_order"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID           uint64            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	GroupID      uint64            `json:"group_id"`
	Status       models.TaskStatus `json:"status"`
	PriorityID   uint              `json:"priority_id"`
	Priority     *PriorityDTO      `json:"priority,omitempty"`
	AssignedToID *uint64           `json:"assigned_to_id"`
	AssignedTo   *UserDTO          `json:"assigned_to,omitempty"`
	DueDate      *time.Time        `json:"due_date"`
	CompletedAt  *time.Time        `json:"completed_at"`
	IsOverdue    bool              `json:"is_overdue"`
	CreatorID    uint64            `json:"creator_id"`
	Creator      *UserDTO          `json:"creator,omitempty"`
	Version      int               `json:"version"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToProfileDTO is ToUserDTO including the email, for the user themselves
func ToProfileDTO(user models.User) UserDTO {
	dto := ToUserDTO(user)
	dto.Email = user.Email
	return dto
}

// ToPriorityDTO converts a TaskPriority model to PriorityDTO
func ToPriorityDTO(priority models.TaskPriority) PriorityDTO {
	return PriorityDTO{
		ID:           priority.ID,
		Name:         priority.Name,
		Color:        priority.Color,
		DisplayOrder: priority.DisplayOrder,
	}
}

// ToPriorityDTOs converts a slice of priorities
func ToPriorityDTOs(priorities []models.TaskPriority) []PriorityDTO {
	result := make([]PriorityDTO, len(priorities))
	for i, p := range priorities {
		result[i] = ToPriorityDTO(p)
	}
	return result
}

// ToTaskDTO converts a TaskItem model to TaskDTO, evaluating overdue at now
func ToTaskDTO(task models.TaskItem, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		GroupID:      task.GroupID,
		Status:       task.Status,
		PriorityID:   task.PriorityID,
		AssignedToID: task.AssignedToID,
		DueDate:      task.DueDate,
		CompletedAt:  task.CompletedAt,
		CreatorID:    task.CreatorID,
		Version:      task.Version,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}

	dto.IsOverdue = task.DueDate != nil && task.DueDate.Before(now) &&
		task.Status != models.TaskStatusCompleted && task.Status != models.TaskStatusCancelled

	if task.Priority.ID != 0 {
		priority := ToPriorityDTO(task.Priority)
		dto.Priority = &priority
	}
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}
	if task.AssignedTo != nil && task.AssignedTo.ID != 0 {
		assignee := ToUserDTO(*task.AssignedTo)
		dto.AssignedTo = &assignee
	}

	return dto
}

// ToTaskListResponse builds a paginated task list
func ToTaskListResponse(tasks []models.TaskItem, page, pageSize int, total int64, now time.Time) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		items[i] = ToTaskDTO(t, now)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}
}

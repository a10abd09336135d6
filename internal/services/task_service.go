package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/group-task-api/internal/constants"
	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/notify"
	"github.com/yukikurage/group-task-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrAINoTasksGenerated = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks     = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo        repository.TaskRepository
	groupRepo       repository.GroupRepository
	userRepo        repository.UserRepository
	membership      *MembershipService
	audit           *AuditService
	notifier        notify.Sender
	drafter         TaskDrafter
	cascadeComments bool
	now             func() time.Time
}

// NewTaskService creates a new TaskService. drafter may be nil when AI
// generation is not configured.
func NewTaskService(
	taskRepo repository.TaskRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	membership *MembershipService,
	audit *AuditService,
	notifier notify.Sender,
	drafter TaskDrafter,
	cascadeComments bool,
) *TaskService {
	return &TaskService{
		taskRepo:        taskRepo,
		groupRepo:       groupRepo,
		userRepo:        userRepo,
		membership:      membership,
		audit:           audit,
		notifier:        notifier,
		drafter:         drafter,
		cascadeComments: cascadeComments,
		now:             time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title        string
	Description  string
	PriorityID   uint
	AssignedToID *uint64
	DueDate      *time.Time
}

// UpdateTaskInput represents a partial update. ClearDueDate removes the due
// date; ExpectedVersion, when set, must match the stored version.
type UpdateTaskInput struct {
	Title           *string
	Description     *string
	PriorityID      *uint
	DueDate         *time.Time
	ClearDueDate    bool
	ExpectedVersion *int
}

// ListTasksInput represents filters for listing a group's tasks
type ListTasksInput struct {
	Status        *models.TaskStatus
	PriorityID    *uint
	AssignedToID  *uint64
	CreatorID     *uint64
	Overdue       bool
	Search        string
	SortByDueDate bool
	Page          int
	PageSize      int
}

var taskPreloads = []string{"Creator", "AssignedTo", "Priority"}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrInvalidTaskTitle
	}
	if len(title) > constants.MaxTitleLength {
		return "", ErrTaskTitleTooLong
	}
	return title, nil
}

func formatUserID(id *uint64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(*id, 10)
}

// Create adds a task to the group. TeamLead and above.
func (s *TaskService) Create(ctx context.Context, actor Actor, groupID uint64, input CreateTaskInput) (*models.TaskItem, error) {
	if _, err := s.membership.Require(ctx, groupID, actor.UserID, models.PermissionTeamLead); err != nil {
		return nil, err
	}

	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}

	priorityID := input.PriorityID
	if priorityID == 0 {
		priorityID = models.PriorityMedium
	}
	if _, err := s.findPriority(ctx, priorityID); err != nil {
		return nil, err
	}

	if input.AssignedToID != nil {
		if err := s.ensureAssignable(ctx, groupID, *input.AssignedToID); err != nil {
			return nil, err
		}
	}

	task := &models.TaskItem{
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		GroupID:      groupID,
		Status:       models.TaskStatusNotStarted,
		PriorityID:   priorityID,
		AssignedToID: input.AssignedToID,
		DueDate:      input.DueDate,
		CreatorID:    actor.UserID,
		Version:      1,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeTask,
		EntityID:   task.ID,
		Action:     models.AuditActionCreated,
		NewValue:   task.Title,
		GroupID:    groupRef(groupID),
	})

	created, err := s.taskRepo.FindByID(ctx, task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	if created.AssignedToID != nil {
		s.notifyAssignee(ctx, created)
	}
	return created, nil
}

// Get returns a task to members of its group.
func (s *TaskService) Get(ctx context.Context, userID, taskID uint64) (*models.TaskItem, error) {
	task, err := s.findTask(ctx, taskID, taskPreloads...)
	if err != nil {
		return nil, err
	}
	if _, err := s.membership.Resolve(ctx, task.GroupID, userID); err != nil {
		return nil, err
	}
	return task, nil
}

// ListGroupTasks lists a group's tasks to its members.
func (s *TaskService) ListGroupTasks(ctx context.Context, userID, groupID uint64, input ListTasksInput) ([]models.TaskItem, int64, error) {
	if _, err := s.membership.Resolve(ctx, groupID, userID); err != nil {
		return nil, 0, err
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, 0, ErrInvalidStatus
	}

	filter := repository.TaskFilter{
		GroupID:        groupID,
		Status:         input.Status,
		PriorityID:     input.PriorityID,
		AssignedUserID: input.AssignedToID,
		CreatorID:      input.CreatorID,
		Search:         strings.TrimSpace(input.Search),
		SortByDueDate:  input.SortByDueDate,
		Page:           input.Page,
		PageSize:       input.PageSize,
	}
	if input.Overdue {
		now := s.now()
		filter.OverdueAt = &now
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// Update applies a partial update. TeamLead and above, or the creator.
func (s *TaskService) Update(ctx context.Context, actor Actor, taskID uint64, input UpdateTaskInput) (*models.TaskItem, error) {
	task, member, err := s.loadForMember(ctx, actor.UserID, taskID)
	if err != nil {
		return nil, err
	}
	if !member.Role.AtLeast(models.PermissionTeamLead) && task.CreatorID != actor.UserID {
		return nil, ErrInsufficientPermission
	}
	if input.ExpectedVersion != nil && *input.ExpectedVersion != task.Version {
		return nil, ErrConflict
	}

	updates := map[string]interface{}{}
	var changed []string

	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		if title != task.Title {
			updates["title"] = title
			changed = append(changed, "Title")
		}
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description != task.Description {
			updates["description"] = description
			changed = append(changed, "Description")
		}
	}
	// priority changes get their own entry carrying both names
	var newPriority *models.TaskPriority
	if input.PriorityID != nil && *input.PriorityID != task.PriorityID {
		newPriority, err = s.findPriority(ctx, *input.PriorityID)
		if err != nil {
			return nil, err
		}
		updates["priority_id"] = *input.PriorityID
	}
	if input.ClearDueDate {
		if task.DueDate != nil {
			updates["due_date"] = nil
			changed = append(changed, "DueDate")
		}
	} else if input.DueDate != nil && (task.DueDate == nil || !task.DueDate.Equal(*input.DueDate)) {
		updates["due_date"] = *input.DueDate
		changed = append(changed, "DueDate")
	}

	if len(updates) == 0 {
		return task, nil
	}
	updates["updated_by"] = actor.UserID

	oldPriority := task.Priority.Name
	if err := s.saveTask(ctx, task, updates); err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		s.audit.Log(ctx, AuditEntry{
			Actor:        actor,
			EntityType:   models.EntityTypeTask,
			EntityID:     task.ID,
			Action:       models.AuditActionUpdated,
			PropertyName: strings.Join(changed, ","),
			GroupID:      groupRef(task.GroupID),
		})
	}
	if newPriority != nil {
		s.audit.Log(ctx, AuditEntry{
			Actor:        actor,
			EntityType:   models.EntityTypeTask,
			EntityID:     task.ID,
			Action:       models.AuditActionPriorityChanged,
			PropertyName: "Priority",
			OldValue:     oldPriority,
			NewValue:     newPriority.Name,
			GroupID:      groupRef(task.GroupID),
		})
	}

	return s.findTask(ctx, task.ID, taskPreloads...)
}

// ChangeStatus moves a task to status. TeamLead and above, the assignee or
// the creator.
func (s *TaskService) ChangeStatus(ctx context.Context, actor Actor, taskID uint64, status models.TaskStatus) (*models.TaskItem, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	task, member, err := s.loadForMember(ctx, actor.UserID, taskID)
	if err != nil {
		return nil, err
	}
	if !member.Role.AtLeast(models.PermissionTeamLead) &&
		!task.IsAssignedTo(actor.UserID) &&
		task.CreatorID != actor.UserID {
		return nil, ErrInsufficientPermission
	}

	oldStatus := task.Status
	if oldStatus == status {
		return task, nil
	}

	task.SetStatus(status, s.now())
	if err := s.saveTask(ctx, task, map[string]interface{}{
		"status":       task.Status,
		"completed_at": task.CompletedAt,
		"updated_by":   actor.UserID,
	}); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:        actor,
		EntityType:   models.EntityTypeTask,
		EntityID:     task.ID,
		Action:       models.AuditActionStatusChanged,
		PropertyName: "Status",
		OldValue:     string(oldStatus),
		NewValue:     string(status),
		GroupID:      groupRef(task.GroupID),
	})

	return s.findTask(ctx, task.ID, taskPreloads...)
}

// ChangePriority sets the task priority. TeamLead and above.
func (s *TaskService) ChangePriority(ctx context.Context, actor Actor, taskID uint64, priorityID uint) (*models.TaskItem, error) {
	task, member, err := s.loadForMember(ctx, actor.UserID, taskID)
	if err != nil {
		return nil, err
	}
	if !member.Role.AtLeast(models.PermissionTeamLead) {
		return nil, ErrInsufficientPermission
	}

	priority, err := s.findPriority(ctx, priorityID)
	if err != nil {
		return nil, err
	}
	if task.PriorityID == priorityID {
		return task, nil
	}

	oldPriority := task.Priority.Name
	if err := s.saveTask(ctx, task, map[string]interface{}{
		"priority_id": priorityID,
		"updated_by":  actor.UserID,
	}); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:        actor,
		EntityType:   models.EntityTypeTask,
		EntityID:     task.ID,
		Action:       models.AuditActionPriorityChanged,
		PropertyName: "Priority",
		OldValue:     oldPriority,
		NewValue:     priority.Name,
		GroupID:      groupRef(task.GroupID),
	})

	return s.findTask(ctx, task.ID, taskPreloads...)
}

// Assign gives the task to a group member. TeamLead and above.
func (s *TaskService) Assign(ctx context.Context, actor Actor, taskID, assigneeID uint64) (*models.TaskItem, error) {
	task, member, err := s.loadForMember(ctx, actor.UserID, taskID)
	if err != nil {
		return nil, err
	}
	if !member.Role.AtLeast(models.PermissionTeamLead) {
		return nil, ErrInsufficientPermission
	}
	if err := s.ensureAssignable(ctx, task.GroupID, assigneeID); err != nil {
		return nil, err
	}
	if task.IsAssignedTo(assigneeID) {
		return task, nil
	}

	previous := formatUserID(task.AssignedToID)
	if err := s.saveTask(ctx, task, map[string]interface{}{
		"assigned_to_id": assigneeID,
		"updated_by":     actor.UserID,
	}); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:        actor,
		EntityType:   models.EntityTypeTask,
		EntityID:     task.ID,
		Action:       models.AuditActionAssigned,
		PropertyName: "AssignedTo",
		OldValue:     previous,
		NewValue:     strconv.FormatUint(assigneeID, 10),
		GroupID:      groupRef(task.GroupID),
	})

	assigned, err := s.findTask(ctx, task.ID, taskPreloads...)
	if err != nil {
		return nil, err
	}
	s.notifyAssignee(ctx, assigned)
	return assigned, nil
}

// Unassign clears the assignee. TeamLead and above, or the assignee.
func (s *TaskService) Unassign(ctx context.Context, actor Actor, taskID uint64) (*models.TaskItem, error) {
	task, member, err := s.loadForMember(ctx, actor.UserID, taskID)
	if err != nil {
		return nil, err
	}
	if !member.Role.AtLeast(models.PermissionTeamLead) && !task.IsAssignedTo(actor.UserID) {
		return nil, ErrInsufficientPermission
	}
	if task.AssignedToID == nil {
		return nil, ErrNotAssigned
	}

	previous := formatUserID(task.AssignedToID)
	if err := s.saveTask(ctx, task, map[string]interface{}{
		"assigned_to_id": nil,
		"updated_by":     actor.UserID,
	}); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:        actor,
		EntityType:   models.EntityTypeTask,
		EntityID:     task.ID,
		Action:       models.AuditActionUnassigned,
		PropertyName: "AssignedTo",
		OldValue:     previous,
		GroupID:      groupRef(task.GroupID),
	})

	return s.findTask(ctx, task.ID, taskPreloads...)
}

// Delete soft-deletes the task. Manager and above.
func (s *TaskService) Delete(ctx context.Context, actor Actor, taskID uint64) error {
	task, member, err := s.loadForMember(ctx, actor.UserID, taskID)
	if err != nil {
		return err
	}
	if !member.Role.AtLeast(models.PermissionManager) {
		return ErrInsufficientPermission
	}

	if err := s.taskRepo.Delete(ctx, task.ID, actor.UserID, s.cascadeComments); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeTask,
		EntityID:   task.ID,
		Action:     models.AuditActionDeleted,
		OldValue:   task.Title,
		GroupID:    groupRef(task.GroupID),
	})
	return nil
}

// ListPriorities returns the selectable priorities.
func (s *TaskService) ListPriorities(ctx context.Context) ([]models.TaskPriority, error) {
	priorities, err := s.taskRepo.ListPriorities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list priorities: %w", err)
	}
	return priorities, nil
}

// GenerateDrafts turns free text into draft tasks for the group. Nothing is
// persisted. TeamLead and above.
func (s *TaskService) GenerateDrafts(ctx context.Context, userID, groupID uint64, text string) ([]GeneratedTask, error) {
	if _, err := s.membership.Require(ctx, groupID, userID, models.PermissionTeamLead); err != nil {
		return nil, err
	}
	if s.drafter == nil {
		return nil, ErrAIUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyPrompt
	}

	aiTasks, err := s.drafter.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" || len(aiTask.Title) > constants.MaxTitleLength {
			continue
		}

		if aiTask.PriorityID < models.PriorityLow || aiTask.PriorityID > models.PriorityUrgent {
			aiTask.PriorityID = models.PriorityMedium
		}

		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// loadForMember loads a task and the caller's membership in its group.
func (s *TaskService) loadForMember(ctx context.Context, userID, taskID uint64) (*models.TaskItem, *models.GroupMember, error) {
	task, err := s.findTask(ctx, taskID, "Priority")
	if err != nil {
		return nil, nil, err
	}
	member, err := s.membership.Resolve(ctx, task.GroupID, userID)
	if err != nil {
		return nil, nil, err
	}
	return task, member, nil
}

func (s *TaskService) findTask(ctx context.Context, taskID uint64, preload ...string) (*models.TaskItem, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) findPriority(ctx context.Context, priorityID uint) (*models.TaskPriority, error) {
	priority, err := s.taskRepo.FindPriority(ctx, priorityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidPriority
		}
		return nil, fmt.Errorf("failed to find priority: %w", err)
	}
	return priority, nil
}

// ensureAssignable verifies that the assignee is an active group member
func (s *TaskService) ensureAssignable(ctx context.Context, groupID, userID uint64) error {
	if _, err := s.membership.Resolve(ctx, groupID, userID); err != nil {
		if errors.Is(err, ErrNotGroupMember) {
			return ErrInvalidAssignee
		}
		return err
	}
	return nil
}

func (s *TaskService) saveTask(ctx context.Context, task *models.TaskItem, updates map[string]interface{}) error {
	if err := s.taskRepo.Update(ctx, task, updates); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrConflict
		}
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (s *TaskService) notifyAssignee(ctx context.Context, task *models.TaskItem) {
	if task.AssignedTo == nil {
		return
	}
	group, err := s.groupRepo.FindByID(ctx, task.GroupID)
	if err != nil {
		log.Printf("task: assignment notification for task %d skipped: %v", task.ID, err)
		return
	}
	if err := s.notifier.SendTaskAssigned(ctx, task.AssignedTo.Email, task.AssignedTo.Username, task.Title, group.Name); err != nil {
		log.Printf("task: assignment notification for task %d failed: %v", task.ID, err)
	}
}

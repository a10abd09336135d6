package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/repository"
	"gorm.io/gorm"
)

const maxCommentLength = 2000

// CommentService handles task comments.
type CommentService struct {
	commentRepo repository.CommentRepository
	taskRepo    repository.TaskRepository
	membership  *MembershipService
	audit       *AuditService
}

// NewCommentService creates a new CommentService.
func NewCommentService(
	commentRepo repository.CommentRepository,
	taskRepo repository.TaskRepository,
	membership *MembershipService,
	audit *AuditService,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		taskRepo:    taskRepo,
		membership:  membership,
		audit:       audit,
	}
}

func validateComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxCommentLength {
		return "", ErrEmptyComment
	}
	return content, nil
}

// Add posts a comment on a task. Any group member.
func (s *CommentService) Add(ctx context.Context, actor Actor, taskID uint64, content string) (*models.TaskComment, error) {
	content, err := validateComment(content)
	if err != nil {
		return nil, err
	}

	task, _, err := s.taskMember(ctx, actor.UserID, taskID)
	if err != nil {
		return nil, err
	}

	comment := &models.TaskComment{
		TaskID:  task.ID,
		UserID:  actor.UserID,
		Content: content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeComment,
		EntityID:   comment.ID,
		Action:     models.AuditActionCreated,
		NewValue:   content,
		GroupID:    groupRef(task.GroupID),
	})

	return s.findComment(ctx, task.ID, comment.ID)
}

// List returns a task's comments, oldest first.
func (s *CommentService) List(ctx context.Context, userID, taskID uint64) ([]models.TaskComment, error) {
	if _, _, err := s.taskMember(ctx, userID, taskID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// Update edits a comment. Author only.
func (s *CommentService) Update(ctx context.Context, actor Actor, taskID, commentID uint64, content string) (*models.TaskComment, error) {
	content, err := validateComment(content)
	if err != nil {
		return nil, err
	}

	task, _, err := s.taskMember(ctx, actor.UserID, taskID)
	if err != nil {
		return nil, err
	}

	comment, err := s.findComment(ctx, task.ID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.UserID {
		return nil, ErrInsufficientPermission
	}

	if err := s.commentRepo.UpdateContent(ctx, comment.ID, content, actor.UserID); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:        actor,
		EntityType:   models.EntityTypeComment,
		EntityID:     comment.ID,
		Action:       models.AuditActionUpdated,
		PropertyName: "Content",
		OldValue:     comment.Content,
		NewValue:     content,
		GroupID:      groupRef(task.GroupID),
	})

	return s.findComment(ctx, task.ID, comment.ID)
}

// Delete removes a comment. The author, or Manager and above.
func (s *CommentService) Delete(ctx context.Context, actor Actor, taskID, commentID uint64) error {
	task, member, err := s.taskMember(ctx, actor.UserID, taskID)
	if err != nil {
		return err
	}

	comment, err := s.findComment(ctx, task.ID, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actor.UserID && !member.Role.AtLeast(models.PermissionManager) {
		return ErrInsufficientPermission
	}

	if err := s.commentRepo.Delete(ctx, comment.ID, actor.UserID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeComment,
		EntityID:   comment.ID,
		Action:     models.AuditActionDeleted,
		OldValue:   comment.Content,
		GroupID:    groupRef(task.GroupID),
	})
	return nil
}

func (s *CommentService) taskMember(ctx context.Context, userID, taskID uint64) (*models.TaskItem, *models.GroupMember, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("failed to find task: %w", err)
	}

	member, err := s.membership.Resolve(ctx, task.GroupID, userID)
	if err != nil {
		return nil, nil, err
	}
	return task, member, nil
}

// findComment loads a comment and checks it belongs to the task.
func (s *CommentService) findComment(ctx context.Context, taskID, commentID uint64) (*models.TaskComment, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	if comment.TaskID != taskID {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

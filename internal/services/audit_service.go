package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/repository"
	"github.com/yukikurage/group-task-api/internal/utils"
	"gorm.io/gorm"
)

const maxAuditValueLength = 1000

// AuditEntry is one change to record.
type AuditEntry struct {
	Actor        Actor
	EntityType   string
	EntityID     uint64
	Action       string
	PropertyName string
	OldValue     string
	NewValue     string
	GroupID      *uint64
	Reason       string
}

// AuditService records and serves the audit trail.
type AuditService struct {
	auditRepo      repository.AuditRepository
	userRepo       repository.UserRepository
	groupRepo      repository.GroupRepository
	taskRepo       repository.TaskRepository
	commentRepo    repository.CommentRepository
	attachmentRepo repository.AttachmentRepository
	membership     *MembershipService
}

// NewAuditService creates a new AuditService.
func NewAuditService(
	auditRepo repository.AuditRepository,
	userRepo repository.UserRepository,
	groupRepo repository.GroupRepository,
	taskRepo repository.TaskRepository,
	commentRepo repository.CommentRepository,
	attachmentRepo repository.AttachmentRepository,
	membership *MembershipService,
) *AuditService {
	return &AuditService{
		auditRepo:      auditRepo,
		userRepo:       userRepo,
		groupRepo:      groupRepo,
		taskRepo:       taskRepo,
		commentRepo:    commentRepo,
		attachmentRepo: attachmentRepo,
		membership:     membership,
	}
}

// truncate cuts value to at most maxAuditValueLength bytes on a rune
// boundary.
func truncate(value string) string {
	if len(value) <= maxAuditValueLength {
		return value
	}
	n := maxAuditValueLength
	for n > 0 && !utf8.RuneStart(value[n]) {
		n--
	}
	return value[:n]
}

// Log appends one entry. It never fails the caller: errors are logged and
// dropped.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) {
	record := &models.AuditLog{
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		Action:       entry.Action,
		PropertyName: entry.PropertyName,
		OldValue:     truncate(entry.OldValue),
		NewValue:     truncate(entry.NewValue),
		UserID:       entry.Actor.UserID,
		GroupID:      entry.GroupID,
		IPAddress:    entry.Actor.IPAddress,
		UserAgent:    truncate(entry.Actor.UserAgent),
		Reason:       truncate(entry.Reason),
	}

	users, err := s.userRepo.FindByIDs(ctx, []uint64{entry.Actor.UserID})
	if err != nil {
		log.Printf("audit: failed to resolve user %d for %s %s#%d: %v",
			entry.Actor.UserID, entry.Action, entry.EntityType, entry.EntityID, err)
		return
	}
	if len(users) > 0 {
		record.UserName = users[0].Username
		record.UserEmail = users[0].Email
	}

	if err := s.auditRepo.Create(ctx, record); err != nil {
		log.Printf("audit: failed to record %s %s#%d: %v",
			entry.Action, entry.EntityType, entry.EntityID, err)
	}
}

// GetEntityHistory returns the history of one entity to members of the
// group it belongs to, even after the entity was deleted.
func (s *AuditService) GetEntityHistory(ctx context.Context, requesterID uint64, entityType string, entityID uint64) ([]models.AuditLog, error) {
	groupID, err := s.resolveGroup(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	if _, err := s.membership.Resolve(ctx, groupID, requesterID); err != nil {
		return nil, err
	}

	entries, err := s.auditRepo.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit history: %w", err)
	}
	return entries, nil
}

// GetTaskHistory returns the history of a task.
func (s *AuditService) GetTaskHistory(ctx context.Context, requesterID, taskID uint64) ([]models.AuditLog, error) {
	return s.GetEntityHistory(ctx, requesterID, models.EntityTypeTask, taskID)
}

// GetGroupHistory returns every entry recorded in the group, newest first.
func (s *AuditService) GetGroupHistory(ctx context.Context, requesterID, groupID uint64, page utils.PaginationParams) ([]models.AuditLog, int64, error) {
	if _, err := s.membership.Resolve(ctx, groupID, requesterID); err != nil {
		return nil, 0, err
	}

	entries, total, err := s.auditRepo.ListByGroup(ctx, groupID, page.Offset, page.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load group history: %w", err)
	}
	return entries, total, nil
}

// GetUserHistory returns the actions of targetID in groups the requester
// shares with them. Entries outside any group are visible only to the
// target themselves.
func (s *AuditService) GetUserHistory(ctx context.Context, requesterID, targetID uint64, page utils.PaginationParams) ([]models.AuditLog, int64, error) {
	requesterGroups, err := s.groupRepo.GroupIDsForUser(ctx, requesterID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load memberships: %w", err)
	}

	shared := requesterGroups
	if requesterID != targetID {
		targetGroups, err := s.groupRepo.GroupIDsForUser(ctx, targetID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load memberships: %w", err)
		}
		shared = intersect(requesterGroups, targetGroups)
		if len(shared) == 0 {
			return nil, 0, ErrNotGroupMember
		}
	}

	entries, total, err := s.auditRepo.ListByUser(ctx, targetID, shared, requesterID == targetID, page.Offset, page.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load user history: %w", err)
	}
	return entries, total, nil
}

// resolveGroup finds the group an entity belongs to, reading through soft
// deletes.
func (s *AuditService) resolveGroup(ctx context.Context, entityType string, entityID uint64) (uint64, error) {
	var (
		groupID uint64
		err     error
	)

	switch entityType {
	case models.EntityTypeGroup:
		var group *models.Group
		group, err = s.groupRepo.FindByIDUnscoped(ctx, entityID)
		if err == nil {
			groupID = group.ID
		}
	case models.EntityTypeMember:
		var member *models.GroupMember
		member, err = s.groupRepo.FindMemberByIDUnscoped(ctx, entityID)
		if err == nil {
			groupID = member.GroupID
		}
	case models.EntityTypeTask:
		groupID, err = s.taskGroup(ctx, entityID)
	case models.EntityTypeComment:
		var comment *models.TaskComment
		comment, err = s.commentRepo.FindByIDUnscoped(ctx, entityID)
		if err == nil {
			groupID, err = s.taskGroup(ctx, comment.TaskID)
		}
	case models.EntityTypeAttachment:
		var attachment *models.TaskAttachment
		attachment, err = s.attachmentRepo.FindByIDUnscoped(ctx, entityID)
		if err == nil {
			groupID, err = s.taskGroup(ctx, attachment.TaskID)
		}
	default:
		return 0, ErrInvalidEntityType
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrEntityNotFound
		}
		return 0, fmt.Errorf("failed to resolve %s %d: %w", entityType, entityID, err)
	}
	return groupID, nil
}

func (s *AuditService) taskGroup(ctx context.Context, taskID uint64) (uint64, error) {
	task, err := s.taskRepo.FindByIDUnscoped(ctx, taskID)
	if err != nil {
		return 0, err
	}
	return task.GroupID, nil
}

func intersect(a, b []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}

	result := make([]uint64, 0)
	for _, id := range b {
		if _, ok := seen[id]; ok {
			result = append(result, id)
			delete(seen, id)
		}
	}
	return result
}

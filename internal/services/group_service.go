package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yukikurage/group-task-api/internal/constants"
	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/notify"
	"github.com/yukikurage/group-task-api/internal/repository"
	"github.com/yukikurage/group-task-api/internal/utils"
	"gorm.io/gorm"
)

const maxGroupNameLength = 100

// GroupService provides business logic for group operations.
type GroupService struct {
	groupRepo  repository.GroupRepository
	userRepo   repository.UserRepository
	membership *MembershipService
	audit      *AuditService
	hasher     utils.PasswordHasher
	notifier   notify.Sender
	codeGen    func(name string, now time.Time) string
	now        func() time.Time
}

// NewGroupService creates a new GroupService.
func NewGroupService(
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	membership *MembershipService,
	audit *AuditService,
	hasher utils.PasswordHasher,
	notifier notify.Sender,
) *GroupService {
	return &GroupService{
		groupRepo:  groupRepo,
		userRepo:   userRepo,
		membership: membership,
		audit:      audit,
		hasher:     hasher,
		notifier:   notifier,
		codeGen:    utils.GenerateJoinCode,
		now:        time.Now,
	}
}

// CreateGroupInput represents parameters to create a new group.
type CreateGroupInput struct {
	Name     string
	Password string
}

// UpdateGroupInput holds the optional changes to a group. A non-nil empty
// Password removes the password.
type UpdateGroupInput struct {
	Name            *string
	Password        *string
	ExpectedVersion *int
}

// GroupSummary is one entry of a user's group list.
type GroupSummary struct {
	Group       models.Group
	Role        models.GroupRole
	MemberCount int64
	JoinedAt    time.Time
}

// GroupDetails is a group with its members as seen by one member.
type GroupDetails struct {
	Group           *models.Group
	Members         []models.GroupMember
	CurrentUserRole models.GroupRole
}

func validateGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxGroupNameLength {
		return "", ErrInvalidGroupName
	}
	return name, nil
}

func groupRef(id uint64) *uint64 {
	return &id
}

// uniqueCode draws join codes until one is unused by any group, deleted
// groups included.
func (s *GroupService) uniqueCode(ctx context.Context, name string) (string, error) {
	for attempt := 0; attempt < constants.MaxJoinCodeAttempts; attempt++ {
		code := s.codeGen(name, s.now())
		exists, err := s.groupRepo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check group code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrJoinCodeGeneration
}

// Create creates a group with the actor as its sole Owner.
func (s *GroupService) Create(ctx context.Context, actor Actor, input CreateGroupInput) (*models.Group, error) {
	name, err := validateGroupName(input.Name)
	if err != nil {
		return nil, err
	}

	code, err := s.uniqueCode(ctx, name)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:     name,
		Code:     code,
		OwnerID:  actor.UserID,
		IsActive: true,
		Version:  1,
	}
	if input.Password != "" {
		hashed, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		group.PasswordHash = &hashed
	}

	owner := &models.GroupMember{JoinedAt: s.now()}
	if err := s.groupRepo.CreateWithOwner(ctx, group, owner); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeGroup,
		EntityID:   group.ID,
		Action:     models.AuditActionCreated,
		NewValue:   group.Name,
		GroupID:    groupRef(group.ID),
	})

	return group, nil
}

// Join adds the actor to the group behind code as a Member.
func (s *GroupService) Join(ctx context.Context, actor Actor, code, password string) (*models.GroupMember, error) {
	code = utils.NormalizeJoinCode(code)
	if !utils.IsValidJoinCode(code) {
		return nil, ErrInvalidJoinCode
	}

	group, err := s.groupRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidJoinCode
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if !group.IsActive {
		return nil, ErrGroupInactive
	}

	if _, err := s.membership.Resolve(ctx, group.ID, actor.UserID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, ErrNotGroupMember) {
		return nil, err
	}

	if group.IsPasswordProtected() {
		if password == "" {
			return nil, ErrGroupPasswordRequired
		}
		if !s.hasher.Verify(password, *group.PasswordHash) {
			return nil, ErrIncorrectGroupPassword
		}
	}

	member := &models.GroupMember{
		GroupID:  group.ID,
		UserID:   actor.UserID,
		Role:     models.RoleMember,
		JoinedAt: s.now(),
	}
	if err := s.groupRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	member.Group = *group

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeMember,
		EntityID:   member.ID,
		Action:     models.AuditActionJoined,
		NewValue:   string(member.Role),
		GroupID:    groupRef(group.ID),
	})

	return member, nil
}

// ListUserGroups returns the groups the user belongs to with member counts.
func (s *GroupService) ListUserGroups(ctx context.Context, userID uint64) ([]GroupSummary, error) {
	memberships, err := s.groupRepo.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	groupIDs := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		groupIDs = append(groupIDs, m.GroupID)
	}
	counts, err := s.groupRepo.CountMembers(ctx, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	summaries := make([]GroupSummary, 0, len(memberships))
	for _, m := range memberships {
		summaries = append(summaries, GroupSummary{
			Group:       m.Group,
			Role:        m.Role,
			MemberCount: counts[m.GroupID],
			JoinedAt:    m.JoinedAt,
		})
	}
	return summaries, nil
}

// GetDetails returns a group and its members to one of its members.
func (s *GroupService) GetDetails(ctx context.Context, userID, groupID uint64) (*GroupDetails, error) {
	member, err := s.membership.Resolve(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}

	return &GroupDetails{
		Group:           group,
		Members:         members,
		CurrentUserRole: member.Role,
	}, nil
}

// Update changes the name and/or password. Managers and the Owner only.
func (s *GroupService) Update(ctx context.Context, actor Actor, groupID uint64, input UpdateGroupInput) (*models.Group, error) {
	if _, err := s.membership.Require(ctx, groupID, actor.UserID, models.PermissionManager); err != nil {
		return nil, err
	}

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if input.ExpectedVersion != nil && *input.ExpectedVersion != group.Version {
		return nil, ErrConflict
	}

	updates := map[string]interface{}{}
	var entries []AuditEntry

	if input.Name != nil {
		name, err := validateGroupName(*input.Name)
		if err != nil {
			return nil, err
		}
		if name != group.Name {
			updates["name"] = name
			entries = append(entries, AuditEntry{PropertyName: "Name", OldValue: group.Name, NewValue: name})
			group.Name = name
		}
	}

	if input.Password != nil {
		var hashed *string
		if *input.Password != "" {
			h, err := s.hasher.Hash(*input.Password)
			if err != nil {
				return nil, ErrFailedToHashPassword
			}
			hashed = &h
		}
		updates["password_hash"] = hashed
		entries = append(entries, AuditEntry{PropertyName: "Password"})
		group.PasswordHash = hashed
	}

	if len(updates) == 0 {
		return group, nil
	}

	if err := s.groupRepo.Update(ctx, group, updates); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	for _, entry := range entries {
		entry.Actor = actor
		entry.EntityType = models.EntityTypeGroup
		entry.EntityID = group.ID
		entry.Action = models.AuditActionUpdated
		entry.GroupID = groupRef(group.ID)
		s.audit.Log(ctx, entry)
	}

	return group, nil
}

// ChangeUserRole sets the role of another member.
func (s *GroupService) ChangeUserRole(ctx context.Context, actor Actor, groupID, targetUserID uint64, newRole models.GroupRole) (*models.GroupMember, error) {
	actorMember, err := s.membership.Require(ctx, groupID, actor.UserID, models.PermissionManager)
	if err != nil {
		return nil, err
	}

	target, err := s.findMember(ctx, groupID, targetUserID)
	if err != nil {
		return nil, err
	}

	if err := ValidateRoleChange(actorMember, target, newRole); err != nil {
		return nil, err
	}
	if target.Role == newRole {
		return target, nil
	}

	oldRole := target.Role
	if err := s.groupRepo.UpdateMemberRole(ctx, groupID, targetUserID, newRole); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to change role: %w", err)
	}
	target.Role = newRole

	s.audit.Log(ctx, AuditEntry{
		Actor:        actor,
		EntityType:   models.EntityTypeMember,
		EntityID:     target.ID,
		Action:       models.AuditActionRoleChanged,
		PropertyName: "Role",
		OldValue:     string(oldRole),
		NewValue:     string(newRole),
		GroupID:      groupRef(groupID),
	})

	return target, nil
}

// RemoveMember removes another member from the group.
func (s *GroupService) RemoveMember(ctx context.Context, actor Actor, groupID, targetUserID uint64) error {
	actorMember, err := s.membership.Require(ctx, groupID, actor.UserID, models.PermissionManager)
	if err != nil {
		return err
	}

	target, err := s.findMember(ctx, groupID, targetUserID)
	if err != nil {
		return err
	}

	if err := ValidateRemoval(actorMember, target); err != nil {
		return err
	}

	if err := s.groupRepo.RemoveMember(ctx, groupID, targetUserID, actor.UserID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeMember,
		EntityID:   target.ID,
		Action:     models.AuditActionMemberRemoved,
		OldValue:   string(target.Role),
		GroupID:    groupRef(groupID),
	})
	return nil
}

// Leave removes the actor from the group. The Owner cannot leave.
func (s *GroupService) Leave(ctx context.Context, actor Actor, groupID uint64) error {
	member, err := s.membership.Resolve(ctx, groupID, actor.UserID)
	if err != nil {
		return err
	}
	if member.Role == models.RoleOwner {
		return ErrOwnerCannotLeave
	}

	if err := s.groupRepo.RemoveMember(ctx, groupID, actor.UserID, actor.UserID); err != nil {
		return fmt.Errorf("failed to leave group: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeMember,
		EntityID:   member.ID,
		Action:     models.AuditActionLeft,
		OldValue:   string(member.Role),
		GroupID:    groupRef(groupID),
	})
	return nil
}

// Delete soft-deletes the group with its memberships and tasks. Owner only.
func (s *GroupService) Delete(ctx context.Context, actor Actor, groupID uint64) error {
	if _, err := s.membership.Require(ctx, groupID, actor.UserID, models.PermissionOwner); err != nil {
		return err
	}

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}

	if err := s.groupRepo.Delete(ctx, groupID, actor.UserID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeGroup,
		EntityID:   groupID,
		Action:     models.AuditActionDeleted,
		OldValue:   group.Name,
		GroupID:    groupRef(groupID),
	})
	return nil
}

// RegenerateCode replaces the join code. Managers and the Owner only.
func (s *GroupService) RegenerateCode(ctx context.Context, actor Actor, groupID uint64) (*models.Group, error) {
	if _, err := s.membership.Require(ctx, groupID, actor.UserID, models.PermissionManager); err != nil {
		return nil, err
	}

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	code, err := s.uniqueCode(ctx, group.Name)
	if err != nil {
		return nil, err
	}

	if err := s.groupRepo.Update(ctx, group, map[string]interface{}{"code": code}); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to update group code: %w", err)
	}
	group.Code = code

	s.audit.Log(ctx, AuditEntry{
		Actor:        actor,
		EntityType:   models.EntityTypeGroup,
		EntityID:     group.ID,
		Action:       models.AuditActionCodeRegenerated,
		PropertyName: "Code",
		GroupID:      groupRef(group.ID),
	})
	return group, nil
}

// Invite sends the join code to an email address. Delivery is best-effort.
func (s *GroupService) Invite(ctx context.Context, actor Actor, groupID uint64, email string) error {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}

	if _, err := s.membership.Require(ctx, groupID, actor.UserID, models.PermissionManager); err != nil {
		return err
	}

	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}

	inviter, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return fmt.Errorf("failed to find inviter: %w", err)
	}

	if err := s.notifier.SendGroupInvitation(ctx, email, group.Name, group.Code, inviter.Username); err != nil {
		log.Printf("group: invitation to %s for group %d failed: %v", email, group.ID, err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeGroup,
		EntityID:   group.ID,
		Action:     models.AuditActionInvited,
		NewValue:   email,
		GroupID:    groupRef(group.ID),
	})
	return nil
}

func (s *GroupService) findGroup(ctx context.Context, groupID uint64) (*models.Group, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	return group, nil
}

func (s *GroupService) findMember(ctx context.Context, groupID, userID uint64) (*models.GroupMember, error) {
	member, err := s.groupRepo.FindMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	return member, nil
}

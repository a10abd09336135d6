package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/repository"
	"gorm.io/gorm"
)

// MembershipService answers "may this user do that in this group".
type MembershipService struct {
	groupRepo repository.GroupRepository
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(groupRepo repository.GroupRepository) *MembershipService {
	return &MembershipService{groupRepo: groupRepo}
}

// Resolve returns the user's active membership in the group.
func (s *MembershipService) Resolve(ctx context.Context, groupID, userID uint64) (*models.GroupMember, error) {
	member, err := s.groupRepo.FindMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotGroupMember
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	return member, nil
}

// Require resolves the membership and checks it meets minLevel.
func (s *MembershipService) Require(ctx context.Context, groupID, userID uint64, minLevel int) (*models.GroupMember, error) {
	member, err := s.Resolve(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.AtLeast(minLevel) {
		return nil, ErrInsufficientPermission
	}
	return member, nil
}

// outranks reports whether actor may act on target. The Owner outranks
// everyone; anyone else only members strictly below them.
func outranks(actor, target *models.GroupMember) bool {
	if actor.Role == models.RoleOwner {
		return true
	}
	return target.PermissionLevel() < actor.PermissionLevel()
}

// ValidateRoleChange applies the role-change rules for actor setting
// target's role to newRole.
func ValidateRoleChange(actor, target *models.GroupMember, newRole models.GroupRole) error {
	if !newRole.IsValid() {
		return ErrInvalidRole
	}
	if !actor.Role.AtLeast(models.PermissionManager) {
		return ErrInsufficientPermission
	}
	if newRole == models.RoleOwner || target.Role == models.RoleOwner {
		return ErrInvalidRoleTransition
	}
	if !outranks(actor, target) {
		return ErrInsufficientPermission
	}
	if actor.Role != models.RoleOwner && newRole.PermissionLevel() >= actor.PermissionLevel() {
		return ErrInsufficientPermission
	}
	return nil
}

// ValidateRemoval applies the rules for actor removing target from the group.
func ValidateRemoval(actor, target *models.GroupMember) error {
	if !actor.Role.AtLeast(models.PermissionManager) {
		return ErrInsufficientPermission
	}
	if actor.UserID == target.UserID {
		return ErrCannotRemoveYourself
	}
	if target.Role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}
	if !outranks(actor, target) {
		return ErrInsufficientPermission
	}
	return nil
}

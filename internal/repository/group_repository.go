package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/group-task-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrCreateGroup is returned when creating the group row fails inside the create transaction.
	ErrCreateGroup = errors.New("group repository: create group failed")
	// ErrCreateOwnerMembership is returned when creating the owner membership fails inside the create transaction.
	ErrCreateOwnerMembership = errors.New("group repository: create owner membership failed")
)

// GormGroupRepository is a GORM implementation of GroupRepository
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

// CreateWithOwner creates the group and the owner membership atomically.
func (r *GormGroupRepository) CreateWithOwner(ctx context.Context, group *models.Group, owner *models.GroupMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateGroup, err)
		}

		owner.GroupID = group.ID
		owner.UserID = group.OwnerID
		owner.Role = models.RoleOwner

		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateOwnerMembership, err)
		}

		return nil
	})
}

// FindByID finds a group by ID
func (r *GormGroupRepository) FindByID(ctx context.Context, id uint64) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByIDUnscoped finds a group by ID including soft-deleted rows
func (r *GormGroupRepository) FindByIDUnscoped(ctx context.Context, id uint64) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Unscoped().First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByCode finds a group by join code
func (r *GormGroupRepository) FindByCode(ctx context.Context, code string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// CodeExists checks codes of deleted groups too, since the unique index covers them
func (r *GormGroupRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Unscoped().Model(&models.Group{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update writes the given columns if the stored version still matches
func (r *GormGroupRepository) Update(ctx context.Context, group *models.Group, updates map[string]interface{}) error {
	if err := versionedUpdate(r.db.WithContext(ctx), &models.Group{}, group.ID, group.Version, updates); err != nil {
		return err
	}
	group.Version++
	return nil
}

// Delete soft-deletes the group and everything hanging off it in a transaction
func (r *GormGroupRepository) Delete(ctx context.Context, id, deletedBy uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := softDelete(tx, &models.GroupMember{}, deletedBy, "group_id = ?", id); err != nil {
			return err
		}

		if err := softDelete(tx, &models.TaskItem{}, deletedBy, "group_id = ?", id); err != nil {
			return err
		}

		return softDelete(tx, &models.Group{}, deletedBy, "id = ?", id)
	})
}

// AddMember inserts the membership, or restores the soft-deleted row for the
// same (group, user) pair, then reloads it.
func (r *GormGroupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"deleted_at": gorm.Expr("NULL"),
				"deleted_by": gorm.Expr("NULL"),
				"role":       member.Role,
				"joined_at":  member.JoinedAt,
				"updated_at": time.Now(),
			}),
		}).Create(member).Error
		if err != nil {
			return err
		}

		var stored models.GroupMember
		if err := tx.Where("group_id = ? AND user_id = ?", member.GroupID, member.UserID).
			First(&stored).Error; err != nil {
			return err
		}
		*member = stored
		return nil
	})
}

// FindMember finds an active membership
func (r *GormGroupRepository) FindMember(ctx context.Context, groupID, userID uint64) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindMemberByIDUnscoped finds a membership row by ID including soft-deleted rows
func (r *GormGroupRepository) FindMemberByIDUnscoped(ctx context.Context, id uint64) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.WithContext(ctx).Unscoped().First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMemberRole changes the role of an active membership
func (r *GormGroupRepository) UpdateMemberRole(ctx context.Context, groupID, userID uint64, role models.GroupRole) error {
	result := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RemoveMember soft-deletes an active membership
func (r *GormGroupRepository) RemoveMember(ctx context.Context, groupID, userID, removedBy uint64) error {
	return softDelete(r.db.WithContext(ctx), &models.GroupMember{}, removedBy,
		"group_id = ? AND user_id = ?", groupID, userID)
}

// ListMembers lists the active members of a group
func (r *GormGroupRepository) ListMembers(ctx context.Context, groupID uint64) ([]models.GroupMember, error) {
	var members []models.GroupMember
	if err := r.db.WithContext(ctx).Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembershipsByUser lists all active groups a user is a member of
func (r *GormGroupRepository) ListMembershipsByUser(ctx context.Context, userID uint64) ([]models.GroupMember, error) {
	var memberships []models.GroupMember
	if err := r.db.WithContext(ctx).Preload("Group").
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountMembers counts the active members of each group
func (r *GormGroupRepository) CountMembers(ctx context.Context, groupIDs []uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(groupIDs))
	if len(groupIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		GroupID uint64
		Count   int64
	}
	if err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Select("group_id, COUNT(*) AS count").
		Where("group_id IN ?", groupIDs).
		Group("group_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.GroupID] = row.Count
	}
	return counts, nil
}

// GroupIDsForUser lists the groups a user is an active member of
func (r *GormGroupRepository) GroupIDsForUser(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	if err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

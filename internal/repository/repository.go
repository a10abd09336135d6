package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/group-task-api/internal/models"
)

// ErrVersionConflict is returned by versioned updates when the row changed
// since it was read.
var ErrVersionConflict = errors.New("repository: version conflict")

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByEmailOrUsername returns every user matching either value
	FindByEmailOrUsername(ctx context.Context, email, username string) ([]models.User, error)

	// FindByIDs finds users by IDs, including soft-deleted ones
	FindByIDs(ctx context.Context, ids []uint64) ([]models.User, error)

	// UpdateLastLogin stamps the last login time
	UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error
}

// GroupRepository defines the interface for group and membership data access
type GroupRepository interface {
	// CreateWithOwner creates a group and its owner membership in one transaction
	CreateWithOwner(ctx context.Context, group *models.Group, owner *models.GroupMember) error

	// FindByID finds a group by ID
	FindByID(ctx context.Context, id uint64) (*models.Group, error)

	// FindByIDUnscoped finds a group by ID including soft-deleted rows
	FindByIDUnscoped(ctx context.Context, id uint64) (*models.Group, error)

	// FindByCode finds a group by join code
	FindByCode(ctx context.Context, code string) (*models.Group, error)

	// CodeExists reports whether any group, deleted or not, uses code
	CodeExists(ctx context.Context, code string) (bool, error)

	// Update writes the given columns if the stored version still matches
	Update(ctx context.Context, group *models.Group, updates map[string]interface{}) error

	// Delete soft-deletes a group with its memberships and tasks
	Delete(ctx context.Context, id, deletedBy uint64) error

	// AddMember inserts a membership or restores a soft-deleted one
	AddMember(ctx context.Context, member *models.GroupMember) error

	// FindMember finds an active membership
	FindMember(ctx context.Context, groupID, userID uint64) (*models.GroupMember, error)

	// FindMemberByIDUnscoped finds a membership row by ID including soft-deleted rows
	FindMemberByIDUnscoped(ctx context.Context, id uint64) (*models.GroupMember, error)

	// UpdateMemberRole changes the role of an active membership
	UpdateMemberRole(ctx context.Context, groupID, userID uint64, role models.GroupRole) error

	// RemoveMember soft-deletes an active membership
	RemoveMember(ctx context.Context, groupID, userID, removedBy uint64) error

	// ListMembers lists the active members of a group with their users
	ListMembers(ctx context.Context, groupID uint64) ([]models.GroupMember, error)

	// ListMembershipsByUser lists a user's active memberships with their groups
	ListMembershipsByUser(ctx context.Context, userID uint64) ([]models.GroupMember, error)

	// CountMembers counts the active members of each group
	CountMembers(ctx context.Context, groupIDs []uint64) (map[uint64]int64, error)

	// GroupIDsForUser lists the groups a user is an active member of
	GroupIDsForUser(ctx context.Context, userID uint64) ([]uint64, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.TaskItem) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.TaskItem, error)

	// FindByIDUnscoped finds a task by ID including soft-deleted rows
	FindByIDUnscoped(ctx context.Context, id uint64) (*models.TaskItem, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.TaskItem, int64, error)

	// Update writes the given columns if the stored version still matches
	Update(ctx context.Context, task *models.TaskItem, updates map[string]interface{}) error

	// Delete soft deletes a task and its attachments, and its comments when
	// withComments is set
	Delete(ctx context.Context, id, deletedBy uint64, withComments bool) error

	// FindPriority finds an active priority
	FindPriority(ctx context.Context, id uint) (*models.TaskPriority, error)

	// ListPriorities lists active priorities in display order
	ListPriorities(ctx context.Context) ([]models.TaskPriority, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	GroupID        uint64
	Status         *models.TaskStatus
	PriorityID     *uint
	AssignedUserID *uint64
	CreatorID      *uint64
	OverdueAt      *time.Time
	Search         string
	SortByDueDate  bool
	Page           int
	PageSize       int
}

// CommentRepository defines the interface for task comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.TaskComment) error
	FindByID(ctx context.Context, id uint64) (*models.TaskComment, error)
	FindByIDUnscoped(ctx context.Context, id uint64) (*models.TaskComment, error)
	ListByTask(ctx context.Context, taskID uint64) ([]models.TaskComment, error)
	UpdateContent(ctx context.Context, id uint64, content string, updatedBy uint64) error
	Delete(ctx context.Context, id, deletedBy uint64) error
}

// AttachmentRepository defines the interface for task attachment data access
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.TaskAttachment) error
	FindByID(ctx context.Context, id uint64) (*models.TaskAttachment, error)
	FindByIDUnscoped(ctx context.Context, id uint64) (*models.TaskAttachment, error)
	ListByTask(ctx context.Context, taskID uint64) ([]models.TaskAttachment, error)
	Delete(ctx context.Context, id, deletedBy uint64) error
}

// PasswordResetRepository defines the interface for reset-token data access
type PasswordResetRepository interface {
	// Create stores a token and marks the user's older valid tokens used
	Create(ctx context.Context, token *models.PasswordResetToken) error

	// ListValid lists unused tokens that expire after now
	ListValid(ctx context.Context, now time.Time) ([]models.PasswordResetToken, error)

	// Consume marks the token used and sets the user's password hash in one
	// transaction
	Consume(ctx context.Context, tokenID, userID uint64, passwordHash string, at time.Time) error

	// DeleteExpired removes tokens that expired or were used before cutoff
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRepository defines the interface for audit log data access
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uint64) ([]models.AuditLog, error)
	ListByGroup(ctx context.Context, groupID uint64, offset, limit int) ([]models.AuditLog, int64, error)

	// ListByUser lists entries written by userID whose group is in groupIDs,
	// plus group-less entries when includeUngrouped is set
	ListByUser(ctx context.Context, userID uint64, groupIDs []uint64, includeUngrouped bool, offset, limit int) ([]models.AuditLog, int64, error)
}

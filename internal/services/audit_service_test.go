package services

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/utils"
)

func TestAuditService_TaskHistoryNewestFirst(t *testing.T) {
	env := setupServiceTestEnv(t)
	group, users := env.groupWithRoles(t, "g")
	owner := users[models.RoleOwner]

	task, err := env.tasks.Create(env.ctx, env.actor(owner.ID), group.ID, CreateTaskInput{Title: "Track me"})
	require.NoError(t, err)
	_, err = env.tasks.ChangeStatus(env.ctx, env.actor(owner.ID), task.ID, models.TaskStatusInProgress)
	require.NoError(t, err)
	_, err = env.tasks.Assign(env.ctx, env.actor(owner.ID), task.ID, users[models.RoleMember].ID)
	require.NoError(t, err)

	history, err := env.audit.GetTaskHistory(env.ctx, users[models.RoleMember].ID, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.AuditActionAssigned, history[0].Action)
	assert.Equal(t, models.AuditActionStatusChanged, history[1].Action)
	assert.Equal(t, models.AuditActionCreated, history[2].Action)

	entry := history[1]
	assert.Equal(t, "NotStarted", entry.OldValue)
	assert.Equal(t, "InProgress", entry.NewValue)
	assert.Equal(t, owner.ID, entry.UserID)
	assert.Equal(t, owner.Username, entry.UserName)
	assert.Equal(t, "127.0.0.1", entry.IPAddress)
	require.NotNil(t, entry.GroupID)
	assert.Equal(t, group.ID, *entry.GroupID)
}

func TestAuditService_EntityHistoryErrors(t *testing.T) {
	env := setupServiceTestEnv(t)
	group, users := env.groupWithRoles(t, "g")
	outsider := env.register(t, "outsider").User

	_, err := env.audit.GetEntityHistory(env.ctx, outsider.ID, "Invoice", 1)
	assert.ErrorIs(t, err, ErrInvalidEntityType)

	_, err = env.audit.GetEntityHistory(env.ctx, outsider.ID, models.EntityTypeTask, 9999)
	assert.ErrorIs(t, err, ErrEntityNotFound)

	_, err = env.audit.GetEntityHistory(env.ctx, outsider.ID, models.EntityTypeGroup, group.ID)
	assert.ErrorIs(t, err, ErrNotGroupMember)

	history, err := env.audit.GetEntityHistory(env.ctx, users[models.RoleMember].ID, models.EntityTypeGroup, group.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, models.AuditActionCreated, history[len(history)-1].Action)
}

func TestAuditService_DeletedGroupHistoryNeedsMembership(t *testing.T) {
	env := setupServiceTestEnv(t)
	group, users := env.groupWithRoles(t, "g")
	owner := users[models.RoleOwner]

	require.NoError(t, env.groups.Delete(env.ctx, env.actor(owner.ID), group.ID))

	// the group still resolves, but its memberships went with it
	_, err := env.audit.GetEntityHistory(env.ctx, owner.ID, models.EntityTypeGroup, group.ID)
	assert.ErrorIs(t, err, ErrNotGroupMember)

	var deleted models.AuditLog
	require.NoError(t, env.db.
		Where("entity_type = ? AND entity_id = ? AND action = ?", models.EntityTypeGroup, group.ID, models.AuditActionDeleted).
		First(&deleted).Error)
	assert.Equal(t, owner.ID, deleted.UserID)
}

func TestAuditService_GroupHistoryPaging(t *testing.T) {
	env := setupServiceTestEnv(t)
	group, users := env.groupWithRoles(t, "g")
	owner := users[models.RoleOwner]

	for i := 0; i < 3; i++ {
		_, err := env.tasks.Create(env.ctx, env.actor(owner.ID), group.ID, CreateTaskInput{Title: "Task"})
		require.NoError(t, err)
	}

	all, total, err := env.audit.GetGroupHistory(env.ctx, users[models.RoleMember].ID, group.ID, utils.NewPaginationParams(1, 100, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(len(all)), total)
	// created + 3 joins + 2 role changes + 3 tasks
	assert.Equal(t, int64(9), total)

	page, total, err := env.audit.GetGroupHistory(env.ctx, owner.ID, group.ID, utils.NewPaginationParams(2, 4, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(9), total)
	require.Len(t, page, 4)
	assert.Equal(t, all[4].ID, page[0].ID)

	outsider := env.register(t, "outsider").User
	_, _, err = env.audit.GetGroupHistory(env.ctx, outsider.ID, group.ID, utils.NewPaginationParams(1, 10, 50))
	assert.ErrorIs(t, err, ErrNotGroupMember)
}

func TestAuditService_UserHistoryVisibility(t *testing.T) {
	env := setupServiceTestEnv(t)
	shared, users := env.groupWithRoles(t, "shared")
	owner := users[models.RoleOwner]
	member := users[models.RoleMember]

	private, err := env.groups.Create(env.ctx, env.actor(member.ID), CreateGroupInput{Name: "private"})
	require.NoError(t, err)

	_, err = env.tasks.Create(env.ctx, env.actor(member.ID), private.ID, CreateTaskInput{Title: "secret"})
	require.NoError(t, err)

	page := utils.NewPaginationParams(1, 100, 50)

	own, ownTotal, err := env.audit.GetUserHistory(env.ctx, member.ID, member.ID, page)
	require.NoError(t, err)
	assert.Equal(t, int64(len(own)), ownTotal)

	seen, _, err := env.audit.GetUserHistory(env.ctx, owner.ID, member.ID, page)
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	assert.Less(t, len(seen), len(own))
	for _, entry := range seen {
		assert.Equal(t, member.ID, entry.UserID)
		require.NotNil(t, entry.GroupID)
		assert.Equal(t, shared.ID, *entry.GroupID)
	}

	stranger := env.register(t, "stranger").User
	_, _, err = env.audit.GetUserHistory(env.ctx, stranger.ID, member.ID, page)
	assert.ErrorIs(t, err, ErrNotGroupMember)
}

func TestAuditService_LogTruncatesValues(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.register(t, "writer").User

	env.audit.Log(env.ctx, AuditEntry{
		Actor:      env.actor(user.ID),
		EntityType: models.EntityTypeTask,
		EntityID:   42,
		Action:     models.AuditActionUpdated,
		NewValue:   strings.Repeat("v", 1500),
	})

	var entry models.AuditLog
	require.NoError(t, env.db.Where("entity_id = ?", 42).First(&entry).Error)
	assert.Len(t, entry.NewValue, 1000)
	assert.Equal(t, "writer", entry.UserName)
	assert.Nil(t, entry.GroupID)
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"short", "héllo", len("héllo")},
		{"ascii", strings.Repeat("a", 1200), 1000},
		{"two-byte runes split at the limit", "a" + strings.Repeat("é", 600), 999},
		{"three-byte runes", strings.Repeat("日", 400), 999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.value)
			assert.Len(t, got, tt.want)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestAuditService_LogTruncatesNonASCII(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.register(t, "writer").User

	env.audit.Log(env.ctx, AuditEntry{
		Actor:      env.actor(user.ID),
		EntityType: models.EntityTypeComment,
		EntityID:   43,
		Action:     models.AuditActionUpdated,
		OldValue:   "a" + strings.Repeat("é", 600),
	})

	var entry models.AuditLog
	require.NoError(t, env.db.Where("entity_id = ?", 43).First(&entry).Error)
	assert.True(t, utf8.ValidString(entry.OldValue))
	assert.Len(t, entry.OldValue, 999)
}

func TestAuditLog_Immutable(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.register(t, "writer").User

	env.audit.Log(env.ctx, AuditEntry{
		Actor:      env.actor(user.ID),
		EntityType: models.EntityTypeTask,
		EntityID:   7,
		Action:     models.AuditActionCreated,
	})

	var entry models.AuditLog
	require.NoError(t, env.db.Where("entity_id = ?", 7).First(&entry).Error)

	err := env.db.Model(&entry).Update("action", "Tampered").Error
	assert.ErrorIs(t, err, models.ErrAuditLogImmutable)

	err = env.db.Delete(&entry).Error
	assert.ErrorIs(t, err, models.ErrAuditLogImmutable)
}

func TestAuditService_WriteFailureDoesNotAbortOperations(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.register(t, "owner").User
	env.audit.auditRepo = &failingAuditRepository{
		AuditRepository: env.audit.auditRepo,
		err:             errors.New("disk full"),
	}

	group, err := env.groups.Create(env.ctx, env.actor(owner.ID), CreateGroupInput{Name: "Ops"})
	require.NoError(t, err)

	task, err := env.tasks.Create(env.ctx, env.actor(owner.ID), group.ID, CreateTaskInput{Title: "Rotate keys"})
	require.NoError(t, err)

	_, err = env.tasks.ChangeStatus(env.ctx, env.actor(owner.ID), task.ID, models.TaskStatusCompleted)
	require.NoError(t, err)

	_, err = env.comments.Add(env.ctx, env.actor(owner.ID), task.ID, "done")
	require.NoError(t, err)

	var entries int64
	require.NoError(t, env.db.Model(&models.AuditLog{}).Count(&entries).Error)
	assert.Zero(t, entries)

	history, err := env.audit.GetTaskHistory(env.ctx, owner.ID, task.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

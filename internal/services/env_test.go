package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/group-task-api/internal/cache"
	"github.com/yukikurage/group-task-api/internal/database"
	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/repository"
	"github.com/yukikurage/group-task-api/internal/storage"
	"github.com/yukikurage/group-task-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sentMessage struct {
	Kind  string
	Email string
	Value string
}

// recordingSender keeps every notification in memory. When fail is set each
// send is still recorded and then reported as failed.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	fail error
}

func (r *recordingSender) record(kind, email, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{Kind: kind, Email: email, Value: value})
	return r.fail
}

func (r *recordingSender) SendWelcome(ctx context.Context, email, username string) error {
	return r.record("welcome", email, username)
}

func (r *recordingSender) SendPasswordReset(ctx context.Context, email, username, token string) error {
	return r.record("reset", email, token)
}

func (r *recordingSender) SendTaskAssigned(ctx context.Context, email, username, taskTitle, groupName string) error {
	return r.record("assigned", email, taskTitle)
}

func (r *recordingSender) SendGroupInvitation(ctx context.Context, email, groupName, joinCode, inviterName string) error {
	return r.record("invite", email, joinCode)
}

func (r *recordingSender) byKind(kind string) []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentMessage
	for _, m := range r.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// faultyCache is a memory cache whose reads and writes can be made to fail
type faultyCache struct {
	*cache.MemoryCache
	getErr error
	setErr func(key, value string) error
}

func (f *faultyCache) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.MemoryCache.Get(ctx, key)
}

func (f *faultyCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.setErr != nil {
		if err := f.setErr(key, value); err != nil {
			return err
		}
	}
	return f.MemoryCache.Set(ctx, key, value, ttl)
}

// failingAuditRepository rejects every write and serves reads from the real
// repository
type failingAuditRepository struct {
	repository.AuditRepository
	err error
}

func (f *failingAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return f.err
}

type stubDrafter struct {
	tasks []GeneratedTask
	err   error
}

func (s *stubDrafter) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	return s.tasks, s.err
}

type serviceTestEnv struct {
	ctx         context.Context
	db          *gorm.DB
	cache       *cache.MemoryCache
	notifier    *recordingSender
	drafter     *stubDrafter
	store       *storage.LocalStorage
	auth        *AuthService
	groups      *GroupService
	tasks       *TaskService
	comments    *CommentService
	attachments *AttachmentService
	audit       *AuditService
}

func setupServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.MigrateDatabase(db))

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	memCache := cache.NewMemoryCache()
	notifier := &recordingSender{}
	drafter := &stubDrafter{}
	hasher := utils.NewBcryptHasher(bcrypt.MinCost)
	issuer := utils.NewTokenIssuer("test-secret", "test-issuer", "test-audience", 15*time.Minute)

	store, err := storage.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	membership := NewMembershipService(groupRepo)
	audit := NewAuditService(auditRepo, userRepo, groupRepo, taskRepo, commentRepo, attachmentRepo, membership)

	return &serviceTestEnv{
		ctx:         context.Background(),
		db:          db,
		cache:       memCache,
		notifier:    notifier,
		drafter:     drafter,
		store:       store,
		auth:        NewAuthService(userRepo, resetRepo, NewTokenStore(memCache), hasher, issuer, notifier, 7*24*time.Hour),
		groups:      NewGroupService(groupRepo, userRepo, membership, audit, hasher, notifier),
		tasks:       NewTaskService(taskRepo, groupRepo, userRepo, membership, audit, notifier, drafter, false),
		comments:    NewCommentService(commentRepo, taskRepo, membership, audit),
		attachments: NewAttachmentService(attachmentRepo, taskRepo, membership, audit, store, AttachmentLimits{MaxFileSize: 1024, AllowedExtensions: []string{".txt", ".png"}}),
		audit:       audit,
	}
}

// register creates an active user and returns it with a fresh token pair
func (e *serviceTestEnv) register(t *testing.T, username string) *AuthResult {
	t.Helper()
	result, err := e.auth.Register(e.ctx, RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "supersecret",
		IPAddress: "127.0.0.1",
	})
	require.NoError(t, err)
	return result
}

func (e *serviceTestEnv) actor(userID uint64) Actor {
	return Actor{UserID: userID, IPAddress: "127.0.0.1", UserAgent: "go-test"}
}

// groupWithRoles creates a group owned by a new user plus one member per
// role, returning the group and users keyed by role
func (e *serviceTestEnv) groupWithRoles(t *testing.T, name string) (*models.Group, map[models.GroupRole]*models.User) {
	t.Helper()

	users := map[models.GroupRole]*models.User{}
	owner := e.register(t, name+"-owner").User
	users[models.RoleOwner] = owner

	group, err := e.groups.Create(e.ctx, e.actor(owner.ID), CreateGroupInput{Name: name})
	require.NoError(t, err)

	for _, role := range []models.GroupRole{models.RoleManager, models.RoleTeamLead, models.RoleMember} {
		user := e.register(t, fmt.Sprintf("%s-%s", name, role)).User
		_, err := e.groups.Join(e.ctx, e.actor(user.ID), group.Code, "")
		require.NoError(t, err)
		if role != models.RoleMember {
			_, err = e.groups.ChangeUserRole(e.ctx, e.actor(owner.ID), group.ID, user.ID, role)
			require.NoError(t, err)
		}
		users[role] = user
	}

	return group, users
}

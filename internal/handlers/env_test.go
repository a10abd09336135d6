package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/group-task-api/internal/cache"
	"github.com/yukikurage/group-task-api/internal/constants"
	"github.com/yukikurage/group-task-api/internal/database"
	"github.com/yukikurage/group-task-api/internal/dto"
	"github.com/yukikurage/group-task-api/internal/notify"
	"github.com/yukikurage/group-task-api/internal/repository"
	"github.com/yukikurage/group-task-api/internal/services"
	"github.com/yukikurage/group-task-api/internal/storage"
	"github.com/yukikurage/group-task-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type handlerTestEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	issuer   *utils.TokenIssuer
	handlers Handlers
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
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

	notifier := notify.NewLogSender()
	hasher := utils.NewBcryptHasher(bcrypt.MinCost)
	issuer := utils.NewTokenIssuer("test-secret", "test-issuer", "test-audience", 15*time.Minute)

	store, err := storage.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	membership := services.NewMembershipService(groupRepo)
	audit := services.NewAuditService(auditRepo, userRepo, groupRepo, taskRepo, commentRepo, attachmentRepo, membership)
	authService := services.NewAuthService(userRepo, resetRepo, services.NewTokenStore(cache.NewMemoryCache()), hasher, issuer, notifier, 7*24*time.Hour)
	groupService := services.NewGroupService(groupRepo, userRepo, membership, audit, hasher, notifier)
	taskService := services.NewTaskService(taskRepo, groupRepo, userRepo, membership, audit, notifier, nil, false)
	commentService := services.NewCommentService(commentRepo, taskRepo, membership, audit)
	attachmentService := services.NewAttachmentService(attachmentRepo, taskRepo, membership, audit, store,
		services.AttachmentLimits{MaxFileSize: 1024, AllowedExtensions: []string{".txt"}})

	h := Handlers{
		Auth:       NewAuthHandler(authService),
		Group:      NewGroupHandler(groupService),
		Task:       NewTaskHandler(taskService),
		Comment:    NewCommentHandler(commentService),
		Attachment: NewAttachmentHandler(attachmentService),
		Audit:      NewAuditHandler(audit),
	}

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(r, h, issuer)

	return &handlerTestEnv{
		db:       db,
		router:   r,
		issuer:   issuer,
		handlers: h,
	}
}

// do sends a JSON request; token may be empty for public routes
func (e *handlerTestEnv) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", constants.AuthorizationPrefix+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register signs a user up over HTTP and returns the auth response
func (e *handlerTestEnv) register(t *testing.T, username string) dto.AuthResponse {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// createGroup creates a group as token's user and returns it
func (e *handlerTestEnv) createGroup(t *testing.T, token, name string) dto.GroupDTO {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/groups", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var group dto.GroupDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &group))
	return group
}

func (e *handlerTestEnv) join(t *testing.T, token, code string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/groups/join", token, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var apiErr struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr.Code
}

package commands

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/yukikurage/group-task-api/internal/cache"
	"github.com/yukikurage/group-task-api/internal/config"
	"github.com/yukikurage/group-task-api/internal/database"
	"github.com/yukikurage/group-task-api/internal/handlers"
	"github.com/yukikurage/group-task-api/internal/notify"
	"github.com/yukikurage/group-task-api/internal/repository"
	"github.com/yukikurage/group-task-api/internal/services"
	"github.com/yukikurage/group-task-api/internal/storage"
	"github.com/yukikurage/group-task-api/internal/utils"
)

// app holds the wired services of one process.
type app struct {
	Issuer   *utils.TokenIssuer
	Auth     *services.AuthService
	Handlers handlers.Handlers

	pool *redis.Pool
}

func newCache(cfg *config.Config) (cache.Cache, *redis.Pool, error) {
	switch cfg.CacheDriver {
	case "memory":
		log.Println("Using in-memory cache; refresh tokens will not survive a restart")
		return cache.NewMemoryCache(), nil, nil
	case "redis", "":
		pool := cache.NewRedisPool(cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB)
		return cache.NewRedisCache(pool), pool, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache driver %q", cfg.CacheDriver)
	}
}

func newNotifier(cfg *config.Config) notify.Sender {
	senders := notify.Multi{notify.NewLogSender()}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		telegram, err := notify.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Telegram notifications disabled: %v", err)
		} else {
			senders = append(senders, telegram)
		}
	}
	return senders
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case "azure":
		return storage.NewAzureStorage(ctx, cfg.AzureConnectionString, cfg.AzureContainer)
	case "local", "":
		return storage.NewLocalStorage(cfg.StorageLocalPath, cfg.StorageBaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.StorageProvider)
	}
}

// newApp wires repositories, services and handlers on the connected database.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, pool, err := newCache(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("cache unreachable: %w", err)
	}

	blobs, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	hasher := utils.NewBcryptHasher(cfg.BcryptCost)
	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL())
	notifier := newNotifier(cfg)

	var drafter services.TaskDrafter
	if cfg.OpenAIAPIKey != "" {
		drafter = services.NewOpenAIDrafter(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	membership := services.NewMembershipService(groupRepo)
	audit := services.NewAuditService(auditRepo, userRepo, groupRepo, taskRepo, commentRepo, attachmentRepo, membership)
	auth := services.NewAuthService(userRepo, resetRepo, services.NewTokenStore(store), hasher, issuer, notifier, cfg.RefreshTokenTTL())
	groups := services.NewGroupService(groupRepo, userRepo, membership, audit, hasher, notifier)
	tasks := services.NewTaskService(taskRepo, groupRepo, userRepo, membership, audit, notifier, drafter, cfg.CascadeDeleteComments)
	comments := services.NewCommentService(commentRepo, taskRepo, membership, audit)
	attachments := services.NewAttachmentService(attachmentRepo, taskRepo, membership, audit, blobs, services.AttachmentLimits{
		MaxFileSize:       cfg.MaxUploadBytes(),
		AllowedExtensions: cfg.StorageAllowedExts,
	})

	return &app{
		Issuer: issuer,
		Auth:   auth,
		Handlers: handlers.Handlers{
			Auth:       handlers.NewAuthHandler(auth),
			Group:      handlers.NewGroupHandler(groups),
			Task:       handlers.NewTaskHandler(tasks),
			Comment:    handlers.NewCommentHandler(comments),
			Attachment: handlers.NewAttachmentHandler(attachments),
			Audit:      handlers.NewAuditHandler(audit),
		},
		pool: pool,
	}, nil
}

func (a *app) Close() {
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			log.Printf("Failed to close redis pool: %v", err)
		}
	}
}

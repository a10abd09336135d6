package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyTokenID   = "token_id"
	SessionCookieName   = "task_session"
	SessionKeyRefresh   = "refresh_token"
	AuthorizationPrefix = "Bearer "
)

// Validation limits
const (
	MinPasswordLength = 8
	MaxTitleLength    = 200
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	DefaultAuditPageSize = 50
)

// AI task generation
const (
	MaxAIGeneratedTasks = 20
)

// Token lifetimes and code generation
const (
	PasswordResetTokenTTL   = time.Hour
	PasswordResetTokenBytes = 32
	PasswordResetRetention  = 7 * 24 * time.Hour
	RefreshTokenBytes       = 64

	JoinCodeLength      = 8
	JoinCodeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	MaxJoinCodeAttempts = 10
)

package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yukikurage/group-task-api/internal/cache"
	"github.com/yukikurage/group-task-api/internal/constants"
	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/notify"
	"github.com/yukikurage/group-task-api/internal/repository"
	"github.com/yukikurage/group-task-api/internal/utils"
	"gorm.io/gorm"
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo   repository.UserRepository
	resetRepo  repository.PasswordResetRepository
	tokens     *TokenStore
	hasher     utils.PasswordHasher
	issuer     *utils.TokenIssuer
	notifier   notify.Sender
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	tokens *TokenStore,
	hasher utils.PasswordHasher,
	issuer *utils.TokenIssuer,
	notifier notify.Sender,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		resetRepo:  resetRepo,
		tokens:     tokens,
		hasher:     hasher,
		issuer:     issuer,
		notifier:   notifier,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	IPAddress string
}

// LoginInput represents credentials used to log in.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
}

// AuthResult is a freshly issued token pair.
type AuthResult struct {
	User                  *models.User
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an active user and signs them in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	email := normalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if err := s.checkUnique(ctx, email, username); err != nil {
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent registration; report which value.
			if uniqueErr := s.checkUnique(ctx, email, username); uniqueErr != nil {
				return nil, uniqueErr
			}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.notifier.SendWelcome(ctx, user.Email, user.Username); err != nil {
		log.Printf("auth: welcome notification for user %d failed: %v", user.ID, err)
	}

	return s.issuePair(ctx, user, input.IPAddress)
}

// checkUnique looks up both unique columns in one query. Email wins when
// both collide.
func (s *AuthService) checkUnique(ctx context.Context, email, username string) error {
	existing, err := s.userRepo.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}

	usernameTaken := false
	for _, u := range existing {
		if strings.EqualFold(u.Email, email) {
			return ErrDuplicateEmail
		}
		if u.Username == username {
			usernameTaken = true
		}
	}
	if usernameTaken {
		return ErrDuplicateUsername
	}
	return nil
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLoginAt = &now

	return s.issuePair(ctx, user, input.IPAddress)
}

// Refresh rotates a refresh token: the presented token is revoked before a
// new pair is issued, and a token can be rotated only once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ipAddress string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}

	stored, err := s.tokens.Find(ctx, utils.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if stored.Revoked {
		return nil, ErrTokenRevoked
	}
	if stored.IsExpired(s.now()) {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	next, err := utils.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	claimed, err := s.tokens.Revoke(ctx, stored, utils.HashToken(next))
	if err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !claimed {
		return nil, ErrTokenRevoked
	}

	return s.issuePairWithRefresh(ctx, user, next, ipAddress)
}

// Logout revokes the refresh token. Unknown and already revoked tokens are
// not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	stored, err := s.tokens.Find(ctx, utils.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load refresh token: %w", err)
	}
	if stored.Revoked {
		return nil
	}

	if _, err := s.tokens.Revoke(ctx, stored, ""); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// LogoutAll revokes every refresh token of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint64) (int, error) {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// ForgotPassword issues a reset token for a known email. Unknown emails get
// the same nil result and nothing is written.
func (s *AuthService) ForgotPassword(ctx context.Context, email, ipAddress string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := utils.RandomToken(constants.PasswordResetTokenBytes)
	if err != nil {
		return err
	}

	reset := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: utils.HashToken(token),
		ExpiresAt: s.now().Add(constants.PasswordResetTokenTTL),
		IPAddress: ipAddress,
	}
	if err := s.resetRepo.Create(ctx, reset); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, user.Username, token); err != nil {
		log.Printf("auth: password reset notification for user %d failed: %v", user.ID, err)
	}
	return nil
}

// ResetPassword consumes a reset token, sets the new password and ends all
// sessions of the user.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	candidates, err := s.resetRepo.ListValid(ctx, s.now())
	if err != nil {
		return fmt.Errorf("failed to load reset tokens: %w", err)
	}

	hash := []byte(utils.HashToken(token))
	var match *models.PasswordResetToken
	for i := range candidates {
		if subtle.ConstantTimeCompare(hash, []byte(candidates[i].TokenHash)) == 1 {
			match = &candidates[i]
		}
	}
	if match == nil {
		return ErrInvalidOrExpiredToken
	}

	hashedPassword, err := s.hasher.Hash(newPassword)
	if err != nil {
		return ErrFailedToHashPassword
	}

	if err := s.resetRepo.Consume(ctx, match.ID, match.UserID, hashedPassword, s.now()); err != nil {
		if errors.Is(err, repository.ErrResetTokenUsed) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	if _, err := s.tokens.RevokeAllForUser(ctx, match.UserID); err != nil {
		return fmt.Errorf("password updated but sessions were not revoked: %w", err)
	}
	return nil
}

// GetUser returns the profile of an active or inactive, non-deleted user.
func (s *AuthService) GetUser(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// PurgeResetTokens deletes reset tokens past the retention window.
func (s *AuthService) PurgeResetTokens(ctx context.Context) (int64, error) {
	return s.resetRepo.DeleteExpired(ctx, s.now().Add(-constants.PasswordResetRetention))
}

func (s *AuthService) issuePair(ctx context.Context, user *models.User, ipAddress string) (*AuthResult, error) {
	refreshToken, err := utils.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	return s.issuePairWithRefresh(ctx, user, refreshToken, ipAddress)
}

func (s *AuthService) issuePairWithRefresh(ctx context.Context, user *models.User, refreshToken, ipAddress string) (*AuthResult, error) {
	accessToken, accessExpiresAt, err := s.issuer.IssueAccessToken(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stored := &RefreshToken{
		UserID:      user.ID,
		TokenHash:   utils.HashToken(refreshToken),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.refreshTTL),
		CreatedByIP: ipAddress,
	}
	if err := s.tokens.Save(ctx, stored); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:                  user,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: stored.ExpiresAt,
	}, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/group-task-api/internal/models"
	"gorm.io/gorm"
)

// ErrResetTokenUsed is returned by Consume when another request used the
// token first.
var ErrResetTokenUsed = errors.New("password reset repository: token already used")

// GormPasswordResetRepository is a GORM implementation of PasswordResetRepository
type GormPasswordResetRepository struct {
	db *gorm.DB
}

// NewPasswordResetRepository creates a new PasswordResetRepository
func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &GormPasswordResetRepository{db: db}
}

// Create supersedes the user's outstanding tokens and stores the new one
func (r *GormPasswordResetRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.PasswordResetToken{}).
			Where("user_id = ? AND used_at IS NULL AND expires_at > ?", token.UserID, now).
			Update("used_at", now).Error; err != nil {
			return err
		}

		return tx.Create(token).Error
	})
}

func (r *GormPasswordResetRepository) ListValid(ctx context.Context, now time.Time) ([]models.PasswordResetToken, error) {
	var tokens []models.PasswordResetToken
	if err := r.db.WithContext(ctx).
		Where("used_at IS NULL AND expires_at > ?", now).
		Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// Consume marks the token used and sets the new password hash atomically
func (r *GormPasswordResetRepository) Consume(ctx context.Context, tokenID, userID uint64, passwordHash string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND used_at IS NULL", tokenID).
			Update("used_at", at)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrResetTokenUsed
		}

		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("password_hash", passwordHash).Error
	})
}

// DeleteExpired removes tokens that expired or were used before cutoff
func (r *GormPasswordResetRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR (used_at IS NOT NULL AND used_at < ?)", cutoff, cutoff).
		Delete(&models.PasswordResetToken{})
	return result.RowsAffected, result.Error
}

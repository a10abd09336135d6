package repository

import (
	"context"

	"github.com/yukikurage/group-task-api/internal/models"
	"gorm.io/gorm"
)

// GormAuditRepository is a GORM implementation of AuditRepository
type GormAuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByEntity lists an entity's history newest first
func (r *GormAuditRepository) ListByEntity(ctx context.Context, entityType string, entityID uint64) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *GormAuditRepository) ListByGroup(ctx context.Context, groupID uint64, offset, limit int) ([]models.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{}).Where("group_id = ?", groupID)
	return r.page(query, offset, limit)
}

func (r *GormAuditRepository) ListByUser(ctx context.Context, userID uint64, groupIDs []uint64, includeUngrouped bool, offset, limit int) ([]models.AuditLog, int64, error) {
	if len(groupIDs) == 0 && !includeUngrouped {
		return []models.AuditLog{}, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&models.AuditLog{}).Where("user_id = ?", userID)
	switch {
	case len(groupIDs) > 0 && includeUngrouped:
		query = query.Where("group_id IN ? OR group_id IS NULL", groupIDs)
	case len(groupIDs) > 0:
		query = query.Where("group_id IN ?", groupIDs)
	default:
		query = query.Where("group_id IS NULL")
	}
	return r.page(query, offset, limit)
}

func (r *GormAuditRepository) page(query *gorm.DB, offset, limit int) ([]models.AuditLog, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLog
	if err := query.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

package repository

import (
	"time"

	"gorm.io/gorm"
)

// softDelete stamps deleted_at and deleted_by on the active rows of model
// matching query.
func softDelete(tx *gorm.DB, model interface{}, deletedBy uint64, query string, args ...interface{}) error {
	return tx.Model(model).Where(query, args...).Updates(map[string]interface{}{
		"deleted_at": time.Now(),
		"deleted_by": deletedBy,
	}).Error
}

// versionedUpdate writes updates to the row with the given id only if its
// version still matches, bumping the version.
func versionedUpdate(tx *gorm.DB, model interface{}, id uint64, version int, updates map[string]interface{}) error {
	values := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = version + 1

	result := tx.Model(model).Where("id = ? AND version = ?", id, version).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

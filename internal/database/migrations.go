package database

import (
	"fmt"
	"log"
	"strings"

	"github.com/yukikurage/group-task-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes the list and audit queries rely on.
// Single-column indexes come from the model tags.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   interface{}
		table   string
		name    string
		columns []string
	}{
		// Task list filters
		{&models.TaskItem{}, "task_items", "idx_task_items_group_status", []string{"group_id", "status"}},
		{&models.TaskItem{}, "task_items", "idx_task_items_group_assignee", []string{"group_id", "assigned_to_id"}},

		// Audit history lookups
		{&models.AuditLog{}, "audit_logs", "idx_audit_logs_entity", []string{"entity_type", "entity_id"}},
		{&models.AuditLog{}, "audit_logs", "idx_audit_logs_group_created", []string{"group_id", "created_at"}},

		// Reset-token scans
		{&models.PasswordResetToken{}, "password_reset_tokens", "idx_password_reset_tokens_user_valid", []string{"user_id", "used_at", "expires_at"}},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
	}

	return nil
}

package database

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/yukikurage/group-task-api/internal/config"
	"github.com/yukikurage/group-task-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Dialector picks the gorm dialector for the configured driver.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "mysql", "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.DBSQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

func Connect(cfg *config.Config) error {
	dialector, err := Dialector(cfg)
	if err != nil {
		return err
	}

	logLevel := logger.Info
	if cfg.GinMode == "release" {
		logLevel = logger.Warn
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("Database connection established (%s)", cfg.DBDriver)
	return nil
}

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.TaskPriority{},
		&models.TaskItem{},
		&models.TaskComment{},
		&models.TaskAttachment{},
		&models.PasswordResetToken{},
		&models.AuditLog{},
	}
}

func Migrate() error {
	return MigrateDatabase(DB)
}

// MigrateDatabase creates the schema, the composite indexes and the
// priority lookup rows.
func MigrateDatabase(db *gorm.DB) error {
	log.Println("Running database migrations...")
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	if err := SeedPriorities(db); err != nil {
		return fmt.Errorf("failed to seed priorities: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// SeedPriorities inserts the default priorities, leaving existing rows alone.
func SeedPriorities(db *gorm.DB) error {
	priorities := models.DefaultTaskPriorities()
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&priorities).Error
}

func GetDB() *gorm.DB {
	return DB
}

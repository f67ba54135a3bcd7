package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/assesshq/session-engine/internal/config"
	"github.com/assesshq/session-engine/internal/models"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Unique violations must surface as gorm.ErrDuplicatedKey; the
		// session start path retries on them.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// AutoMigrate creates or updates the engine's schema. The session →
// access_link relation is SET NULL on delete, never cascade: removing a
// link must not erase attempt history.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.TimeWindow{},
		&models.Test{},
		&models.Question{},
		&models.AccessLink{},
		&models.Session{},
		&models.Answer{},
		&models.ViolationEvent{},
	)
}

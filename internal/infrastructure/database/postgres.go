package database

import (
	"fmt"
	"time"

	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/sirupsen/logrus"
	"github.com/you/schoolsvc/internal/infrastructure/repositories"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a postgres connection whose SQL logging goes through logrus
func Open(dsn string, logLevel string, log *logrus.Logger) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), GormConfig(logLevel, log))
}

// GormConfig is shared by the postgres and sqlite openers
func GormConfig(logLevel string, log *logrus.Logger) *gorm.Config {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
		}),
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// AutoMigrate creates the school tables and the casbin policy table
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(repositories.Models()...); err != nil {
		return fmt.Errorf("failed to migrate school tables: %w", err)
	}

	// NewAdapterByDB creates casbin_rule when it does not exist.
	if _, err := gormadapter.NewAdapterByDB(db); err != nil {
		return fmt.Errorf("failed to initialize Casbin GORM adapter: %w", err)
	}

	return nil
}

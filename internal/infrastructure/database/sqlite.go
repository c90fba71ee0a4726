package database

import (
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenSQLite opens a sqlite database, used by tests and local runs with a file DSN
func OpenSQLite(dsn string, logLevel string, log *logrus.Logger) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), GormConfig(logLevel, log))
}

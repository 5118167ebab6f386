package services

import (
	"strings"

	"team-rsvp/models"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase connects to PostgreSQL for postgres:// (or key=value) DSNs and to an
// embedded SQLite file otherwise, then migrates the schema.
func OpenDatabase(dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)

	switch {
	case isPostgresDSN(dsn):
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	default:
		db, err = gorm.Open(sqlite.Open(dsn), gormCfg)
		if err == nil {
			// one connection, or every pooled connection to :memory: sees its own empty database
			sqlDB, dbErr := db.DB()
			if dbErr != nil {
				return nil, errors.Wrap(dbErr, "sqlite handle")
			}
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.AutoMigrate(&models.User{}, &models.Game{}, &models.RSVP{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate schema")
	}

	return db, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

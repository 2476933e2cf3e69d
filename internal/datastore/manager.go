// Package datastore opens the database and owns schema migration.
package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aquamon/aquamon-go/internal/conf"
	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/errors"
)

// Manager owns the database handle.
type Manager struct {
	db *gorm.DB
}

// Open connects to the configured database and runs migrations.
func Open(settings conf.DatabaseSettings) (*Manager, error) {
	var dialector gorm.Dialector
	switch settings.Driver {
	case "sqlite":
		dialector = sqlite.Open(settings.DSN)
	case "mysql":
		dialector = mysql.Open(settings.DSN)
	default:
		return nil, errors.Configurationf("unsupported database driver %q", settings.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", settings.Driver, err)
	}

	m := &Manager{db: db}
	if err := m.migrate(); err != nil {
		return nil, err
	}
	return m, nil
}

// DB returns the underlying gorm handle.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func (m *Manager) migrate() error {
	err := m.db.AutoMigrate(
		&entities.Device{},
		&entities.Telemetry{},
		&entities.AlertRule{},
		&entities.AlertCondition{},
		&entities.Alert{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

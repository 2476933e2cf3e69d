package repository

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aquamon/aquamon-go/internal/conf"
	"github.com/aquamon/aquamon-go/internal/datastore"
)

// setupTestDB opens a uniquely-named in-memory sqlite database through the
// datastore manager so migrations run the same way they do in production.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	manager, err := datastore.Open(conf.DatabaseSettings{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	sqlDB, err := manager.DB().DB()
	require.NoError(t, err)
	// A single connection keeps the shared in-memory database alive for the
	// whole test.
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = manager.Close() })
	return manager.DB()
}

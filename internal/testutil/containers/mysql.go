//go:build integration

// Package containers provides testcontainers-backed helpers for integration
// tests that need a real MySQL server or MQTT broker. All helpers are behind
// the integration build tag so the default test run stays Docker-free.
package containers

import (
	"context"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

const (
	mysqlImage    = "mysql:8.0"
	mysqlDatabase = "aquamon_test"
	mysqlUser     = "aquamon"
	mysqlPassword = "aquamon"
)

// MySQLContainer wraps a disposable MySQL instance for repository tests.
type MySQLContainer struct {
	container *mysql.MySQLContainer
	dsn       string
}

// StartMySQL starts a fresh MySQL container and waits until it accepts
// connections. The returned DSN is ready for the gorm mysql driver.
func StartMySQL(ctx context.Context) (*MySQLContainer, error) {
	container, err := mysql.Run(ctx, mysqlImage,
		mysql.WithDatabase(mysqlDatabase),
		mysql.WithUsername(mysqlUser),
		mysql.WithPassword(mysqlPassword),
	)
	if err != nil {
		return nil, fmt.Errorf("start mysql container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "multiStatements=true")
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("mysql connection string: %w", err)
	}

	return &MySQLContainer{container: container, dsn: dsn}, nil
}

// DSN returns the connection string for the containerized database.
func (c *MySQLContainer) DSN(t *testing.T) string {
	t.Helper()
	if c.dsn == "" {
		t.Fatal("mysql DSN is empty")
	}
	return c.dsn
}

// Terminate stops and removes the container.
func (c *MySQLContainer) Terminate(ctx context.Context) error {
	if c.container == nil {
		return nil
	}
	if err := c.container.Terminate(ctx); err != nil {
		return fmt.Errorf("terminate mysql container: %w", err)
	}
	return nil
}

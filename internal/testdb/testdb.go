// Package testdb opens migrated in-memory databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/models"
	pkgdb "github.com/Skotchmaster/eshop/pkg/db"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := pkgdb.Config()
	cfg.PrepareStmt = false

	db, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, pkgdb.Migrate(context.Background(), db, models.All()...))
	return db
}

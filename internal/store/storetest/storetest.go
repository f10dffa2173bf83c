// Package storetest provides throwaway databases for tests of packages built on the store.
package storetest

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/mrkt-indexer/internal/store"
)

// NewSQLiteDB opens a migrated in-memory sqlite database that lives for the duration of the test
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every pooled connection would see its own in-memory database
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, store.Migrate(context.Background(), db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// NewStore returns a store on a fresh in-memory database
func NewStore(t testing.TB) store.Store {
	t.Helper()
	return store.NewStore(NewSQLiteDB(t))
}

// Package testhelpers provides shared fixtures for package tests.
package testhelpers

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/database"
	"github.com/jobsift/jobsift/internal/logger"
)

// NewTestDB opens an in-memory sqlite database with the schema applied. The
// database is closed when the test finishes.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewTestLogger returns a logger that discards everything.
func NewTestLogger() logger.Logger {
	return logger.NewNop()
}

package repo

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/twinchat/twinchat/internal/config"
	"github.com/twinchat/twinchat/internal/db"
)

// openTestDB connects to the postgres instance named by TEST_DB_DSN and
// resets the tables. Tests are skipped when no database is available; they
// need the pgvector extension installed.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping database tests")
	}
	database, err := db.Open(config.DatabaseConfig{DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(database))
	for _, table := range []string{"messages", "conversations", "knowledge_base", "user_profiles"} {
		_, err := database.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

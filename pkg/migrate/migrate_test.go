package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/angelmondragon/solecart/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestRunUpCreatesPendingMutations(t *testing.T) {
	ctx := context.Background()
	sqlDB := openSQLite(t)

	require.NoError(t, Run(ctx, sqlDB, config.DBDriverSQLite, "up"))

	_, err := sqlDB.ExecContext(ctx, `INSERT INTO pending_mutations
		(id, owner, seq, kind, payload, status, attempt_count, created_at, updated_at)
		VALUES ('m1', 'user-1', 1, 'update_quantity', '{}', 'pending', 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	_, err = sqlDB.ExecContext(ctx, `INSERT INTO pending_mutations
		(id, owner, seq, kind, payload, status, attempt_count, created_at, updated_at)
		VALUES ('m2', 'user-1', 1, 'remove', '{}', 'pending', 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.Error(t, err, "owner+seq must be unique")

	require.NoError(t, Run(ctx, sqlDB, config.DBDriverSQLite, "down"))
	_, err = sqlDB.ExecContext(ctx, `SELECT 1 FROM pending_mutations`)
	require.Error(t, err)
}

func TestRunRejectsUnknownDriver(t *testing.T) {
	err := Run(context.Background(), openSQLite(t), "mysql", "up")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported driver")
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name": {
			"m/create_things.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"missing down": {
			"m/20260101000000_things.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		},
		"duplicate version": {
			"m/20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
			"m/20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"empty": {
			"m/README.md": {Data: []byte("notes")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateFS(fsys, "m")
			require.Error(t, err)
			require.False(t, strings.TrimSpace(err.Error()) == "")
		})
	}
}

func TestCreateSQLMigrationProducesValidFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 2, 8, 30, 0, 0, time.UTC)

	path, err := createSQLMigrationAt(dir, "  Add Owner-Index ", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20261002083000_add_owner_index.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = createSQLMigrationAt(dir, "add owner index", now)
	require.ErrorContains(t, err, "already exists")

	_, err = createSQLMigrationAt(dir, "--", now)
	require.Error(t, err)
}

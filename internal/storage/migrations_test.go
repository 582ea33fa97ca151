package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMigrations_Idempotent(t *testing.T) {
	db, err := openDatabase(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, db))
	require.NoError(t, ApplyMigrations(ctx, db))

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_version").Scan(&n))
	assert.Equal(t, len(AllMigrations), n, "re-applying must not duplicate versions")
}

func TestApplyMigrations_RejectsCorruptVersion(t *testing.T) {
	db, err := openDatabase(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, db))

	_, err = db.ExecContext(ctx,
		"INSERT INTO schema_version (version) VALUES ('garbage')")
	require.NoError(t, err)

	err = ApplyMigrations(ctx, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "garbage")
}

func TestMigrationVersionsAreValid(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range AllMigrations {
		assert.False(t, seen[m.Version], "duplicate migration version %s", m.Version)
		seen[m.Version] = true
	}
	assert.True(t, seen[CurrentSchemaVersion])
}

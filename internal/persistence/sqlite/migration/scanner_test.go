package migration

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark1russell7/docker-sqlite/internal/testfixtures"
)

func file(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		files         fstest.MapFS
		expectedOrder []int
		expectError   error
	}{
		{
			name: "paired up and down files",
			files: fstest.MapFS{
				"002_add_rooms.up.sql":      file("CREATE TABLE rooms (id TEXT PRIMARY KEY);"),
				"002_add_rooms.down.sql":    file("DROP TABLE rooms;"),
				"001_initial_schema.up.sql": file("CREATE TABLE users (id TEXT PRIMARY KEY);"),
			},
			expectedOrder: []int{1, 2},
		},
		{
			name:          "empty directory",
			files:         fstest.MapFS{},
			expectedOrder: []int{},
		},
		{
			name: "non-migration files are ignored",
			files: fstest.MapFS{
				"001_initial.up.sql": file("CREATE TABLE a (id INTEGER);"),
				"README.md":          file("# Migrations"),
				"002_legacy.sql":     file("CREATE TABLE b (id INTEGER);"),
				"abc_bad.up.sql":     file("CREATE TABLE c (id INTEGER);"),
			},
			expectedOrder: []int{1},
		},
		{
			name: "orphan down file is ignored",
			files: fstest.MapFS{
				"001_initial.up.sql":  file("CREATE TABLE a (id INTEGER);"),
				"003_orphan.down.sql": file("DROP TABLE c;"),
				"010_numeric.up.sql":  file("CREATE TABLE j (id INTEGER);"),
				"nested/004_x.up.sql": file("CREATE TABLE d (id INTEGER);"),
			},
			expectedOrder: []int{1, 10},
		},
		{
			name: "duplicate version across names",
			files: fstest.MapFS{
				"001_first.up.sql": file("CREATE TABLE a (id INTEGER);"),
				"1_second.up.sql":  file("CREATE TABLE b (id INTEGER);"),
			},
			expectError: ErrDuplicateVersion,
		},
		{
			name: "empty up file",
			files: fstest.MapFS{
				"001_empty.up.sql": file("   \n"),
			},
			expectError: ErrInvalidMigrationFile,
		},
		{
			name: "zero version",
			files: fstest.MapFS{
				"000_zero.up.sql": file("CREATE TABLE z (id INTEGER);"),
			},
			expectError: ErrInvalidVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			migrations, err := Load(tt.files)
			if tt.expectError != nil {
				require.ErrorIs(t, err, tt.expectError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedOrder, versionsOf(migrations))
		})
	}
}

func TestLoad_Contents(t *testing.T) {
	fsys := fstest.MapFS{
		"001_create_users.up.sql": file(`-- Description: Create users table
-- Author: ops
CREATE TABLE users (id INTEGER PRIMARY KEY);
`),
		"001_create_users.down.sql": file("\nDROP TABLE users;\n"),
		"002_add_index.up.sql":      file("CREATE INDEX idx ON users(id);"),
	}

	migrations, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	first := migrations[0]
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "Create users table", first.Description)
	assert.Contains(t, first.Up, "CREATE TABLE users")
	assert.Equal(t, "DROP TABLE users;", first.Down)
	assert.Equal(t, "001_create_users.up.sql", first.FilePath)
	assert.True(t, first.Reversible())

	second := migrations[1]
	assert.Equal(t, "add index", second.Description)
	assert.Empty(t, second.Down)
	assert.False(t, second.Reversible())
}

func TestExtractDescription(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"leading description", "-- Description: Add rooms\nCREATE TABLE rooms (id INTEGER);", "Add rooms"},
		{"after other comments", "-- Author: ops\n\n-- Description: Seed\nINSERT INTO a VALUES (1);", "Seed"},
		{"after first statement", "CREATE TABLE a (id INTEGER);\n-- Description: too late", ""},
		{"blank description", "-- Description:   \nSELECT 1;", ""},
		{"no comments", "SELECT 1;", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDescription(tt.content))
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := testfixtures.WriteMigrationDir(t, testfixtures.SampleMigrationFiles()...)

	migrations, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, []int{1, 2, 3}, versionsOf(migrations))
	assert.Equal(t, filepath.Join(dir, "001_create_users.up.sql"), migrations[0].FilePath)
	assert.Equal(t, "Create posts table", migrations[1].Description)
	assert.False(t, migrations[2].Reversible())
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	var fsErr *FileSystemError
	require.ErrorAs(t, err, &fsErr)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadDir_AppliesSampleSchema(t *testing.T) {
	dir := testfixtures.WriteMigrationDir(t, testfixtures.SampleMigrationFiles()...)
	migrations, err := LoadDir(dir)
	require.NoError(t, err)

	manager, db := newTestManager(t)
	applied, err := manager.Run(context.Background(), migrations)
	require.NoError(t, err)
	assert.Len(t, applied, 3)

	for _, table := range []string{"users", "posts", "comments"} {
		assert.True(t, tableExists(t, db, table), "table %s", table)
	}
}

package testfixtures

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark1russell7/docker-sqlite/internal/persistence/sqlite"
)

// SQLiteHarness provides a live in-memory database for integration-style
// persistence tests.
type SQLiteHarness struct {
	DB *sqlite.DB

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a private in-memory database. Callers may
// optionally invoke Close, but the helper will also register a cleanup
// callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	db, err := sqlite.Open(context.Background(), nil, sqlite.InMemoryConfig())
	if err != nil {
		tb.Fatalf("failed to open in-memory database: %v", err)
	}

	harness := &SQLiteHarness{
		DB: db,
		cleanup: func() {
			_ = db.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// FileConfig returns a configuration for an image file inside a fresh
// temporary directory. The file itself does not exist yet.
func FileConfig(tb testing.TB, name string) sqlite.Config {
	tb.Helper()

	dir := tb.TempDir()
	config := sqlite.DefaultConfig(filepath.Join(dir, "data", name))
	config.WorkDir = filepath.Join(dir, "work")
	return config
}

// MigrationFile is one file of a migration directory.
type MigrationFile struct {
	Name    string
	Content string
}

// WriteMigrationDir writes files into a fresh temporary directory and
// returns its path.
func WriteMigrationDir(tb testing.TB, files ...MigrationFile) string {
	tb.Helper()

	dir := tb.TempDir()
	for _, file := range files {
		if err := os.WriteFile(filepath.Join(dir, file.Name), []byte(file.Content), 0644); err != nil {
			tb.Fatalf("failed to write migration file %s: %v", file.Name, err)
		}
	}
	return dir
}

// SampleMigrationFiles returns a small reversible users/posts/comments
// schema laid out as migration files.
func SampleMigrationFiles() []MigrationFile {
	return []MigrationFile{
		{
			Name: "001_create_users.up.sql",
			Content: `-- Description: Create users table
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX idx_users_email ON users(email);`,
		},
		{Name: "001_create_users.down.sql", Content: "DROP TABLE users;"},
		{
			Name: "002_create_posts.up.sql",
			Content: `-- Description: Create posts table
CREATE TABLE posts (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL
);`,
		},
		{Name: "002_create_posts.down.sql", Content: "DROP TABLE posts;"},
		{
			Name: "003_create_comments.up.sql",
			Content: `CREATE TABLE comments (
	id INTEGER PRIMARY KEY,
	post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	body TEXT NOT NULL
);`,
		},
	}
}

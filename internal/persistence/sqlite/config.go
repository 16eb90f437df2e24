package sqlite

import (
	"fmt"
	"time"
)

// MemoryPath designates a private in-memory database that is never loaded
// from or persisted to disk.
const MemoryPath = ":memory:"

// Config holds SQLite-specific database configuration
type Config struct {
	// Path is the image file location, or MemoryPath for no persistence
	Path string

	// WorkDir holds the private working copy of a file-backed image.
	// Empty means os.TempDir().
	WorkDir string

	// BusyTimeout sets how long to wait for database locks
	BusyTimeout time.Duration

	// EnableForeignKeys enables foreign key constraint checking
	EnableForeignKeys bool

	// CacheSize sets the page cache size in KB (negative for pages)
	CacheSize int
}

// IsMemory reports whether the configuration designates an in-memory database.
func (c Config) IsMemory() bool {
	return IsMemoryPath(c.Path)
}

// Validate validates the SQLite configuration
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if c.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}

	return nil
}

// pragmas returns the connection-level PRAGMA statements for the configuration.
func (c Config) pragmas() []string {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", c.BusyTimeout.Milliseconds()),
	}

	if c.EnableForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}

	if c.CacheSize != 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA cache_size = %d", c.CacheSize))
	}

	return pragmas
}

// DefaultConfig returns a SQLite configuration with sensible defaults
func DefaultConfig(databasePath string) Config {
	return Config{
		Path:              databasePath,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		CacheSize:         -2000, // 2000 KiB
	}
}

// InMemoryConfig returns a configuration for a private in-memory database.
func InMemoryConfig() Config {
	return DefaultConfig(MemoryPath)
}

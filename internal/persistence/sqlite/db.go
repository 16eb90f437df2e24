package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mark1russell7/docker-sqlite/internal/persistence"
)

// DB is a live engine instance built from a database image. All statements
// run on one dedicated engine connection so that in-memory state is never
// split across pooled connections.
type DB struct {
	executor

	pool     *sqlx.DB
	conn     *sqlx.Conn
	config   Config
	workPath string
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

var _ persistence.Transactor = (*DB)(nil)

// Open constructs a live instance from image, or an empty one when image is
// nil. For the in-memory designation the image is ignored.
func Open(ctx context.Context, image []byte, config Config) (*DB, error) {
	return OpenWithLogger(ctx, image, config, nil)
}

// OpenWithLogger is Open with an explicit logger.
func OpenWithLogger(ctx context.Context, image []byte, config Config, logger *slog.Logger) (*DB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	info, err := Engine()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise engine: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sqlite", "path", config.Path)

	dsn := MemoryPath
	workPath := ""
	if !config.IsMemory() {
		workPath, err = materialize(config.WorkDir, image)
		if err != nil {
			return nil, err
		}
		dsn = workPath
	}

	pool, err := sqlx.Open(info.Driver, dsn)
	if err != nil {
		removeWorkFiles(workPath)
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// One connection, never recycled: a second pooled connection to
	// ":memory:" would be a different database.
	pool.SetMaxOpenConns(1)
	pool.SetMaxIdleConns(1)
	pool.SetConnMaxLifetime(0)
	pool.SetConnMaxIdleTime(0)

	conn, err := pool.Connx(ctx)
	if err != nil {
		pool.Close()
		removeWorkFiles(workPath)
		return nil, fmt.Errorf("failed to acquire SQLite connection: %w", err)
	}

	for _, pragma := range config.pragmas() {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			pool.Close()
			removeWorkFiles(workPath)
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	logger.Debug("database opened", "engine_version", info.Version, "image_bytes", len(image))

	return &DB{
		executor: executor{q: conn},
		pool:     pool,
		conn:     conn,
		config:   config,
		workPath: workPath,
		logger:   logger,
	}, nil
}

// Query runs a parameterized read.
func (db *DB) Query(ctx context.Context, query string, args ...any) (*persistence.Result, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	return db.executor.Query(ctx, query, args...)
}

// Exec runs a parameterized mutating statement.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if err := db.checkOpen(); err != nil {
		return 0, err
	}
	return db.executor.Exec(ctx, query, args...)
}

// ExecScript runs a raw multi-statement script.
func (db *DB) ExecScript(ctx context.Context, script string) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	return db.executor.ExecScript(ctx, script)
}

// Select scans every row into dest.
func (db *DB) Select(ctx context.Context, dest any, query string, args ...any) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	return db.executor.Select(ctx, dest, query, args...)
}

// Get scans one row into dest.
func (db *DB) Get(ctx context.Context, dest any, query string, args ...any) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	return db.executor.Get(ctx, dest, query, args...)
}

// Transact executes fn within a database transaction.
// If fn returns an error or panics, the transaction is rolled back;
// otherwise it is committed. The error from fn is returned as is.
func (db *DB) Transact(ctx context.Context, fn persistence.TxFunc) error {
	if err := db.checkOpen(); err != nil {
		return err
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Error("rollback after panic failed", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(ctx, &Tx{executor: executor{q: tx}}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Warn("transaction rollback failed", "error", rbErr, "cause", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Export serialises the current database state into an image.
func (db *DB) Export(ctx context.Context) ([]byte, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}

	scratch := filepath.Join(workDir(db.config.WorkDir), "export-"+uuid.NewString()+".db")
	defer os.Remove(scratch)

	if _, err := db.conn.ExecContext(ctx, "VACUUM INTO "+quoteLiteral(scratch)); err != nil {
		return nil, err
	}

	image, err := os.ReadFile(scratch)
	if err != nil {
		// An empty database has no pages to write.
		if errors.Is(err, fs.ErrNotExist) {
			return []byte{}, nil
		}
		return nil, err
	}

	db.logger.Debug("database exported", "image_bytes", len(image))
	return image, nil
}

// Close releases the engine connection and removes the private working
// copy. Calling Close more than once is a no-op.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true

	var errs []error
	if err := db.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release SQLite connection: %w", err))
	}
	if err := db.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close SQLite database: %w", err))
	}
	removeWorkFiles(db.workPath)

	db.logger.Debug("database closed")
	return errors.Join(errs...)
}

func (db *DB) checkOpen() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return persistence.ErrClosed
	}
	return nil
}

// materialize writes image into a fresh private working file and returns its
// path. A nil image leaves the file empty, which the engine treats as a new
// database.
func materialize(dir string, image []byte) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}

	file, err := os.CreateTemp(workDir(dir), "docker-sqlite-*.db")
	if err != nil {
		return "", err
	}

	if _, err := file.Write(image); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", err
	}

	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", err
	}

	return file.Name(), nil
}

func removeWorkFiles(path string) {
	if path == "" {
		return
	}
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		os.Remove(path + suffix)
	}
}

func workDir(dir string) string {
	if dir == "" {
		return os.TempDir()
	}
	return dir
}

// quoteLiteral renders s as a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

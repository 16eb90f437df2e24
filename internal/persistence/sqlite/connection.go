package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark1russell7/docker-sqlite/internal/logging"
)

// ConnectionFunc represents caller logic that runs against a live database.
type ConnectionFunc func(ctx context.Context, db *DB) error

// WithConnection opens the database described by config, runs fn, persists
// the resulting image when fn returns nil, and always releases the handle.
//
// If fn returns an error the image is not persisted and that error is
// returned once the handle has been released. A persistence failure is
// returned as well, after release. The in-memory designation never touches
// the file system.
func WithConnection(ctx context.Context, config Config, fn ConnectionFunc) (err error) {
	conn, err := CreateConnection(ctx, config)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := conn.Close(); cerr != nil {
			if err == nil {
				err = cerr
			} else {
				conn.logger.Warn("failed to release database after error", "error", cerr)
			}
		}
	}()

	if err := fn(ctx, conn.DB); err != nil {
		return err
	}

	return conn.Persist(ctx)
}

// Connection is a manually managed database handle. The caller decides when
// to Persist and must Close it when done.
type Connection struct {
	*DB

	logger *slog.Logger
}

// CreateConnection opens the database described by config. An absent image
// file yields an empty database; any other I/O error is returned unchanged.
func CreateConnection(ctx context.Context, config Config) (*Connection, error) {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = slog.Default()
	}

	image, err := LoadImage(config.Path)
	if err != nil {
		return nil, err
	}

	db, err := OpenWithLogger(ctx, image, config, logger)
	if err != nil {
		return nil, err
	}

	return &Connection{DB: db, logger: db.logger}, nil
}

// Persist exports the current image and writes it to the configured path.
// No-op for the in-memory designation.
func (c *Connection) Persist(ctx context.Context) error {
	if c.config.IsMemory() {
		return nil
	}

	image, err := c.Export(ctx)
	if err != nil {
		return fmt.Errorf("failed to export database image: %w", err)
	}

	if err := SaveImage(c.config.Path, image); err != nil {
		return err
	}

	c.logger.Info("database persisted", "image_bytes", len(image))
	return nil
}

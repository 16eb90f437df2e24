package sqlite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// IsMemoryPath reports whether path is the in-memory designation.
func IsMemoryPath(path string) bool {
	return path == MemoryPath
}

// LoadImage reads the database image stored at path.
//
// A missing file is not an error: it yields a nil image so the caller starts
// from an empty database. Any other I/O failure is returned unchanged. The
// in-memory designation never touches the file system.
func LoadImage(path string) ([]byte, error) {
	if IsMemoryPath(path) {
		return nil, nil
	}

	image, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	return image, nil
}

// SaveImage writes image to path, creating parent directories as needed.
// The write goes through a sibling temp file that is renamed into place so a
// failed save never leaves a truncated image behind. I/O errors are returned
// unchanged. No-op for the in-memory designation.
func SaveImage(path string, image []byte) error {
	if IsMemoryPath(path) {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpPath := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err := file.Write(image); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}

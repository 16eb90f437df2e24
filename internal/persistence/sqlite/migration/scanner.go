package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// migrationFilePattern matches {version}_{description}.up.sql and
// {version}_{description}.down.sql. Version must be numeric (001, 002, etc.).
var migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.(up|down)\.sql$`)

// migrationFiles pairs the up and down files of one version.
type migrationFiles struct {
	version  int
	name     string
	upFile   string
	downFile string
}

// LoadDir loads migrations from the files in dir.
func LoadDir(dir string) ([]Migration, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, NewFileSystemError(dir, "scan directory", err)
	}
	migrations, err := Load(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	for i := range migrations {
		migrations[i].FilePath = filepath.Join(dir, migrations[i].FilePath)
	}
	return migrations, nil
}

// Load reads migrations from the top level of fsys, sorted by version.
//
// Every migration needs an .up.sql file; the matching .down.sql file is
// optional. Files that do not follow the naming pattern and .down.sql files
// without an .up.sql partner are ignored. The description comes from a
// leading "-- Description:" comment in the up file, falling back to the
// filename.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, NewFileSystemError(".", "read directory", err)
	}

	grouped := make(map[int]*migrationFiles)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matches := migrationFilePattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("%w: %q in %s", ErrInvalidVersion, matches[1], entry.Name())
		}

		files, ok := grouped[version]
		if !ok {
			files = &migrationFiles{version: version, name: matches[2]}
			grouped[version] = files
		} else if files.name != matches[2] {
			return nil, fmt.Errorf("%w: version %d found in both %s and %s",
				ErrDuplicateVersion, version, files.name, matches[2])
		}

		target := &files.upFile
		if matches[3] == "down" {
			target = &files.downFile
		}
		if *target != "" {
			return nil, fmt.Errorf("%w: version %d found in both %s and %s",
				ErrDuplicateVersion, version, *target, entry.Name())
		}
		*target = entry.Name()
	}

	migrations := make([]Migration, 0, len(grouped))
	for _, files := range grouped {
		if files.upFile == "" {
			continue
		}

		migration, err := readMigration(fsys, files)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

func readMigration(fsys fs.FS, files *migrationFiles) (Migration, error) {
	up, err := fs.ReadFile(fsys, files.upFile)
	if err != nil {
		return Migration{}, NewFileSystemError(files.upFile, "read file", err)
	}

	upSQL := strings.TrimSpace(string(up))
	if upSQL == "" {
		return Migration{}, fmt.Errorf("%w: %s is empty", ErrInvalidMigrationFile, files.upFile)
	}

	var downSQL string
	if files.downFile != "" {
		down, err := fs.ReadFile(fsys, files.downFile)
		if err != nil {
			return Migration{}, NewFileSystemError(files.downFile, "read file", err)
		}
		downSQL = strings.TrimSpace(string(down))
	}

	description := extractDescription(upSQL)
	if description == "" {
		description = strings.ReplaceAll(files.name, "_", " ")
	}

	return Migration{
		Version:     files.version,
		Description: description,
		Up:          upSQL,
		Down:        downSQL,
		FilePath:    files.upFile,
	}, nil
}

// extractDescription returns the text of a "-- Description:" line from the
// leading comment block, or "" if there is none.
func extractDescription(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Stop processing if we hit the first non-comment line
		if !strings.HasPrefix(line, "--") {
			break
		}

		if rest, ok := strings.CutPrefix(line, "-- Description:"); ok {
			if description := strings.TrimSpace(rest); description != "" {
				return description
			}
		}
	}

	return ""
}

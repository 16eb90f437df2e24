package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DriverName is the database/sql driver the engine is reached through.
const DriverName = "sqlite"

// minEngineVersion is the oldest SQLite release supporting VACUUM INTO,
// which image export depends on.
var minEngineVersion = [3]int{3, 27, 0}

// EngineInfo describes the initialised embedded engine.
type EngineInfo struct {
	Driver  string
	Version string
}

// initEngine performs the one-time, process-wide engine setup. The result,
// including a failure, is shared by every caller.
var initEngine = sync.OnceValues(func() (EngineInfo, error) {
	db, err := sql.Open(DriverName, MemoryPath)
	if err != nil {
		return EngineInfo{}, fmt.Errorf("failed to open probe database: %w", err)
	}
	defer db.Close()

	var version string
	if err := db.QueryRowContext(context.Background(), "SELECT sqlite_version()").Scan(&version); err != nil {
		return EngineInfo{}, fmt.Errorf("failed to read engine version: %w", err)
	}

	if !versionAtLeast(version, minEngineVersion) {
		return EngineInfo{}, fmt.Errorf("engine version %s is older than required %d.%d.%d",
			version, minEngineVersion[0], minEngineVersion[1], minEngineVersion[2])
	}

	return EngineInfo{Driver: DriverName, Version: version}, nil
})

// Engine returns the process-wide engine description, initialising the
// engine on first use. Safe for concurrent first use.
func Engine() (EngineInfo, error) {
	return initEngine()
}

func versionAtLeast(version string, minimum [3]int) bool {
	parts := strings.SplitN(version, ".", 3)
	for i := 0; i < 3; i++ {
		n := 0
		if i < len(parts) {
			v, err := strconv.Atoi(parts[i])
			if err != nil {
				return false
			}
			n = v
		}
		if n != minimum[i] {
			return n > minimum[i]
		}
	}
	return true
}

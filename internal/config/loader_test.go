package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark1russell7/docker-sqlite/internal/config"
	"github.com/mark1russell7/docker-sqlite/internal/persistence/sqlite"
)

func TestNew_returnsDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.New()

	assert.Equal(t, config.DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, config.DefaultMigrationsDir, cfg.MigrationsDir)
	assert.Empty(t, cfg.WorkDir)
	assert.True(t, cfg.ForeignKeys)
	assert.Equal(t, config.DefaultBusyTimeout, cfg.BusyTimeout)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultLogFormat, cfg.LogFormat)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		content      string
		allowMissing bool
		writeFile    bool
		wantErr      bool
		errContains  string
		check        func(t *testing.T, cfg *config.Config)
	}{
		{
			name:      "valid file parses all fields",
			writeFile: true,
			content: `database_path: "/var/lib/app/app.db"
migrations_dir: "./db/migrations"
work_dir: "/tmp/work"
foreign_keys: false
busy_timeout: "2s"
log_level: "debug"
log_format: "text"
`,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/var/lib/app/app.db", cfg.DatabasePath)
				assert.Equal(t, "./db/migrations", cfg.MigrationsDir)
				assert.Equal(t, "/tmp/work", cfg.WorkDir)
				assert.False(t, cfg.ForeignKeys)
				assert.Equal(t, 2*time.Second, cfg.BusyTimeout)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "text", cfg.LogFormat)
			},
		},
		{
			name:      "partial file applies defaults",
			writeFile: true,
			content:   `database_path: ":memory:"`,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, sqlite.MemoryPath, cfg.DatabasePath)
				assert.Equal(t, config.DefaultMigrationsDir, cfg.MigrationsDir)
				assert.True(t, cfg.ForeignKeys)
				assert.Equal(t, config.DefaultBusyTimeout, cfg.BusyTimeout)
			},
		},
		{
			name:      "empty file returns defaults",
			writeFile: true,
			content:   "",
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, config.New(), cfg)
			},
		},
		{
			name:         "missing file allowed",
			allowMissing: true,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, config.New(), cfg)
			},
		},
		{
			name:        "missing file not allowed",
			wantErr:     true,
			errContains: "reading config file",
		},
		{
			name:        "malformed yaml",
			writeFile:   true,
			content:     "database_path: [unterminated",
			wantErr:     true,
			errContains: "parsing config file",
		},
		{
			name:        "invalid busy timeout",
			writeFile:   true,
			content:     `busy_timeout: "soon"`,
			wantErr:     true,
			errContains: "busy_timeout",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "docker-sqlite.yml")
			if tt.writeFile {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			}

			cfg, err := config.Load(path, tt.allowMissing)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestMergeEnv_overridesFields(t *testing.T) { // not parallel: mutates environment
	t.Setenv("DOCKER_SQLITE_DB_PATH", "/env/app.db")
	t.Setenv("DOCKER_SQLITE_MIGRATIONS_DIR", "/env/migrations")
	t.Setenv("DOCKER_SQLITE_WORK_DIR", "/env/work")
	t.Setenv("DOCKER_SQLITE_FOREIGN_KEYS", "false")
	t.Setenv("DOCKER_SQLITE_BUSY_TIMEOUT", "250ms")
	t.Setenv("DOCKER_SQLITE_LOG_LEVEL", "warn")
	t.Setenv("DOCKER_SQLITE_LOG_FORMAT", "text")

	cfg := config.New()
	require.NoError(t, config.MergeEnv(cfg))

	assert.Equal(t, "/env/app.db", cfg.DatabasePath)
	assert.Equal(t, "/env/migrations", cfg.MigrationsDir)
	assert.Equal(t, "/env/work", cfg.WorkDir)
	assert.False(t, cfg.ForeignKeys)
	assert.Equal(t, 250*time.Millisecond, cfg.BusyTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestMergeEnv_reportsEveryInvalidValue(t *testing.T) { // not parallel: mutates environment
	t.Setenv("DOCKER_SQLITE_FOREIGN_KEYS", "maybe")
	t.Setenv("DOCKER_SQLITE_BUSY_TIMEOUT", "-1s")

	cfg := config.New()
	err := config.MergeEnv(cfg)
	require.Error(t, err)
	assert.Equal(t, "invalid environment variables: DOCKER_SQLITE_FOREIGN_KEYS, DOCKER_SQLITE_BUSY_TIMEOUT", err.Error())

	assert.True(t, cfg.ForeignKeys)
	assert.Equal(t, config.DefaultBusyTimeout, cfg.BusyTimeout)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.DatabasePath = "  "
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_path")

	cfg = config.New()
	cfg.BusyTimeout = -time.Second
	cfg.LogLevel = "verbose"
	cfg.LogFormat = "xml"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "settings have invalid values: busy_timeout, log_level, log_format", err.Error())
}

func TestSQLite(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.DatabasePath = "/data/app.db"
	cfg.WorkDir = "/scratch"
	cfg.ForeignKeys = false
	cfg.BusyTimeout = time.Second

	sqliteCfg := cfg.SQLite()
	assert.Equal(t, "/data/app.db", sqliteCfg.Path)
	assert.Equal(t, "/scratch", sqliteCfg.WorkDir)
	assert.False(t, sqliteCfg.EnableForeignKeys)
	assert.Equal(t, time.Second, sqliteCfg.BusyTimeout)
	assert.NoError(t, sqliteCfg.Validate())
}

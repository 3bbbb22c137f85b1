package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f1metrix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /data/model_results.db
catalog:
  path: ./editorial.yaml
server:
  addr: 127.0.0.1:9000
logging:
  level: debug
`)
	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, "/data/model_results.db", cfg.Database.Path)
	assert.Equal(t, "./editorial.yaml", cfg.Catalog.Path)
	assert.Equal(t, "", cfg.Schema.Path)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  path: from-file.db\n")
	t.Setenv("F1METRIX_DATABASE_PATH", "from-env.db")
	t.Setenv("F1METRIX_SERVER_ADDR", ":9999")

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoadSetOverridesEnv(t *testing.T) {
	t.Setenv("F1METRIX_DATABASE_PATH", "from-env.db")
	v := NewViper()
	v.Set("database.path", "from-flag.db")

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "from-flag.db", cfg.Database.Path)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad level", "logging:\n  level: loud\n", "invalid logging.level"},
		{"empty database path", "database:\n  path: \"\"\n", "database.path is required"},
		{"malformed yaml", "database: [\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(NewViper(), writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("")
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate points Load at a missing env file and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PROCDASH_ENV_FILE", filepath.Join(dir, "missing.env"))
	for _, key := range []string{
		"PROCDASH_CONFIG_PATH", "PROCDASH_SERVER_HOST", "PROCDASH_SERVER_PORT",
		"PROCDASH_TRANSPORT", "PROCDASH_STORE_BACKEND", "PROCDASH_DB_PATH",
		"PROCDASH_ADMIN_CODE", "PROCDASH_SEED", "PROCDASH_NATS_URL",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	require.Equal(t, "2468", cfg.Admin.Code)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "procdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
store:
  backend: file
  file_path: /tmp/projects.json
log:
  level: debug
`), 0o600))
	t.Setenv("PROCDASH_CONFIG_PATH", path)
	t.Setenv("PROCDASH_SERVER_PORT", "9191")
	t.Setenv("PROCDASH_SEED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
	require.Equal(t, "file", cfg.Store.Backend)
	require.Equal(t, "/tmp/projects.json", cfg.Store.FilePath)
	require.Equal(t, "debug", cfg.Log.Level)
	require.False(t, cfg.Seed)
	require.Equal(t, "forest_ops_projects_v1", cfg.Store.Slot, "unset keys keep defaults")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PROCDASH_ADMIN_CODE=9999\nPROCDASH_TRANSPORT=stdio\n"), 0o600))
	t.Setenv("PROCDASH_ENV_FILE", envFile)
	// godotenv does not override variables that are already set, even
	// to empty values.
	os.Unsetenv("PROCDASH_ADMIN_CODE")
	os.Unsetenv("PROCDASH_TRANSPORT")
	t.Cleanup(func() {
		os.Unsetenv("PROCDASH_ADMIN_CODE")
		os.Unsetenv("PROCDASH_TRANSPORT")
	})

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9999", cfg.Admin.Code)
	require.Equal(t, "stdio", cfg.Transport.Mode)
}

func TestLoad_InvalidEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PROCDASH_SERVER_PORT", "eighty")
	_, err := Load()
	require.ErrorContains(t, err, "PROCDASH_SERVER_PORT")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Transport.Mode = "grpc"
	cfg.Store.Backend = "redis"
	cfg.Admin.Code = ""
	err := cfg.Validate()
	require.ErrorContains(t, err, "transport.mode")
	require.ErrorContains(t, err, "store.backend")
	require.ErrorContains(t, err, "admin.code")
}

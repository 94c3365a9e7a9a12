package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageConfigDefaults(t *testing.T) {
	tests := []struct {
		name        string
		cfg         StorageConfig
		wantBackend string
		wantPath    string
	}{
		{"empty", StorageConfig{}, BackendFile, filepath.Join(".speedlaunch", "state.yaml")},
		{"sqlite default path", StorageConfig{Backend: BackendSQLite}, BackendSQLite, "speedlaunch.db"},
		{"explicit path", StorageConfig{Backend: BackendSQLite, Path: "/tmp/x.db"}, BackendSQLite, "/tmp/x.db"},
		{"memory has no path", StorageConfig{Backend: BackendMemory}, BackendMemory, ""},
		{"none has no path", StorageConfig{Backend: BackendNone}, BackendNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantBackend, tt.cfg.GetBackend())
			assert.Equal(t, tt.wantPath, tt.cfg.GetPath())
		})
	}
}

func TestStorageConfigValidate(t *testing.T) {
	for _, backend := range []string{"", BackendMemory, BackendFile, BackendSQLite, BackendNone} {
		assert.NoError(t, StorageConfig{Backend: backend}.Validate(), backend)
	}
	assert.Error(t, StorageConfig{Backend: "localstorage"}.Validate())
}

func TestAPIConfigRateLimitDefaults(t *testing.T) {
	var api APIConfig
	assert.Equal(t, 20.0, api.GetRateLimitRPS())
	assert.Equal(t, 40, api.GetRateLimitBurst())

	api.RateLimit = &RateLimitConfig{RequestsPerSecond: 5, Burst: 10}
	assert.Equal(t, 5.0, api.GetRateLimitRPS())
	assert.Equal(t, 10, api.GetRateLimitBurst())

	api.RateLimit = &RateLimitConfig{RequestsPerSecond: -1, Burst: -1}
	assert.Equal(t, 20.0, api.GetRateLimitRPS())
	assert.Equal(t, 40, api.GetRateLimitBurst())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speedlaunch.yaml")
	content := `title: My Launch
storage:
  backend: sqlite
  path: progress.db
server:
  port: 9090
api:
  rate_limit:
    requests_per_second: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "My Launch", cfg.Title)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "progress.db", cfg.Storage.GetPath())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host, "unset fields keep defaults")
	assert.Equal(t, 3.0, cfg.API.GetRateLimitRPS())
	assert.Equal(t, "localhost:9090", cfg.Server.Addr())
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	tests := map[string]string{
		"bad yaml":        "title: [unclosed",
		"unknown backend": "storage:\n  backend: cookie\n",
		"bad port":        "server:\n  port: 70000\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "speedlaunch.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromDirPrefersVisibleFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".speedlaunch.yaml"), []byte("title: hidden\n"), 0644))

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "hidden", cfg.Title)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "speedlaunch.yaml"), []byte("title: visible\n"), 0644))
	cfg, err = LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "visible", cfg.Title)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speedlaunch.yaml")

	cfg := DefaultConfig()
	cfg.Guide = "guide.md"
	cfg.Storage.Backend = BackendMemory
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

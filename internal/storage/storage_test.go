package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/livetemplate/speedlaunch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseKV runs the contract every backend must satisfy.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()

	_, ok, err := kv.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set("speedlaunch-mode", "reference"))
	v, ok, err := kv.Get("speedlaunch-mode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "reference", v)

	require.NoError(t, kv.Set("speedlaunch-mode", "challenge"))
	v, _, err = kv.Get("speedlaunch-mode")
	require.NoError(t, err)
	assert.Equal(t, "challenge", v)

	require.NoError(t, kv.Delete("speedlaunch-mode"))
	_, ok, err = kv.Get("speedlaunch-mode")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Delete("never-set"))
}

func TestMemoryContract(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestMemoryInjectedFailures(t *testing.T) {
	m := NewMemoryFrom(map[string]string{"a": "1"})
	quota := errors.New("quota exceeded")

	m.FailWrites(quota)
	err := m.Set("a", "2")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, quota)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "set", se.Op)
	assert.Equal(t, "a", se.Key)

	m.FailWrites(nil)
	m.FailReads(quota)
	_, _, err = m.Get("a")
	assert.ErrorIs(t, err, ErrUnavailable)

	m.FailReads(nil)
	v, ok, err := m.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 0, m.Writes())
}

func TestDisabledRejectsEverything(t *testing.T) {
	d := NewDisabled()

	_, _, err := d.Get("k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, d.Set("k", "v"), ErrUnavailable)
	assert.ErrorIs(t, d.Delete("k"), ErrUnavailable)
	assert.NoError(t, d.Close())
}

func TestFileStoreContract(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "state.yaml"))
	require.NoError(t, err)
	exerciseKV(t, s)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("speedlaunch-checkboxes", `{"lighting":true}`))
	require.NoError(t, s.Close())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get("speedlaunch-checkboxes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"lighting":true}`, v)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("::: not yaml [\n"), 0644))

	_, err := NewFileStore(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFileStoreWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	// Parent "directory" is a regular file, so every write fails.
	s, err := NewFileStore(filepath.Join(blocker, "state.yaml"))
	require.NoError(t, err)

	err = s.Set("k", "v")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok, "failed write must not change in-memory view")
}

func TestSQLiteStoreContract(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"), "")
	require.NoError(t, err)
	defer s.Close()
	exerciseKV(t, s)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLiteStore(path, "progress")
	require.NoError(t, err)
	require.NoError(t, s.Set("speedlaunch-step", "2"))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "double close is a no-op")

	reopened, err := NewSQLiteStore(path, "progress")
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get("speedlaunch-step")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestSQLiteStoreClosedDatabase(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"), "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = s.Get("k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Set("k", "v"), ErrUnavailable)
}

func TestSQLiteStoreInvalidTable(t *testing.T) {
	tests := []string{"drop table", "1abc", "kv;--", "a-b"}
	for _, table := range tests {
		t.Run(table, func(t *testing.T) {
			_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"), table)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.StorageConfig
		want    interface{}
		wantErr bool
	}{
		{"memory", config.StorageConfig{Backend: config.BackendMemory}, &Memory{}, false},
		{"none", config.StorageConfig{Backend: config.BackendNone}, Disabled{}, false},
		{"file default path", config.StorageConfig{Backend: config.BackendFile}, &FileStore{}, false},
		{"sqlite", config.StorageConfig{Backend: config.BackendSQLite, Path: "progress.db"}, &SQLiteStore{}, false},
		{"unknown", config.StorageConfig{Backend: "cookie"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, err := Open(tt.cfg, dir)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer kv.Close()
			assert.IsType(t, tt.want, kv)
		})
	}
}

func TestOpenResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()

	kv, err := Open(config.StorageConfig{Backend: config.BackendFile, Path: "progress.yaml"}, dir)
	require.NoError(t, err)
	require.NoError(t, kv.Set("k", "v"))

	_, err = os.Stat(filepath.Join(dir, "progress.yaml"))
	assert.NoError(t, err)
}

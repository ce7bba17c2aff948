package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/txsift/internal/config"
	"github.com/cleared-dev/txsift/internal/storage"
)

type closeTrackingStore struct {
	storage.Store
	closed int
}

func (s *closeTrackingStore) Close() error {
	s.closed++
	return s.Store.Close()
}

func trackStore(t *testing.T) *closeTrackingStore {
	t.Helper()
	tracked := &closeTrackingStore{}
	orig := openStore
	openStore = func(cfg config.StorageConfig, root string) (storage.Store, error) {
		s, err := orig(cfg, root)
		if err != nil {
			return nil, err
		}
		tracked.Store = s
		return tracked, nil
	}
	t.Cleanup(func() { openStore = orig })
	return tracked
}

func writeConfig(t *testing.T, dir string, cfg *config.Config) {
	t.Helper()
	require.NoError(t, config.Save(filepath.Join(dir, config.FileName), cfg))
}

func TestOpenWorkspace_ClosesStoreWhenHistoryFails(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the history directory should be.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blocker"), []byte("x"), 0o644))

	cfg := config.Default()
	cfg.History = config.HistoryConfig{Backend: config.HistorySQLite, Path: "blocker/history.db"}
	writeConfig(t, dir, cfg)

	tracked := trackStore(t)
	_, err := openWorkspace(dir, os.Stderr)
	require.ErrorContains(t, err, "opening history")
	assert.Equal(t, 1, tracked.closed)
}

func TestWorkspaceClose_ClosesStore(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.Default())

	tracked := trackStore(t)
	ws, err := openWorkspace(dir, os.Stderr)
	require.NoError(t, err)
	require.NoError(t, ws.Close())
	assert.Equal(t, 1, tracked.closed)
}

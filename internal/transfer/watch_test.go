package transfer_test

import (
	"encoding/json/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/echotab/echotab-server/internal/transfer"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ImportsDroppedSnapshots(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	w, err := transfer.NewWatcher(dir, f.importer, nil)
	require.NoError(t, err)
	w.Start()
	t.Cleanup(func() { _ = w.Close() })

	raw, err := json.Marshal(snapshotFixture())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export.json"), raw, 0o644))

	require.Eventually(t, func() bool {
		return len(f.store.Bookmarks.All()) == 3
	}, 3*time.Second, 50*time.Millisecond)
}

func TestWatcher_IgnoresNonJSONFiles(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	w, err := transfer.NewWatcher(dir, f.importer, nil)
	require.NoError(t, err)
	w.Start()
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a snapshot"), 0o644))

	time.Sleep(500 * time.Millisecond)
	require.Empty(t, f.store.Bookmarks.All())
}

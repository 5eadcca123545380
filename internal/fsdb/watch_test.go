package fsdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherClearsCacheOnChange(t *testing.T) {
	fs, root := newTestFS(t)
	path := filepath.Join(root, "pages", "foo", "content.html")
	writeFile(t, path, "v1")

	cache, err := NewCache(fs, 16)
	require.NoError(t, err)

	id := mustID(t, "foo")
	_, err = cache.GetPage(id)
	require.NoError(t, err)

	watcher, err := NewWatcher(cache)
	require.NoError(t, err)
	require.NoError(t, watcher.Add(filepath.Join(root, "pages", "foo")))
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go watcher.Run(ctx)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	require.Eventually(t, func() bool {
		data, err := cache.GetPage(id)

		return err == nil && string(data) == "v2"
	}, time.Second, 10*time.Millisecond, "watcher should clear the cache after a change")
}

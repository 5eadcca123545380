package fsdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetPageHitsFilesystemOnceThenCaches(t *testing.T) {
	fs, root := newTestFS(t)
	path := filepath.Join(root, "pages", "foo", "content.html")
	writeFile(t, path, "v1")

	cache, err := NewCache(fs, 16)
	require.NoError(t, err)

	id := mustID(t, "foo")

	data, err := cache.GetPage(id)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	// Mutate on disk without clearing the cache: cached value must stick.
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	data, err = cache.GetPage(id)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data), "cache should not re-read until cleared")
}

func TestCacheClearForcesRefetch(t *testing.T) {
	fs, root := newTestFS(t)
	path := filepath.Join(root, "pages", "foo", "content.html")
	writeFile(t, path, "v1")

	cache, err := NewCache(fs, 16)
	require.NoError(t, err)

	id := mustID(t, "foo")

	_, err = cache.GetPage(id)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	cache.Clear()

	data, err := cache.GetPage(id)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestCacheDistinguishesKinds(t *testing.T) {
	fs, root := newTestFS(t)
	writeFile(t, filepath.Join(root, "pages", "foo", "content.html"), "body")
	writeFile(t, filepath.Join(root, "pages", "foo", "title"), "Title")

	cache, err := NewCache(fs, 16)
	require.NoError(t, err)

	id := mustID(t, "foo")

	body, err := cache.GetPage(id)
	require.NoError(t, err)
	title, err := cache.GetPageTitle(id)
	require.NoError(t, err)

	assert.Equal(t, "body", string(body))
	assert.Equal(t, "Title", title)
}

func TestCacheSizeZeroDisablesCaching(t *testing.T) {
	fs, root := newTestFS(t)
	path := filepath.Join(root, "pages", "foo", "content.html")
	writeFile(t, path, "v1")

	cache, err := NewCache(fs, 0)
	require.NoError(t, err)

	id := mustID(t, "foo")

	data, err := cache.GetPage(id)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	data, err = cache.GetPage(id)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data), "a disabled cache always reads through")
	assert.Equal(t, 0, cache.Len())
}

package options

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearFSDEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CMS_LOG_LEVEL", "CMS_RUNDIR", "CMS_CACHE_SIZE", "CMS_NO_SYSTEMD",
		"CMS_WORKER_THREADS", "CMS_ADMIN_ADDR",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestParseFSDDefaults(t *testing.T) {
	clearFSDEnv(t)

	o, err := ParseFSD([]string{"/srv/cms-db"})
	require.NoError(t, err)

	assert.Equal(t, defaultRunDir, o.RunDir)
	assert.Equal(t, defaultCacheSize, o.CacheSize)
	assert.Equal(t, defaultWorkerThreads, o.WorkerThreads)
	assert.Empty(t, o.AdminAddr)
	assert.Equal(t, "/srv/cms-db", o.DBRoot)
}

func TestParseFSDRequiresDBRoot(t *testing.T) {
	clearFSDEnv(t)

	_, err := ParseFSD(nil)
	require.Error(t, err)
}

func TestParseFSDAllowsZeroCacheSize(t *testing.T) {
	clearFSDEnv(t)

	o, err := ParseFSD([]string{"--cache-size", "0", "/srv/cms-db"})
	require.NoError(t, err)
	assert.Equal(t, 0, o.CacheSize)
}

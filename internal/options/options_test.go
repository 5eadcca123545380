package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CMS_LOG_LEVEL", "CMS_RUNDIR", "CMS_CACHE_SIZE", "CMS_NO_SYSTEMD",
		"CMS_WORKER_THREADS", "CMS_ADMIN_ADDR", "CMS_CONFIG", "CMS_DEBUG",
		"CMS_DOMAIN", "CMS_URL_BASE",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)

	o, err := Parse([]string{"--domain", "example.com"})
	require.NoError(t, err)

	assert.Equal(t, defaultRunDir, o.RunDir)
	assert.Equal(t, defaultCacheSize, o.CacheSize)
	assert.Equal(t, defaultWorkerThreads, o.WorkerThreads)
	assert.Equal(t, defaultURLBase, o.URLBase)
	assert.False(t, o.NoSystemd)
	assert.Equal(t, "example.com", o.Domain)
}

func TestParseMissingConfigFileFallsBackToDefaults(t *testing.T) {
	clearEnv(t)

	o, err := Parse([]string{"--config", "/nonexistent/backd.conf"})
	require.NoError(t, err)
	assert.Equal(t, defaultDomain, o.Domain)
	assert.Equal(t, defaultURLBase, o.URLBase)
	assert.False(t, o.Debug)
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CMS_CACHE_SIZE", "100")

	o, err := Parse([]string{"--domain", "example.com", "--cache-size", "200"})
	require.NoError(t, err)
	assert.Equal(t, 200, o.CacheSize)
}

func TestParseEnvOverridesDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("CMS_CACHE_SIZE", "999")

	o, err := Parse([]string{"--domain", "example.com"})
	require.NoError(t, err)
	assert.Equal(t, 999, o.CacheSize)
}

func TestParseInvalidDomain(t *testing.T) {
	clearEnv(t)

	_, err := Parse([]string{"--domain", "exa mple.com/bad"})
	require.Error(t, err)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "domain", verr.Field)
}

func TestParseINIFillsUnsetFields(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "cms-backd.ini")
	require.NoError(t, os.WriteFile(path, []byte(
		"[CMS-BACKD]\ndebug = true\ndomain = example.org\nurl-base = /cms\n",
	), 0o600))

	o, err := Parse([]string{"--config", path})
	require.NoError(t, err)

	assert.True(t, o.Debug)
	assert.Equal(t, "example.org", o.Domain)
	assert.Equal(t, "/cms", o.URLBase)
}

func TestParseFlagOverridesINI(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "cms-backd.ini")
	require.NoError(t, os.WriteFile(path, []byte(
		"[CMS-BACKD]\ndomain = example.org\n",
	), 0o600))

	o, err := Parse([]string{"--config", path, "--domain", "override.com"})
	require.NoError(t, err)
	assert.Equal(t, "override.com", o.Domain)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "domain", Message: "bad"}
	assert.Contains(t, err.Error(), "domain")
	assert.Contains(t, err.Error(), "bad")
}

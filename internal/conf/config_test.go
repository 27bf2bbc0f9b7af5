package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalscan/scanctl/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	settings, err := LoadFrom(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIBaseURL, settings.API.BaseURL)
	assert.Equal(t, DefaultViewerBaseURL, settings.Viewer.BaseURL)
	assert.Equal(t, DefaultHTTPTimeout, settings.HTTP.Timeout)
	assert.Equal(t, DefaultUploadTimeout, settings.HTTP.UploadTimeout)
	assert.Equal(t, DefaultBusyTTL, settings.Busy.TTL)
	assert.Equal(t, "en", settings.Locale)
	assert.NotEmpty(t, settings.Session.Path)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
api:
  base_url: https://dental.example.com/api
http:
  timeout: 5s
locale: ru
poll:
  interval: 2s
  burst: 3
logging:
  module_levels:
    upload: debug
`)

	settings, err := LoadFrom(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "https://dental.example.com/api", settings.API.BaseURL)
	assert.Equal(t, 5*time.Second, settings.HTTP.Timeout)
	assert.Equal(t, "ru", settings.Locale)
	assert.Equal(t, 2*time.Second, settings.Poll.Interval)
	assert.Equal(t, 3, settings.Poll.Burst)
	assert.Equal(t, "debug", settings.Logging.ModuleLevels["upload"])
}

func TestLoadFromInvalidFileFailsValidation(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "locale: de\n")

	_, err := LoadFrom(viper.New(), path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.Contains(t, err.Error(), "locale")
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("SCANCTL_API_URL", "https://override.example.com/api")
	t.Setenv("SCANCTL_LOCALE", "ru")

	path := writeConfig(t, "api:\n  base_url: https://file.example.com/api\n")

	settings, err := LoadFrom(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.com/api", settings.API.BaseURL)
	assert.Equal(t, "ru", settings.Locale)
}

func TestInvalidEnvironmentValue(t *testing.T) {
	t.Setenv("SCANCTL_HTTP_TIMEOUT", "soon")

	_, err := LoadFrom(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCANCTL_HTTP_TIMEOUT")
}

func TestSaveYAMLConfigIsReadable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	settings := DefaultSettings()
	settings.API.BaseURL = "https://saved.example.com/api"
	settings.HTTP.Timeout = 45 * time.Second
	require.NoError(t, SaveYAMLConfig(path, settings))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadFrom(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example.com/api", loaded.API.BaseURL)
	assert.Equal(t, 45*time.Second, loaded.HTTP.Timeout)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestGetDefaultConfigPathsHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	paths := GetDefaultConfigPaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, filepath.Join(dir, "scanctl"), paths[0])
	assert.Equal(t, ".", paths[len(paths)-1])
	assert.Equal(t, filepath.Join(dir, "scanctl", "config.yaml"), DefaultConfigFile())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardpress", "config.toml")

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "a4", cfg.DefaultPaper)
	assert.Equal(t, WordGridFixed, cfg.Word.Grid)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written")
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `default_paper = "a3"

[institution]
name = "Royal Academy"

[images]
format = "jpeg"
jpeg_quality = 500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "a3", cfg.DefaultPaper)
	assert.Equal(t, "Royal Academy", cfg.Institution.Name)
	assert.Equal(t, "#1e3a8a", cfg.Institution.HeaderColor)
	assert.Equal(t, "jpeg", cfg.Images.Format)
	assert.Equal(t, 92, cfg.Images.JPEGQuality)
	assert.Equal(t, 4, cfg.Images.QueueSize)
	assert.Equal(t, ".", cfg.OutputDir)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("default_paper = ["), 0644))

	_, err := LoadConfigFrom(path)
	assert.Error(t, err)
}

func TestSetDefaultPaper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, SetDefaultPaper(path, "letter"))

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "letter", cfg.DefaultPaper)
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	assert.Equal(t, filepath.Join("/tmp/xdg-config", "cardpress", "config.toml"), GetConfigFilePath())
	assert.Equal(t, filepath.Join("/tmp/xdg-cache", "cardpress"), GetCacheDir())
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "", ResolvePath("/etc/cardpress/config.toml", ""))
	assert.Equal(t, "/abs/logo.png", ResolvePath("/etc/cardpress/config.toml", "/abs/logo.png"))
	assert.Equal(t, filepath.Join("/etc/cardpress", "logo.png"), ResolvePath("/etc/cardpress/config.toml", "logo.png"))
}

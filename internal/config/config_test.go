package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mattjoyce/unraid-rrdtool/internal/config"
	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadWith runs config.Load with a controlled settings file and argv.
func loadWith(t *testing.T, fileBody string, args ...string) (*config.Settings, error) {
	t.Helper()

	dir, err := os.MkdirTemp("", "settings_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "unraid-rrdtool.toml")
	require.NoError(t, os.WriteFile(path, []byte(fileBody), 0o644))
	t.Setenv("UNRAID_RRDTOOL_CONFIG", path)

	oldArgs := os.Args
	os.Args = append([]string{"unraid-rrdtool"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })

	return config.Load()
}

func TestLoadDefaults(t *testing.T) {
	settings, err := loadWith(t, "")
	require.NoError(t, err)

	assert.Equal(t, "/config", settings.ConfigDir)
	assert.Equal(t, "/config/themes", settings.ThemesDir)
	assert.Equal(t, "rrdtool", settings.RRDToolPath)
	assert.Equal(t, 30, settings.ExecTimeout)
	assert.Equal(t, "info", settings.LogLevel)
	assert.False(t, settings.Journal)
	assert.Equal(t, "all", settings.Mode)
}

func TestLoadFromFile(t *testing.T) {
	settings, err := loadWith(t, `
config_dir = "/mnt/user/appdata/rrd"
log_level = "debug"
journal = true
journal_db = "/data/journal.db"
exec_timeout = 10
`)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/user/appdata/rrd", settings.ConfigDir)
	assert.Equal(t, "/mnt/user/appdata/rrd/themes", settings.ThemesDir)
	assert.Equal(t, "debug", settings.LogLevel)
	assert.True(t, settings.Journal)
	assert.Equal(t, "/data/journal.db", settings.JournalDB)
	assert.Equal(t, 10, settings.ExecTimeout)
}

func TestFlagsOverrideFile(t *testing.T) {
	settings, err := loadWith(t, `config_dir = "/from/file"`,
		"--config-dir", "/from/flag", "--themes-dir", "/themes")
	require.NoError(t, err)

	assert.Equal(t, "/from/flag", settings.ConfigDir)
	assert.Equal(t, "/themes", settings.ThemesDir)
}

func TestLoadModeArgument(t *testing.T) {
	settings, err := loadWith(t, "", "collect")
	require.NoError(t, err)
	assert.Equal(t, "collect", settings.Mode)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	_, err := loadWith(t, "", "frobnicate")
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidArgument, errors.CodeOf(err))
}

func TestValidate(t *testing.T) {
	valid := config.Settings{LogLevel: "info", ExecTimeout: 30, Mode: "all"}
	require.NoError(t, valid.Validate())

	badLevel := valid
	badLevel.LogLevel = "chatty"
	assert.Equal(t, errors.ErrInvalidLogLevel, errors.CodeOf(badLevel.Validate()))

	badTimeout := valid
	badTimeout.ExecTimeout = 0
	assert.Equal(t, errors.ErrInvalidConfig, errors.CodeOf(badTimeout.Validate()))

	journalNoDB := valid
	journalNoDB.Journal = true
	assert.Equal(t, errors.ErrInvalidConfig, errors.CodeOf(journalNoDB.Validate()))
}

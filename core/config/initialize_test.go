package config

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "voltexec")
	if _, err := Initialize(tempDir, log.New(ioutil.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}

	// Check that the config is valid
	cfg, err := Load(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("Dir", func(t *testing.T) {
		assert.Equal(t, tempDir, cfg.Dir())
	})

	t.Run("HistoryPath", func(t *testing.T) {
		assert.Equal(t, filepath.Join(tempDir, "history"), cfg.HistoryPath())
	})

	t.Run("OpenAppLog", func(t *testing.T) {
		fd, err := cfg.OpenAppLog()
		require.NoError(t, err)
		_, err = fd.WriteString("line\n")
		assert.Nil(t, err)
		fd.Close()

		_, err = os.Stat(filepath.Join(tempDir, AppLogName))
		assert.Nil(t, err)
	})

	t.Run("LoadConfigFile", func(t *testing.T) {
		byFile, err := Load(filepath.Join(tempDir, ConfigurationName))
		require.NoError(t, err)
		assert.Equal(t, tempDir, byFile.Dir())
	})
}

func TestInitialize_keepsExisting(t *testing.T) {
	tempDir := t.TempDir()
	custom := []byte("color: never\nhandle: ops\nlog_level: off\n")
	require.NoError(t, ioutil.WriteFile(filepath.Join(tempDir, ConfigurationName), custom, 0600))

	cfg, err := Initialize(tempDir, log.New(ioutil.Discard, "", 0))
	require.NoError(t, err)
	assert.Equal(t, "ops", cfg.Handle)
	assert.Equal(t, Level("off"), cfg.LogLevel)

	contents, err := ioutil.ReadFile(filepath.Join(tempDir, ConfigurationName))
	require.NoError(t, err)
	assert.Equal(t, custom, contents)
}

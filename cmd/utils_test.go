package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DEPLOYER_TEST_FROM_FILE=file\nDEPLOYER_TEST_PRESET=file\n"), 0o600))

	t.Setenv("DEPLOYER_TEST_PRESET", "env")
	t.Cleanup(func() { os.Unsetenv("DEPLOYER_TEST_FROM_FILE") })

	require.NoError(t, loadEnv(path))
	assert.Equal(t, "file", os.Getenv("DEPLOYER_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("DEPLOYER_TEST_PRESET"))
}

func TestLoadEnvNoPath(t *testing.T) {
	assert.NoError(t, loadEnv(""))
}

func TestLoadEnvMissingFile(t *testing.T) {
	err := loadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "error reading env file")
}

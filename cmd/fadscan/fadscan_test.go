package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugypalu/findAsDerivative/fad"
)

func writeScanConfig(t *testing.T) string {
	t.Helper()

	content := `
[chainreader]
sidecar_url = "http://localhost:8080"
network = 2

[scan]
start_range = 1000
end_range = 2000
batch_size = 25
`
	path := filepath.Join(t.TempDir(), "scan.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseFlagsWithoutConfigFile(t *testing.T) {
	config, err := parseFlags([]string{"-sidecar", "http://localhost:8080", "-start", "5", "-end", "10"})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", config.SidecarURL)
	assert.Equal(t, 5, config.StartRange)
	assert.Equal(t, 10, config.EndRange)
	assert.Equal(t, fad.DefaultConfig().BatchSize, config.BatchSize)
}

func TestParseFlagsConfigFileOnly(t *testing.T) {
	config, err := parseFlags([]string{"-conf", writeScanConfig(t)})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", config.SidecarURL)
	assert.Equal(t, 2, config.Network)
	assert.Equal(t, 1000, config.StartRange)
	assert.Equal(t, 2000, config.EndRange)
	assert.Equal(t, 25, config.BatchSize)
}

func TestParseFlagsOverrideConfigFile(t *testing.T) {
	config, err := parseFlags([]string{"-conf", writeScanConfig(t), "-end", "12345", "-network", "42"})
	require.NoError(t, err)

	// explicitly-set flags win over the file
	assert.Equal(t, 12345, config.EndRange)
	assert.Equal(t, 42, config.Network)

	// everything else keeps the file's values
	assert.Equal(t, "http://localhost:8080", config.SidecarURL)
	assert.Equal(t, 1000, config.StartRange)
	assert.Equal(t, 25, config.BatchSize)
}

func TestParseFlagsDefaultsNotTreatedAsOverrides(t *testing.T) {
	// passing no flags must not clobber file values with flag defaults
	config, err := parseFlags([]string{"-conf", writeScanConfig(t)})
	require.NoError(t, err)
	assert.Equal(t, 25, config.BatchSize)
	assert.NotEqual(t, fad.DefaultConfig().BatchSize, config.BatchSize)
}

func TestParseFlagsMissingConfigFile(t *testing.T) {
	_, err := parseFlags([]string{"-conf", filepath.Join(t.TempDir(), "nope.toml")})
	assert.Error(t, err)
}

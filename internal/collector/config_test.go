package collector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
server_url: https://ss.example
client:
  - XTEE-CI-XM
  - GOV
  - "00000001"
  - consumer
instance: XTEE-CI-XM
output_path: /tmp/catalogue
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, defaultThreadCount, cfg.ThreadCount)
	assert.Equal(t, defaultFilteredHours, cfg.FilteredHours)
	assert.Equal(t, defaultFilteredDays, cfg.FilteredDays)
	assert.Equal(t, defaultFilteredMonths, cfg.FilteredMonths)
	assert.Equal(t, defaultCleanupInterval, cfg.CleanupInterval)
	assert.Equal(t, defaultDaysToKeep, cfg.DaysToKeep)
}

func TestLoadConfig_MissingRequiredField(t *testing.T) {
	path := writeConfig(t, `
client:
  - XTEE-CI-XM
  - GOV
  - "00000001"
  - consumer
instance: XTEE-CI-XM
output_path: /tmp/catalogue
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "server_url is required")
}

func TestLoadConfig_FilesystemRequiresOutputPath(t *testing.T) {
	path := writeConfig(t, `
server_url: https://ss.example
client:
  - XTEE-CI-XM
  - GOV
  - "00000001"
  - consumer
instance: XTEE-CI-XM
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "output_path is required")
}

func TestLoadConfig_ObjectstoreRequiresMinioSettings(t *testing.T) {
	path := writeConfig(t, `
storage_plugin: objectstore
server_url: https://ss.example
client:
  - XTEE-CI-XM
  - GOV
  - "00000001"
  - consumer
instance: XTEE-CI-XM
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "minio_url and minio_bucket are required")
}

func TestLoadConfig_InvalidSchedule(t *testing.T) {
	path := writeConfig(t, `
server_url: https://ss.example
client:
  - XTEE-CI-XM
  - GOV
  - "00000001"
  - consumer
instance: XTEE-CI-XM
output_path: /tmp/catalogue
schedule: "not a cron expression"
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "invalid schedule")
}

func TestLoadConfig_InvalidWSDLReplacePattern(t *testing.T) {
	path := writeConfig(t, `
server_url: https://ss.example
client:
  - XTEE-CI-XM
  - GOV
  - "00000001"
  - consumer
instance: XTEE-CI-XM
output_path: /tmp/catalogue
wsdl_replaces:
  - pattern: "("
    replacement: ""
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "invalid wsdl_replaces pattern")
}

func TestLoadConfig_InvalidClientSegmentCount(t *testing.T) {
	path := writeConfig(t, `
server_url: https://ss.example
client:
  - XTEE-CI-XM
  - GOV
instance: XTEE-CI-XM
output_path: /tmp/catalogue
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "config: client")
}

func TestConfig_CompiledWSDLReplaces(t *testing.T) {
	cfg := &Config{
		WSDLReplaces: []ReplaceConfig{
			{Pattern: `Genereerimise aeg: \S+`, Replacement: "Genereerimise aeg: X"},
		},
	}

	compiled, err := cfg.CompiledWSDLReplaces()
	require.NoError(t, err)
	require.Len(t, compiled, 1)
	assert.Equal(t, "Genereerimise aeg: X", compiled[0].Replacement)
	assert.True(t, compiled[0].Pattern.MatchString("Genereerimise aeg: 2024-01-01"))
}

func TestConfig_StorageConfig(t *testing.T) {
	cfg := &Config{
		Instance:        "XTEE-CI-XM",
		FilteredHours:   1,
		FilteredDays:    2,
		FilteredMonths:  3,
		CleanupInterval: 4,
		DaysToKeep:      5,
	}

	storageCfg, err := cfg.StorageConfig()
	require.NoError(t, err)
	assert.Equal(t, "XTEE-CI-XM", storageCfg.Instance)
	assert.Equal(t, 1, storageCfg.FilteredHours)
	assert.Equal(t, 5, storageCfg.DaysToKeep)
}

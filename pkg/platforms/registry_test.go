package platforms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "platforms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
platforms:
  - name: doordash
    client_id: dd-client
    client_secret: dd-secret
    environment: sandbox
    enabled: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Platforms, 1)
	assert.Equal(t, "doordash", cfg.Platforms[0].Name)
	assert.Equal(t, "dd-client", cfg.Platforms[0].ClientID)
	assert.True(t, cfg.Platforms[0].Enabled)
}

func TestLoadConfigMissingPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigEmpty(t *testing.T) {
	path := writeConfig(t, "platforms: []\n")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "no platforms configured")
}

func TestBuildRegistry(t *testing.T) {
	cfg := RegistryConfig{Platforms: []PlatformConfig{
		{Name: "DoorDash", ClientID: "id", ClientSecret: "secret", Environment: "sandbox", Enabled: true},
	}}

	registry, err := Build(cfg, nil)
	require.NoError(t, err)

	adapter, ok := registry.Get("doordash")
	require.True(t, ok, "platform names are normalized to lower case")
	assert.Equal(t, "doordash", adapter.Name())
	assert.ElementsMatch(t, []string{"doordash"}, registry.Names())

	_, ok = registry.Get("ubereats")
	assert.False(t, ok)
}

func TestBuildRegistryUnknownPlatform(t *testing.T) {
	cfg := RegistryConfig{Platforms: []PlatformConfig{
		{Name: "carrierpigeon", Enabled: true},
	}}

	_, err := Build(cfg, nil)
	assert.ErrorContains(t, err, "unknown platform")
}

func TestBuildRegistrySkipsDisabled(t *testing.T) {
	cfg := RegistryConfig{Platforms: []PlatformConfig{
		{Name: "doordash", Enabled: false},
	}}

	_, err := Build(cfg, nil)
	assert.ErrorContains(t, err, "no platforms enabled")
}

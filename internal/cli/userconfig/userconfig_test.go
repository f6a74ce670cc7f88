package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.VerifySession)
}

func TestLoadFile_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://bones.example.com/api/
verify_session: true
storage: file
image_host:
  cloud_name: westeros
  upload_preset: unsigned
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://bones.example.com/api", cfg.NormalizedAPIURL())
	assert.True(t, cfg.VerifySession)
	assert.Equal(t, StorageFile, cfg.Storage)
	assert.Equal(t, "westeros", cfg.ImageHost.CloudName)
	assert.Equal(t, "warn", cfg.LogLevel, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [oops"), 0o600))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "failed to parse user config file")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"BONES_API_URL":        "http://10.0.0.2:8080/api",
		"BONES_VERIFY_SESSION": "true",
		"BONES_UPLOAD_PRESET":  "preset",
		"BONES_STORAGE":        "",
	}))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:8080/api", cfg.APIURL)
	assert.True(t, cfg.VerifySession)
	assert.Equal(t, "preset", cfg.ImageHost.UploadPreset)
	assert.Equal(t, StorageKeyring, cfg.Storage, "empty values are ignored")

	err = cfg.ApplyEnv(env(map[string]string{"BONES_VERIFY_SESSION": "maybe"}))
	assert.ErrorContains(t, err, "BONES_VERIFY_SESSION")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.APIURL = "localhost:8080"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Storage = "cloud"
	assert.ErrorContains(t, cfg.Validate(), "invalid storage")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.APIURL = "https://api.example.com"
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("BONES_CONFIG", "/tmp/custom.yaml")
	p, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yaml", p)
}

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whoop-mcp/internal/app"
)

func TestLoadConfigFromEnv(t *testing.T) {
	environ := func() []string {
		return []string{
			"WHOOP_LOG_FORMAT=json",
			"WHOOP_AUTH__STORAGE=file",
			"WHOOP_AUTH__FILE=" + filepath.Join(t.TempDir(), "credentials.json"),
			"WHOOP_AUTH__CLIENT_ID=nested-cid",
			"UNRELATED=ignored",
		}
	}

	cfg, err := loadConfig("", nil, environ)
	require.NoError(t, err)

	assert.Equal(t, app.LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, app.CredentialStorageTypeFile, cfg.Auth.Storage)
	assert.Equal(t, "nested-cid", cfg.Auth.ClientID)
	// Defaults fill the rest
	assert.Equal(t, app.DefaultConfigAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, app.DefaultConfigAPITokenURL, cfg.API.TokenURL)
}

// TestLoadConfigEnvAliases covers the flat vendor-style variable names that
// map onto nested auth keys.
func TestLoadConfigEnvAliases(t *testing.T) {
	environ := func() []string {
		return []string{
			"WHOOP_AUTH__FILE=" + filepath.Join(t.TempDir(), "credentials.json"),
			"WHOOP_CLIENT_ID=my-client",
			"WHOOP_CLIENT_SECRET=my-secret",
			"WHOOP_INITIAL_ACCESS_TOKEN=boot-access",
			"WHOOP_INITIAL_REFRESH_TOKEN=boot-refresh",
		}
	}

	cfg, err := loadConfig("", nil, environ)
	require.NoError(t, err)

	assert.Equal(t, "my-client", cfg.Auth.ClientID)
	assert.Equal(t, "my-secret", cfg.Auth.ClientSecret)
	assert.Equal(t, "boot-access", cfg.Auth.InitialAccessToken)
	assert.Equal(t, "boot-refresh", cfg.Auth.InitialRefreshToken)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
log_format = "text"

[auth]
storage = "file"
file = "/tmp/from-file.json"
client_id = "file-cid"
`), 0600))

	environ := func() []string {
		return []string{"WHOOP_AUTH__CLIENT_ID=env-cid"}
	}

	cfg, err := loadConfig(configPath, nil, environ)
	require.NoError(t, err)

	assert.Equal(t, "env-cid", cfg.Auth.ClientID)
	assert.Equal(t, "/tmp/from-file.json", cfg.Auth.File)
}

func TestLoadConfigRejectsPartialBootstrapTokens(t *testing.T) {
	environ := func() []string {
		return []string{
			"WHOOP_AUTH__FILE=" + filepath.Join(t.TempDir(), "credentials.json"),
			"WHOOP_INITIAL_ACCESS_TOKEN=only-access",
		}
	}

	_, err := loadConfig("", nil, environ)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required together")
}

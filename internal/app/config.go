package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"whoop-mcp/internal/credentials"
	"whoop-mcp/internal/whoop"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// CredentialStorageType represents the different storage types supported for
// the persisted credential record.
type CredentialStorageType string

const (
	CredentialStorageTypeFile    CredentialStorageType = "file"
	CredentialStorageTypeKeyring CredentialStorageType = "keyring"
)

// Default configuration values
const (
	DefaultConfigLogFormat        = LogFormatText
	DefaultConfigAuthStorage      = CredentialStorageTypeFile
	DefaultConfigAuthRedirectPort = 8977
	DefaultConfigAPIBaseURL       = whoop.DefaultBaseURL
	DefaultConfigAPITokenURL      = whoop.DefaultTokenURL
	DefaultConfigAPIAuthURL       = whoop.DefaultAuthURL
)

// keyringService identifies this application's entry in the OS keyring.
const keyringService = "whoop-mcp-credentials"

// AuthConfig describes where the credential record lives and which OAuth
// client it belongs to.
type AuthConfig struct {
	// Storage configuration - where the credential record is persisted
	Storage CredentialStorageType `json:"storage" validate:"required,oneof=file keyring"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File        string `json:"file,omitempty"`         // For file storage: path to the credentials JSON file
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier

	// OAuth client credentials, required for any token refresh and for setup
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`

	// Optional bootstrap tokens, used only when no record is persisted yet.
	// Both are required together or neither.
	InitialAccessToken  string `json:"initial_access_token,omitempty"`
	InitialRefreshToken string `json:"initial_refresh_token,omitempty"`

	// Loopback port for the setup command's redirect listener
	RedirectPort uint16 `json:"redirect_port"`
}

// NewStore creates a credential Store from the authentication configuration.
func (a *AuthConfig) NewStore() (credentials.Store, error) {
	switch a.Storage {
	case CredentialStorageTypeFile:
		return credentials.NewFileStore(a.File)
	case CredentialStorageTypeKeyring:
		return credentials.NewKeyringStore(keyringService, a.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// APIConfig holds the WHOOP endpoint configuration.
type APIConfig struct {
	BaseURL  string `json:"base_url" validate:"required,url"`
	TokenURL string `json:"token_url" validate:"required,url"`
	AuthURL  string `json:"auth_url" validate:"required,url"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level `json:"log_level"`
	LogFormat LogFormat  `json:"log_format" validate:"oneof=text json"`
	Auth      AuthConfig `json:"auth"`
	API       APIConfig  `json:"api"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.Auth.RedirectPort == 0 {
		c.Auth.RedirectPort = DefaultConfigAuthRedirectPort
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigAPIBaseURL
	}
	if c.API.TokenURL == "" {
		c.API.TokenURL = DefaultConfigAPITokenURL
	}
	if c.API.AuthURL == "" {
		c.API.AuthURL = DefaultConfigAPIAuthURL
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case CredentialStorageTypeFile:
		if c.Auth.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.file required (auto-detect failed: %w)", err)
			}
			c.Auth.File = filepath.Join(configDir, "whoop-mcp", "credentials.json")
		}
	case CredentialStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Auth.KeyringUser = currentUser.Username
		}
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Auth.Storage {
	case CredentialStorageTypeFile:
		if c.Auth.File == "" {
			return errors.New("file path required for file storage")
		}
	case CredentialStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	}

	// Bootstrap tokens only work as a pair
	if (c.Auth.InitialAccessToken == "") != (c.Auth.InitialRefreshToken == "") {
		return errors.New("initial_access_token and initial_refresh_token are required together")
	}

	return nil
}

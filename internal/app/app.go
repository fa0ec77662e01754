package app

import (
	"context"
	"fmt"
	"log/slog"

	"whoop-mcp/internal/credentials"
	"whoop-mcp/internal/server"
	"whoop-mcp/internal/whoop"
)

// App wires configuration into the credential manager, the WHOOP client, and
// the MCP server, and owns their lifecycle.
type App struct {
	cfg    *Config
	server *server.Server
}

// New creates a new App instance. No credential I/O is performed until the
// first tool call needs a token.
func New(cfg *Config, version string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := cfg.Auth.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}

	manager, err := credentials.NewManager(store, credentials.ManagerConfig{
		ClientID:            cfg.Auth.ClientID,
		ClientSecret:        cfg.Auth.ClientSecret,
		InitialAccessToken:  cfg.Auth.InitialAccessToken,
		InitialRefreshToken: cfg.Auth.InitialRefreshToken,
		TokenURL:            cfg.API.TokenURL,
		Scopes:              whoop.OAuthScopes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create credential manager: %w", err)
	}

	client, err := whoop.NewClient(cfg.API.BaseURL, manager)
	if err != nil {
		return nil, fmt.Errorf("failed to create WHOOP client: %w", err)
	}

	return &App{
		cfg:    cfg,
		server: server.New(client, version),
	}, nil
}

// Start serves MCP over stdio and blocks until the host closes the stream or
// the context is cancelled.
func (a *App) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "serving MCP over stdio", "storage", string(a.cfg.Auth.Storage))

	if err := a.server.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	slog.InfoContext(ctx, "application stopped")
	return nil
}

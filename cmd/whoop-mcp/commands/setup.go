package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"whoop-mcp/internal/credentials"
	"whoop-mcp/internal/observability"
	"whoop-mcp/internal/whoop"
)

func setupCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "authorize this server against WHOOP and persist the credentials",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "auth--client-id",
				Usage: "WHOOP OAuth client id",
			},
			&cli.StringFlag{
				Name:  "auth--client-secret",
				Usage: "WHOOP OAuth client secret",
			},
		},
		Action: setupAction,
	}
}

// setupAction performs the one-time authorization-code exchange: it opens a
// loopback redirect listener, prints the authorization URL for the user to
// visit, exchanges the returned code, and writes the credential record the
// serve command loads on every run.
func setupAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}

	if cfg.Auth.ClientID == "" || cfg.Auth.ClientSecret == "" {
		return errors.New("client credentials required: set WHOOP_CLIENT_ID and WHOOP_CLIENT_SECRET " +
			"(create an app at https://developer.whoop.com)")
	}

	store, err := cfg.Auth.NewStore()
	if err != nil {
		return fmt.Errorf("failed to create credential store: %w", err)
	}

	redirectURL := fmt.Sprintf("http://localhost:%d/callback", cfg.Auth.RedirectPort)
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       whoop.OAuthScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.API.AuthURL,
			TokenURL:  cfg.API.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	state, err := randomState()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}

	code, err := waitForCallback(ctx, cfg.Auth.RedirectPort, state, oauthCfg.AuthCodeURL(state))
	if err != nil {
		return err
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	expiry := token.Expiry
	if expiry.IsZero() {
		// Vendor omitted expires_in; assume an hour, the 401-retry path
		// heals an optimistic guess.
		expiry = time.Now().Add(time.Hour)
	}

	rec := credentials.NewRecord(token.AccessToken, token.RefreshToken, expiry)
	if err := store.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}

	fmt.Println("Authorization complete. Credentials saved; `whoop-mcp serve` is ready to use.")
	return nil
}

// waitForCallback runs a loopback HTTP listener until WHOOP redirects back
// with an authorization code, the context is cancelled, or the authorization
// server reports an error.
func waitForCallback(ctx context.Context, port uint16, state, authURL string) (string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return "", fmt.Errorf("failed to listen on redirect port %d: %w", port, err)
	}

	type callbackResult struct {
		code string
		err  error
	}
	resultCh := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			resultCh <- callbackResult{err: errors.New("authorization response state mismatch")}
		case q.Get("error") != "":
			http.Error(w, q.Get("error"), http.StatusBadRequest)
			resultCh <- callbackResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))}
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			resultCh <- callbackResult{err: errors.New("authorization response missing code")}
		default:
			fmt.Fprintln(w, "Authorization complete. You can close this tab and return to the terminal.")
			resultCh <- callbackResult{code: q.Get("code")}
		}
	})

	server := &http.Server{Handler: mux}
	go func() { _ = server.Serve(listener) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Println("Open the following URL in your browser to authorize WHOOP access:")
	fmt.Println()
	fmt.Println("  " + authURL)
	fmt.Println()
	fmt.Println("Waiting for authorization...")

	select {
	case res := <-resultCh:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

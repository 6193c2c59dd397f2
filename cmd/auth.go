package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/likesync/internal/server"
	"github.com/desertthunder/likesync/internal/services"
	"github.com/desertthunder/likesync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthSpotify runs the full OAuth2 authorization-code flow for Spotify and
// persists the resulting tokens into the config file.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret are required (config.toml or environment)", shared.ErrMissingCredentials)
	}

	spotifyService, err := services.NewSpotifyService(creds.Map())
	if err != nil {
		return err
	}

	token, err := r.doOAuth(spotifyService, "authorization")
	if err != nil {
		return err
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return err
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	r.logger.Info("spotify tokens saved", "path", r.configPath)
	return r.writePlain("✓ Spotify authorized, tokens saved to %s\n", r.configPath)
}

// AuthStatus reports whether the cached Spotify and Yandex credentials work.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	creds := r.config.Credentials.Spotify
	switch {
	case creds.ClientID == "" || creds.ClientSecret == "":
		r.writePlain("Spotify: ✗ No client credentials configured\n")
	case creds.AccessToken == "":
		r.writePlain("Spotify: ✗ Not authorized (run `likesync auth spotify`)\n")
	default:
		spotifyService, err := services.NewSpotifyService(creds.Map())
		if err != nil {
			return err
		}
		if err := spotifyService.Authenticate(ctx, creds.Map()); err != nil {
			return err
		}
		if profile, err := spotifyService.UserProfile(ctx); err != nil {
			r.writePlain("Spotify: ✗ Token rejected: %v\n", err)
		} else {
			r.writePlain("Spotify: ✓ Authenticated as %s\n", profile.DisplayName)
		}
	}

	if r.config.Credentials.Yandex.Token == "" {
		r.writePlain("Yandex Music: ✗ No token configured\n")
		return nil
	}
	if r.yandex == nil {
		return fmt.Errorf("%w: yandex music client not initialized", shared.ErrServiceUnavailable)
	}
	if err := r.yandex.Authenticate(ctx, nil); err != nil {
		r.writePlain("Yandex Music: ✗ Token rejected: %v\n", err)
		return nil
	}

	return r.writePlain("Yandex Music: ✓ Authenticated\n")
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
// listening on the configured redirect address.
func (r *Runner) doOAuth(oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthConfig := oauthSrv.OAuthConfig()

	redirect, err := url.Parse(oauthConfig.RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: invalid redirect URI %q", shared.ErrInvalidConfig, oauthConfig.RedirectURL)
	}

	callbackHandler := server.NewCallbackHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(callbackHandler)

	httpServer := &http.Server{
		Addr:    redirect.Host,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, redirect.Host)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-callbackHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

// authCommand handles service authorization
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Spotify and check credential status",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Run the Spotify OAuth flow and save tokens",
				Action: r.AuthSpotify,
			},
			{
				Name:   "status",
				Usage:  "Check Spotify and Yandex Music credentials",
				Action: r.AuthStatus,
			},
		},
	}
}

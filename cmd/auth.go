package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/liverslices/spotify-automation/internal/server"
	"github.com/liverslices/spotify-automation/internal/services"
	"github.com/liverslices/spotify-automation/internal/shared"
	"github.com/liverslices/spotify-automation/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// tokenOutput is the token response printed by the token command.
type tokenOutput struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

// Token performs the OAuth2 authorization code flow and stores the refresh token.
//
// A loopback http redirect URI gets a temporary callback server; any other
// redirect URI asks the user to paste the URL the browser was sent to.
func (r *Runner) Token(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Require(shared.KeyClientID, shared.KeyClientSecret); err != nil {
		return err
	}

	srv, err := r.newService(r.logger)
	if err != nil {
		return err
	}

	state := shared.GenerateState()
	authURL := srv.AuthURL(state)
	redirectURI := r.config.Spotify.RedirectURI

	var token *oauth2.Token
	if addr, path, ok := server.LoopbackCallback(redirectURI); ok {
		token, err = r.callbackFlow(ctx, srv, state, addr, path, authURL, cmd.Duration("timeout"))
	} else {
		token, err = r.pasteFlow(ctx, srv, state, authURL, redirectURI)
	}
	if err != nil {
		return err
	}

	out := tokenOutput{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
	}
	if scope, ok := token.Extra("scope").(string); ok {
		out.Scope = scope
	}
	if !token.Expiry.IsZero() {
		out.ExpiresAt = token.Expiry.UTC().Format(time.RFC3339)
	}
	if err := r.writeJSON(out, true); err != nil {
		return err
	}

	if token.RefreshToken == "" {
		r.writePlainln("%s", ui.Styles.Warn("⚠ No refresh token was returned."))
		r.writePlain("Revoke the app's access in your Spotify account settings and run the token command again.\n")
		return nil
	}

	if cmd.Bool("no-save") {
		r.logger.Info("refresh token not saved", "reason", "--no-save")
		return nil
	}

	if err := shared.SaveRefreshToken(r.configPath, r.config, token.RefreshToken); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}

	r.logger.Info("refresh token saved", "path", r.configPath)
	r.writePlainln("%s", ui.Styles.OK("✓ Refresh token saved to "+r.configPath))
	return nil
}

func (r *Runner) announce(authURL string) {
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("%s", ui.Styles.Warn("⚠ Could not open browser automatically."))
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}
}

// callbackFlow captures the authorization code with a local HTTP server.
func (r *Runner) callbackFlow(ctx context.Context, srv *services.SpotifyService, state, addr, path, authURL string, timeout time.Duration) (*oauth2.Token, error) {
	oauthHandler := server.NewOAuthHandler(srv, state, path)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(oauthHandler)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", addr)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.announce(authURL)
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}
	return result.Token, nil
}

// pasteFlow asks for the redirected URL and exchanges the code it carries.
func (r *Runner) pasteFlow(ctx context.Context, srv *services.SpotifyService, state, authURL, redirectURI string) (*oauth2.Token, error) {
	r.announce(authURL)
	r.writePlain("After approving, your browser is sent to %s.\n", redirectURI)

	raw, err := ui.Prompt(ctx, r.input, r.output, "Paste the full URL you were redirected to", redirectURI+"?code=...")
	if err != nil {
		return nil, err
	}

	code, err := server.CodeFromURL(raw, state)
	if err != nil {
		return nil, err
	}

	return srv.Exchange(ctx, code)
}

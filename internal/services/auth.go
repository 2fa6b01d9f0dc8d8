package services

import (
	"context"
	"errors"
	"net/url"

	"github.com/liverslices/spotify-automation/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthConfig returns the [oauth2.Config] used for authorization and token exchange.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// AuthURL returns the OAuth2 authorization URL the user opens to grant offline access.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access and refresh token pair.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return nil, tokenError("exchange authorization code", err)
	}
	return token, nil
}

// Authenticate swaps the long-lived refresh token for a short-lived bearer token.
//
// The bearer token is kept for every subsequent request and also returned.
func (s *SpotifyService) Authenticate(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", shared.NewError(shared.KindConfig, "missing refresh token", 0, nil, nil)
	}

	source := s.config.TokenSource(s.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return "", tokenError("refresh access token", err)
	}

	s.token = token.AccessToken
	return s.token, nil
}

// SetAccessToken uses an already issued bearer token for subsequent requests.
func (s *SpotifyService) SetAccessToken(accessToken string) {
	s.token = accessToken
}

// oauthContext makes the oauth2 package use the service's HTTP client.
func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// tokenError classifies token endpoint failures: rejected requests are authentication errors, transport failures network errors.
func tokenError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return shared.NewError(shared.KindAuth, op, status, retrieveErr.Body, nil)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return shared.NewError(shared.KindNetwork, op, 0, nil, err)
	}

	return shared.NewError(shared.KindAuth, op, 0, nil, err)
}

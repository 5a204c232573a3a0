//
// Date: 2026-10-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Authentication logic for the Spotify OAuth authorization-code flow.
//

package spotify

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

// Scopes requested at login.
var Scopes = []string{
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopeUserTopRead,
}

// Authenticator builds the authorize URL and talks to the Spotify token
// endpoint. Token requests use HTTP Basic auth with the client credentials.
type Authenticator struct {
	auth       *spotifyauth.Authenticator
	httpClient *http.Client
}

// NewAuthenticator initializes the Spotify authenticator with the configured
// credentials. httpClient is used for every token request.
func NewAuthenticator(cfg SpotifyConfig, httpClient *http.Client) *Authenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Authenticator{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
			spotifyauth.WithRedirectURL(cfg.RedirectURI),
			spotifyauth.WithScopes(Scopes...),
		),
		httpClient: httpClient,
	}
}

// AuthURL returns the URL the user is sent to for consent. It carries
// response_type, client_id, scope and redirect_uri.
func (a *Authenticator) AuthURL() string {
	return a.auth.AuthURL("")
}

// Exchange trades an authorization code for an access/refresh token pair.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	tok, err := a.auth.Exchange(a.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	return tok, nil
}

// Refresh uses the refresh token in tok to obtain a new access token. When
// the provider does not rotate the refresh token the old one is kept.
func (a *Authenticator) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok == nil || tok.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	// Force the token source to hit the token endpoint
	expired := *tok
	expired.AccessToken = ""

	fresh, err := a.auth.RefreshToken(a.withClient(ctx), &expired)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}

	return fresh, nil
}

// withClient makes x/oauth2 send its requests through our HTTP client.
func (a *Authenticator) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

//
// Date: 2026-10-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Type definitions and interfaces for the now-playing server.
//

package spotify

import (
	"context"

	"golang.org/x/oauth2"

	spotifyLib "github.com/zmb3/spotify/v2"
)

// Client defines the Spotify Web API operations the server uses.
// This allows for mocking in tests.
type Client interface {
	PlayerCurrentlyPlaying(ctx context.Context, opts ...spotifyLib.RequestOption) (*spotifyLib.CurrentlyPlaying, error)
}

// ClientFactory builds a Client that authenticates with token.
type ClientFactory func(ctx context.Context, token *oauth2.Token) Client

// NowPlaying is the simplified JSON contract for /api/now-playing. When
// nothing is playing Track is nil and only isPlaying is encoded.
type NowPlaying struct {
	IsPlaying bool `json:"isPlaying"`
	*Track
}

// Track describes the item currently on the player.
type Track struct {
	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName"`
	AlbumName  string `json:"albumName"`
	AlbumArt   string `json:"albumArt,omitempty"`
	TrackURL   string `json:"trackUrl"`
}

// HealthResponse is returned by /api/health.
type HealthResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
}

// DebugTokenResponse is returned by /api/debug/token. AccessToken is null
// when no token is stored.
type DebugTokenResponse struct {
	AccessToken *string `json:"accessToken"`
	HasToken    bool    `json:"hasToken"`
}

// ErrorResponse represents a JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

//
// Date: 2026-10-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Currently playing lookup and reshaping into the NowPlaying contract.
//

package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	spotifyLib "github.com/zmb3/spotify/v2"
)

// NewClient returns a Spotify Web API client that sends the token as a
// bearer credential. The token is used as-is and never refreshed here.
func NewClient(httpClient *http.Client) ClientFactory {
	return func(ctx context.Context, token *oauth2.Token) Client {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}

		client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
		client.Transport = &unauthorizedTransport{base: client.Transport}

		return spotifyLib.New(client)
	}
}

// unauthorizedError reports a 401 from the Web API whatever its body held.
type unauthorizedError struct {
	body string
}

// Error implements error.
func (e *unauthorizedError) Error() string {
	if e.body == "" {
		return "spotify: 401 Unauthorized"
	}
	return "spotify: 401 Unauthorized: " + e.body
}

// unauthorizedTransport turns a 401 response into an unauthorizedError so it
// is recognised even when Spotify sends no JSON error object.
type unauthorizedTransport struct {
	base http.RoundTripper
}

// RoundTrip sends the request and intercepts 401 responses.
func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	return nil, &unauthorizedError{body: strings.TrimSpace(string(body))}
}

// FetchNowPlaying asks Spotify what the user is playing. A 401 from Spotify
// is reported as ErrTokenExpired, every other failure as ErrUpstream.
func FetchNowPlaying(ctx context.Context, client Client) (NowPlaying, error) {
	playing, err := client.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		if isUnauthorized(err) {
			return NowPlaying{}, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return NowPlaying{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return Snapshot(playing), nil
}

// isUnauthorized reports whether err came from a 401 response.
func isUnauthorized(err error) bool {
	var statusErr *unauthorizedError
	if errors.As(err, &statusErr) {
		return true
	}

	var apiErr spotifyLib.Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Snapshot converts Spotify's currently playing object. A nil object or one
// without an item (Spotify answers 204 when idle) means nothing is playing.
func Snapshot(playing *spotifyLib.CurrentlyPlaying) NowPlaying {
	if playing == nil || playing.Item == nil {
		return NowPlaying{IsPlaying: false}
	}

	item := playing.Item

	names := make([]string, 0, len(item.Artists))
	for _, artist := range item.Artists {
		names = append(names, artist.Name)
	}

	track := &Track{
		TrackName:  item.Name,
		ArtistName: strings.Join(names, ", "),
		AlbumName:  item.Album.Name,
		TrackURL:   item.ExternalURLs["spotify"],
	}

	// Spotify lists album images largest first
	if len(item.Album.Images) > 0 {
		track.AlbumArt = item.Album.Images[0].URL
	}

	return NowPlaying{
		IsPlaying: playing.Playing,
		Track:     track,
	}
}

//
// Date: 2026-10-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Shared test helpers: a mock Web API client, a fake Spotify
// provider and a transport that routes Spotify hosts to it.
//

package spotify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"golang.org/x/oauth2"

	spotifyLib "github.com/zmb3/spotify/v2"
)

// MockClient is a mock implementation of the Client interface for testing.
type MockClient struct {
	// PlayerCurrentlyPlaying mock
	PlayerCurrentlyPlayingFunc func(ctx context.Context, opts ...spotifyLib.RequestOption) (*spotifyLib.CurrentlyPlaying, error)
}

// PlayerCurrentlyPlaying returns the currently playing object.
func (m *MockClient) PlayerCurrentlyPlaying(ctx context.Context, opts ...spotifyLib.RequestOption) (*spotifyLib.CurrentlyPlaying, error) {
	if m.PlayerCurrentlyPlayingFunc != nil {
		return m.PlayerCurrentlyPlayingFunc(ctx, opts...)
	}
	return &spotifyLib.CurrentlyPlaying{}, nil
}

// mockFactory returns a ClientFactory that always hands out client and
// records the tokens it was asked to use.
func mockFactory(client Client, seen *[]string) ClientFactory {
	return func(ctx context.Context, token *oauth2.Token) Client {
		if seen != nil {
			*seen = append(*seen, token.AccessToken)
		}
		return client
	}
}

// failingFactory fails the test if the server tries to call Spotify.
func failingFactory(t *testing.T) ClientFactory {
	return func(ctx context.Context, token *oauth2.Token) Client {
		t.Helper()
		t.Fatal("unexpected call to the Spotify Web API")
		return nil
	}
}

// currentlyPlaying builds a CurrentlyPlaying object from raw Spotify JSON.
func currentlyPlaying(t *testing.T, raw string) *spotifyLib.CurrentlyPlaying {
	t.Helper()
	var cp spotifyLib.CurrentlyPlaying
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		t.Fatalf("failed to build currently playing fixture: %v", err)
	}
	return &cp
}

// fakeProvider stands in for accounts.spotify.com and api.spotify.com.
type fakeProvider struct {
	*httptest.Server

	mu            sync.Mutex
	tokenRequests []url.Values
	basicUser     string
	basicPass     string
	bearer        string

	// tokenStatus and tokenBody answer POST /api/token.
	tokenStatus int
	tokenBody   string

	// playingStatus and playingBody answer GET /v1/me/player/currently-playing.
	playingStatus int
	playingBody   string
}

// newFakeProvider starts a provider that issues {access_token:"A", refresh_token:"B"}.
func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	p := &fakeProvider{
		tokenStatus:   http.StatusOK,
		tokenBody:     `{"access_token":"A","refresh_token":"B","token_type":"Bearer"}`,
		playingStatus: http.StatusNoContent,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p.mu.Lock()
		p.tokenRequests = append(p.tokenRequests, r.PostForm)
		p.basicUser, p.basicPass, _ = r.BasicAuth()
		status, body := p.tokenStatus, p.tokenBody
		p.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	})
	mux.HandleFunc("GET /v1/me/player/currently-playing", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.bearer = r.Header.Get("Authorization")
		status, body := p.playingStatus, p.playingBody
		p.mu.Unlock()

		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	})

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)

	return p
}

// TokenRequests returns the forms posted to the token endpoint.
func (p *fakeProvider) TokenRequests() []url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]url.Values(nil), p.tokenRequests...)
}

// BasicAuth returns the credentials of the last token request.
func (p *fakeProvider) BasicAuth() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.basicUser, p.basicPass
}

// Bearer returns the Authorization header of the last Web API request.
func (p *fakeProvider) Bearer() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bearer
}

// HTTPClient returns a client that sends every Spotify request to p.
func (p *fakeProvider) HTTPClient() *http.Client {
	target, _ := url.Parse(p.URL)
	return &http.Client{Transport: &rewriteTransport{target: target}}
}

// rewriteTransport points every request at target, keeping path and query.
type rewriteTransport struct {
	target *url.URL
}

// RoundTrip rewrites the request URL and sends it with the default transport.
func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	r.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

// testConfig returns a valid config with no static directory.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Spotify.ClientID = "test-client-id"
	cfg.Spotify.ClientSecret = "test-client-secret"
	cfg.Server.StaticDir = ""
	cfg.Server.Rate = 0
	return cfg
}

// newTestServer builds a Server with a quiet logger.
func newTestServer(cfg *Config, opts ...Option) *Server {
	opts = append([]Option{WithLogger(NewLogger(io.Discard, "error"))}, opts...)
	return NewServer(cfg, NewSession(), opts...)
}

// serve runs a GET through the full handler stack.
func serve(s *Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

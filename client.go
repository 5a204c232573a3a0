//
// Date: 2026-10-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Small client the CLI uses to query a running server.
//

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudmanic/spotify-now-playing/spotify"
)

// apiClient talks to the JSON endpoints of a running server.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

// newClient creates a client for baseURL. A nil httpClient gets the default
// upstream timeout.
func newClient(baseURL string, httpClient *http.Client) *apiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: spotify.DefaultTimeout}
	}
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Health fetches /api/health.
func (c *apiClient) Health(ctx context.Context) (*spotify.HealthResponse, error) {
	var health spotify.HealthResponse
	if err := c.get(ctx, "/api/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// NowPlaying fetches /api/now-playing.
func (c *apiClient) NowPlaying(ctx context.Context) (*spotify.NowPlaying, error) {
	var playing spotify.NowPlaying
	if err := c.get(ctx, "/api/now-playing", &playing); err != nil {
		return nil, err
	}
	return &playing, nil
}

// get performs a GET and decodes the JSON body into result. Non-200
// responses are turned into errors carrying the server's message.
func (c *apiClient) get(ctx context.Context, path string, result any) error {
	ctx, cancel := context.WithTimeout(ctx, spotify.DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr spotify.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s (visit %s/login)", spotify.ErrNotAuthenticated, apiErr.Error, c.baseURL)
		}
		return fmt.Errorf("%w: status %d: %s", spotify.ErrUpstream, resp.StatusCode, apiErr.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

//
// Date: 2026-10-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Sentinel errors shared by the auth, session and server code.
//

package spotify

import "errors"

var (
	// Configuration errors
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidConfig      = errors.New("invalid configuration")

	// Authentication errors
	ErrMissingCode      = errors.New("no authorization code received")
	ErrExchangeFailed   = errors.New("token exchange failed")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTokenExpired     = errors.New("access token expired")
	ErrRefreshFailed    = errors.New("token refresh failed")
	ErrNoRefreshToken   = errors.New("no refresh token available")

	// Upstream API errors
	ErrUpstream = errors.New("spotify API request failed")
)

//
// Date: 2026-10-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: In-memory credential store for the single local user.
//

package spotify

import (
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// AuthState describes where the session is in the login lifecycle.
type AuthState int

const (
	Unauthenticated AuthState = iota
	Authenticated
	Expired
)

// String returns a readable name for the state.
func (s AuthState) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "unauthenticated"
	}
}

// Session holds the access/refresh token pair for the process. There is one
// per server and it is shared by every handler, so all access goes through
// the mutex. Tokens are never persisted.
type Session struct {
	mu    sync.RWMutex
	token *oauth2.Token
	now   func() time.Time
}

// NewSession returns an empty, unauthenticated session.
func NewSession() *Session {
	return &Session{now: time.Now}
}

// Store replaces the credential pair. A token without an access token
// clears the session so both fields stay set together.
func (s *Session) Store(token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == nil || token.AccessToken == "" {
		s.token = nil
		return
	}

	tok := *token
	s.token = &tok
}

// Replace stores token only if the session still holds old, compared by
// access and refresh token. It reports whether the swap happened, so a slow
// refresh cannot overwrite a newer login.
func (s *Session) Replace(old, token *oauth2.Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old == nil || s.token == nil ||
		s.token.AccessToken != old.AccessToken ||
		s.token.RefreshToken != old.RefreshToken {
		return false
	}

	if token == nil || token.AccessToken == "" {
		s.token = nil
		return true
	}

	tok := *token
	s.token = &tok
	return true
}

// Token returns a copy of the stored token, or nil when none is stored.
func (s *Session) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return nil
	}
	tok := *s.token
	return &tok
}

// AccessToken returns the stored access token or "".
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// RefreshToken returns the stored refresh token or "".
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return ""
	}
	return s.token.RefreshToken
}

// HasToken reports whether an access token is stored.
func (s *Session) HasToken() bool {
	return s.AccessToken() != ""
}

// State reports the current auth state.
func (s *Session) State() AuthState {
	_, state := s.Current()
	return state
}

// Current returns a copy of the stored token together with the auth state,
// read under one lock. A token is only considered expired when the provider
// told us its lifetime and that time has passed.
func (s *Session) Current() (*oauth2.Token, AuthState) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return nil, Unauthenticated
	}

	tok := *s.token
	if !tok.Expiry.IsZero() && !s.now().Before(tok.Expiry) {
		return &tok, Expired
	}
	return &tok, Authenticated
}

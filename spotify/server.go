//
// Date: 2026-10-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: HTTP server and request handlers for login, callback and the
// now-playing API.
//

package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	upstreamBurst   = 5
	shutdownTimeout = 5 * time.Second

	msgNoCode        = "Error: No authorization code received"
	msgAuthError     = "Error during authentication"
	msgNotAuth       = "Not authenticated"
	msgTokenExpired  = "Token expired, please login again"
	msgFetchFailed   = "Failed to fetch currently playing track"
	requestIDHeader  = "X-Request-ID"
	contentTypeJSON  = "application/json"
	contentTypePlain = "text/plain; charset=utf-8"
)

// Server serves the login flow and the now-playing API for one user.
type Server struct {
	cfg        *Config
	session    *Session
	auth       *Authenticator
	logger     *log.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
	newClient  ClientFactory

	// refreshMu allows one refresh grant at a time
	refreshMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithHTTPClient sets the client used for every call to Spotify.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Server) { s.httpClient = client }
}

// WithClientFactory replaces how Web API clients are built. Used by tests.
func WithClientFactory(factory ClientFactory) Option {
	return func(s *Server) { s.newClient = factory }
}

// NewServer wires a Server around cfg and the session it owns for the
// lifetime of the process.
func NewServer(cfg *Config, session *Session, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		session: session,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = NewLogger(nil, cfg.Server.LogLevel)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: cfg.Server.Timeout}
	}
	if s.newClient == nil {
		s.newClient = NewClient(s.httpClient)
	}
	if s.session == nil {
		s.session = NewSession()
	}

	limit := rate.Inf
	if cfg.Server.Rate > 0 {
		limit = rate.Limit(cfg.Server.Rate)
	}
	s.limiter = rate.NewLimiter(limit, upstreamBurst)
	s.auth = NewAuthenticator(cfg.Spotify, s.httpClient)

	return s
}

// Session returns the session the server reads and writes.
func (s *Server) Session() *Session {
	return s.session
}

// Routes lists the endpoints the server exposes, for display at startup.
func (s *Server) Routes() []string {
	routes := []string{
		"GET /login",
		"GET /callback",
		"GET /api/now-playing",
		"GET /api/health",
	}
	if s.cfg.Server.DebugEndpoints {
		routes = append(routes, "GET /api/debug/token")
	}
	return routes
}

// Handler builds the routed, logged HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", s.HandleLogin)
	mux.HandleFunc("GET /callback", s.HandleCallback)
	mux.HandleFunc("GET /api/now-playing", s.HandleNowPlaying)
	mux.HandleFunc("GET /api/health", s.HandleHealth)

	if s.cfg.Server.DebugEndpoints {
		mux.HandleFunc("GET /api/debug/token", s.HandleDebugToken)
	}

	mux.Handle("/", s.staticHandler())

	return s.loggingMiddleware(mux)
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Server.DebugEndpoints {
		s.logger.Warn("debug endpoints enabled: /api/debug/token exposes the live access token")
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("server listening", "url", s.cfg.BaseURL())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// HandleLogin redirects the user to Spotify's authorization page.
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.auth.AuthURL(), http.StatusFound)
}

// HandleCallback exchanges the authorization code Spotify sends back for a
// token pair, stores it and forwards the browser to the dashboard.
func (s *Server) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		if reason := r.URL.Query().Get("error"); reason != "" {
			s.logger.Warn("authorization denied", "error", reason)
		}
		writeText(w, http.StatusBadRequest, msgNoCode)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Server.Timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Error("error getting access token", "err", err)
		writeText(w, http.StatusBadGateway, msgAuthError)
		return
	}

	tok, err := s.auth.Exchange(ctx, code)
	if err != nil {
		s.logUpstreamError("error getting access token", err)
		writeText(w, http.StatusBadGateway, msgAuthError)
		return
	}

	s.session.Store(tok)
	s.logger.Info("successfully authenticated with Spotify")

	http.Redirect(w, r, s.cfg.Server.DashboardPath, http.StatusFound)
}

// HandleNowPlaying returns the simplified currently playing track.
func (s *Server) HandleNowPlaying(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Server.Timeout)
	defer cancel()

	tok, err := s.currentToken(ctx)
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: msgNotAuth})
		return
	case err != nil:
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: msgTokenExpired})
		return
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Error("error fetching now playing", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgFetchFailed})
		return
	}

	playing, err := FetchNowPlaying(ctx, s.newClient(ctx, tok))
	switch {
	case errors.Is(err, ErrTokenExpired):
		s.logger.Warn("spotify rejected the access token")
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: msgTokenExpired})
		return
	case err != nil:
		s.logger.Error("error fetching now playing", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgFetchFailed})
		return
	}

	writeJSON(w, http.StatusOK, playing)
}

// HandleHealth reports liveness and whether a token is stored.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Authenticated: s.session.HasToken(),
	})
}

// HandleDebugToken returns the raw stored access token. Only registered when
// debug endpoints are enabled; never expose it beyond local development.
func (s *Server) HandleDebugToken(w http.ResponseWriter, r *http.Request) {
	resp := DebugTokenResponse{}
	if tok := s.session.AccessToken(); tok != "" {
		resp.AccessToken = &tok
		resp.HasToken = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// currentToken returns a usable access token. An expired token is refreshed
// first when a refresh token is stored.
func (s *Server) currentToken(ctx context.Context) (*oauth2.Token, error) {
	tok, state := s.session.Current()

	switch state {
	case Unauthenticated:
		return nil, ErrNotAuthenticated
	case Expired:
		return s.refresh(ctx)
	}

	return tok, nil
}

// refresh runs the refresh grant for an expired token. Concurrent callers
// wait for the one in flight and reuse its result.
func (s *Server) refresh(ctx context.Context) (*oauth2.Token, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another request may have refreshed, or a new login landed, while we waited
	tok, state := s.session.Current()
	switch state {
	case Unauthenticated:
		return nil, ErrNotAuthenticated
	case Authenticated:
		return tok, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	}

	fresh, err := s.auth.Refresh(ctx, tok)
	if err != nil {
		s.logUpstreamError("error refreshing access token", err)
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	}

	if !s.session.Replace(tok, fresh) {
		s.logger.Info("session changed during refresh, keeping the newer token")
		current, state := s.session.Current()
		if state == Unauthenticated {
			return nil, ErrNotAuthenticated
		}
		return current, nil
	}

	s.logger.Info("refreshed access token")
	return fresh, nil
}

// staticHandler serves the public directory when it exists.
func (s *Server) staticHandler() http.Handler {
	dir := s.cfg.Server.StaticDir
	if dir == "" {
		return http.NotFoundHandler()
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.logger.Debug("static directory not found, serving API only", "dir", dir)
		return http.NotFoundHandler()
	}
	return http.FileServer(http.Dir(dir))
}

// logUpstreamError logs a failed call to Spotify with the response detail
// when the token endpoint sent one.
func (s *Server) logUpstreamError(msg string, err error) {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		s.logger.Error(msg,
			"status", retrieveErr.Response.StatusCode,
			"body", string(retrieveErr.Body),
		)
		return
	}
	s.logger.Error(msg, "err", err)
}

// loggingResponseWriter wraps http.ResponseWriter to capture the status code.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it.
func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware tags each request with an ID and logs it.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		// Wrap the response writer to capture status code
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.statusCode,
			"duration", time.Since(start),
			"request_id", id,
		)
	})
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeText writes a plain text response with the given status.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", contentTypePlain)
	w.WriteHeader(status)
	fmt.Fprint(w, msg)
}

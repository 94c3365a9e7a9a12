// Package server hosts a speed-launch guide as a local web page whose state
// lives in a state.Store and is kept live over a websocket.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/livetemplate/speedlaunch"
	"github.com/livetemplate/speedlaunch/internal/assets"
	"github.com/livetemplate/speedlaunch/internal/config"
	"github.com/livetemplate/speedlaunch/internal/state"
	"go.uber.org/zap"
)

// defaultMaxIPs caps the rate limiter's per-IP table.
const defaultMaxIPs = 1024

// Server is the single-session speed-launch host.
type Server struct {
	config   *config.Config
	store    *state.Store
	renderer *Renderer
	hub      *Hub
	logger   *zap.Logger

	mu        sync.RWMutex
	guide     *speedlaunch.Guide
	guidePath string // empty when serving the embedded guide

	broadcastMu sync.Mutex
	unsubscribe func()
	watcher     *Watcher
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration. The default is config.DefaultConfig().
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGuidePath records the file the guide was loaded from, enabling Reload
// and EnableWatch.
func WithGuidePath(path string) Option {
	return func(s *Server) {
		s.guidePath = path
	}
}

// New creates a server for guide backed by store. The store is initialized
// if it has not been already; it stays owned by the caller.
func New(guide *speedlaunch.Guide, store *state.Store, opts ...Option) (*Server, error) {
	if guide == nil {
		return nil, fmt.Errorf("server: nil guide")
	}
	if store == nil {
		return nil, fmt.Errorf("server: nil store")
	}

	s := &Server{
		config: config.DefaultConfig(),
		store:  store,
		guide:  guide,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("server")
	s.hub = NewHub(s.logger)

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	s.renderer = renderer

	store.Initialize()
	s.unsubscribe = store.Subscribe(func(state.Snapshot) {
		s.broadcastState()
	})
	return s, nil
}

// Guide returns the guide currently being served.
func (s *Server) Guide() *speedlaunch.Guide {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guide
}

// SetGuide replaces the served guide.
func (s *Server) SetGuide(g *speedlaunch.Guide) {
	s.mu.Lock()
	s.guide = g
	s.mu.Unlock()
}

// Reload re-parses the guide file and tells clients to reload. On a parse
// error the previous guide stays in place.
func (s *Server) Reload() error {
	if s.guidePath == "" {
		return fmt.Errorf("server: serving the embedded guide, nothing to reload")
	}
	g, err := speedlaunch.ParseFile(s.guidePath)
	if err != nil {
		return err
	}
	s.SetGuide(g)
	s.BroadcastReload(s.guidePath)
	return nil
}

// Handler wraps the server in its middleware chain: security headers, gzip
// and a per-IP rate limit on /api/. The returned channel closes once the
// rate limiter's cleanup goroutine exits after ctx is cancelled.
func (s *Server) Handler(ctx context.Context) (http.Handler, <-chan struct{}) {
	rateLimit, done := RateLimitMiddleware(ctx,
		s.config.API.GetRateLimitRPS(),
		s.config.API.GetRateLimitBurst(),
		defaultMaxIPs,
		s.logger,
	)
	limited := rateLimit(s)

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			limited.ServeHTTP(w, r)
			return
		}
		s.ServeHTTP(w, r)
	})
	h = WithCompression(h)
	h = SecurityHeadersMiddleware()(h)
	return h, done
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/ws":
		s.handleWebSocket(w, r)
	case r.URL.Path == "/api/state":
		s.handleState(w, r)
	case r.URL.Path == "/api/actions":
		s.handleActions(w, r)
	case r.URL.Path == "/api/progress":
		s.handleProgress(w, r)
	case strings.HasPrefix(r.URL.Path, "/assets/"):
		s.serveAsset(w, r)
	case r.URL.Path == "/":
		s.servePage(w, r)
	default:
		// Single-page app: send unknown paths home instead of 404
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// servePage renders the full page for the current snapshot.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	html, err := s.renderer.Page(s.Guide(), s.store.Snapshot())
	if err != nil {
		s.logger.Error("render failed", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(html)
}

// serveAsset serves embedded client assets.
func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/assets/")
	data, contentType, err := assets.GetClientAsset(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

// EnableWatch reloads the guide whenever its file changes.
func (s *Server) EnableWatch() error {
	if s.guidePath == "" {
		return fmt.Errorf("server: serving the embedded guide, nothing to watch")
	}
	watcher, err := NewWatcher(s.guidePath, func(string) error {
		return s.Reload()
	}, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	s.watcher = watcher
	s.watcher.Start()

	s.logger.Info("watching guide", zap.String("file", s.guidePath))
	return nil
}

// StopWatch stops the file watcher if it's running.
func (s *Server) StopWatch() error {
	if s.watcher != nil {
		err := s.watcher.Stop()
		s.watcher = nil
		return err
	}
	return nil
}

// Close detaches from the store, stops watching and drops every websocket.
func (s *Server) Close() error {
	s.unsubscribe()
	err := s.StopWatch()
	s.hub.CloseAll()
	return err
}

// Package server assembles the HTTP handler tree and runs it.
package server

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/blocks/internal/config"
	"github.com/dmitrymomot/blocks/internal/dispatch"
	"github.com/dmitrymomot/blocks/middlewares"
	"github.com/dmitrymomot/blocks/pkg/cache"
	"github.com/dmitrymomot/blocks/pkg/health"
	"github.com/dmitrymomot/blocks/pkg/hostrouter"
	"github.com/dmitrymomot/blocks/pkg/request"
)

const (
	livenessPath  = "/health/live"
	readinessPath = "/health/ready"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for the server, classifier and error handler.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFormatCache sets the cache detected URL formats are stored in.
// Without one, an in-memory cache is used and closed on shutdown.
func WithFormatCache(c cache.Cache[request.URLFormat]) Option {
	return func(s *Server) {
		s.formats = c
	}
}

// WithProber replaces the HTTP path-info prober.
func WithProber(p request.Prober) Option {
	return func(s *Server) {
		s.prober = p
	}
}

// WithSite sets the site handler. Default: EchoHandler.
func WithSite(h http.Handler) Option {
	return func(s *Server) {
		s.site = h
	}
}

// WithControlPanel sets the control-panel handler. Default: EchoHandler.
func WithControlPanel(h http.Handler) Option {
	return func(s *Server) {
		s.cp = h
	}
}

// WithAction registers an action handler.
func WithAction(route string, h dispatch.HandlerFunc) Option {
	return func(s *Server) {
		s.actions[route] = h
	}
}

// WithResources replaces the resources directory from config.
func WithResources(fsys fs.FS) Option {
	return func(s *Server) {
		s.resources = fsys
	}
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) Option {
	return func(s *Server) {
		s.checks[name] = fn
	}
}

// WithStartupHook runs fn before the listener accepts connections.
func WithStartupHook(fn func(context.Context) error) Option {
	return func(s *Server) {
		s.startupHooks = append(s.startupHooks, fn)
	}
}

// WithShutdownHook runs fn after the HTTP server has stopped.
// Hooks run in registration order.
func WithShutdownHook(fn func(context.Context) error) Option {
	return func(s *Server) {
		s.shutdownHooks = append(s.shutdownHooks, fn)
	}
}

// Server is the assembled application.
type Server struct {
	cfg        config.Config
	logger     *slog.Logger
	formats    cache.Cache[request.URLFormat]
	prober     request.Prober
	resources  fs.FS
	site       http.Handler
	cp         http.Handler
	actions    map[string]dispatch.HandlerFunc
	checks     health.Checks
	classifier *request.Classifier
	handler    http.Handler

	startupHooks  []func(context.Context) error
	shutdownHooks []func(context.Context) error
}

// New wires the classifier, dispatcher and router from cfg.
func New(cfg config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		actions: make(map[string]dispatch.HandlerFunc),
		checks:  make(health.Checks),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.formats == nil {
		mem := cache.NewMemory[request.URLFormat](cache.DefaultMemoryConfig())
		s.formats = mem
		s.shutdownHooks = append(s.shutdownHooks, func(context.Context) error { return mem.Close() })
	}
	if _, ok := s.checks["cache"]; !ok {
		s.checks["cache"] = health.CacheCheck(s.formats, "health:"+request.CacheKey, request.FormatAuto)
	}
	if s.resources == nil && cfg.Server.ResourcesPath != "" {
		s.resources = os.DirFS(cfg.Server.ResourcesPath)
	}
	if s.site == nil {
		s.site = EchoHandler()
	}
	if s.cp == nil {
		s.cp = EchoHandler()
	}

	classifierOpts := []request.Option{
		request.WithCache(s.formats),
		request.WithLogger(s.logger),
	}
	if s.prober != nil {
		classifierOpts = append(classifierOpts, request.WithProber(s.prober))
	}
	s.classifier = request.New(cfg.Request, classifierOpts...)

	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Classifier returns the request classifier.
func (s *Server) Classifier() *request.Classifier {
	return s.classifier
}

func (s *Server) routes() http.Handler {
	dispatchOpts := []dispatch.Option{
		dispatch.WithLogger(s.logger),
		dispatch.WithSite(s.site),
		dispatch.WithControlPanel(s.cp),
		dispatch.WithSessionCookie(s.cfg.Server.SessionCookie),
	}
	if s.resources != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithResources(s.resources))
	}
	for route, h := range s.actions {
		dispatchOpts = append(dispatchOpts, dispatch.WithAction(route, h))
	}
	d := dispatch.New(dispatchOpts...)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestID())
	// The error handler logs the panic with its stack; a recover logger
	// would report it twice.
	r.Use(middlewares.Recover(middlewares.WithRecoverErrorHandler(d.ErrorHandler().Handle)))

	r.Get(livenessPath, health.LivenessHandler())
	r.Get(readinessPath, health.ReadinessHandler(s.checks, health.WithLogger(s.logger)))
	if probe := strings.Trim(s.cfg.Request.ProbePath, "/"); probe != "" {
		r.Get("/"+probe, ProbeHandler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middlewares.ControlPanel(hostrouter.NewMatcher(s.cfg.Server.CPHosts...), s.cfg.Server.CPPathPrefix))
		r.Use(middlewares.Classify(s.classifier))
		r.Use(middlewares.CanonicalURL())
		r.Handle("/*", d)
	})

	return r
}

// ProbeHandler answers the path-info self-probe. Reaching it through a
// path-info URL proves the server routes such URLs to the application.
func ProbeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = io.WriteString(w, request.ProbeSuccessBody)
	}
}

// EchoHandler responds with the classification of the request as JSON.
func EchoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := request.FromContext(r.Context())
		if req == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(req.Snapshot())
	}
}

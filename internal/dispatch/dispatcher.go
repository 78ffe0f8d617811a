// Package dispatch routes classified requests to resource, action,
// control-panel and site handlers, and renders handler errors.
package dispatch

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"sync"

	"github.com/dmitrymomot/blocks/pkg/request"
)

// HandlerFunc handles an action. A returned error goes to the error handler.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// DefaultSessionCookie is the cookie cleared by the built-in logout action.
const DefaultSessionCookie = "blocks_session"

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithResources serves Resource requests from fsys.
func WithResources(fsys fs.FS) Option {
	return func(d *Dispatcher) {
		d.resources = fsys
	}
}

// WithControlPanel sets the handler for control-panel requests.
func WithControlPanel(h http.Handler) Option {
	return func(d *Dispatcher) {
		d.cp = h
	}
}

// WithSite sets the handler for site requests.
func WithSite(h http.Handler) Option {
	return func(d *Dispatcher) {
		d.site = h
	}
}

// WithAction registers an action handler under a route such as
// "entries/save" or "plugin/forms/submissions/save".
func WithAction(route string, h HandlerFunc) Option {
	return func(d *Dispatcher) {
		d.Handle(route, h)
	}
}

// WithSessionCookie sets the cookie the logout action clears.
func WithSessionCookie(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.sessionCookie = name
		}
	}
}

// WithErrorHandler replaces the default error handler.
func WithErrorHandler(h *ErrorHandler) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.errors = h
		}
	}
}

// WithLogger sets the logger of the default error handler.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.errors = NewErrorHandler(l)
	}
}

// Dispatcher routes a classified request by its mode.
// It expects middlewares.Classify to have run.
type Dispatcher struct {
	resources     fs.FS
	cp            http.Handler
	site          http.Handler
	errors        *ErrorHandler
	actions       map[string]HandlerFunc
	sessionCookie string
	mu            sync.RWMutex
}

// New creates a Dispatcher with the built-in session/logout action.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		actions:       make(map[string]HandlerFunc),
		errors:        NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil))),
		sessionCookie: DefaultSessionCookie,
	}
	d.Handle("session/logout", d.logout)

	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle registers an action handler. Routes are normalised the way
// ParseActionTarget reads them, so "users" and "users/index" are the same route.
func (d *Dispatcher) Handle(route string, h HandlerFunc) {
	key := request.ParseActionTarget(request.SplitPath(route)).String()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions[key] = h
}

// ErrorHandler returns the error handler responses are rendered with.
func (d *Dispatcher) ErrorHandler() *ErrorHandler {
	return d.errors
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := request.FromContext(r.Context())
	if req == nil {
		d.errors.Handle(w, r, ErrInternal("", WithError(ErrNotClassified)))
		return
	}

	var err error
	switch req.Mode() {
	case request.ModeResource:
		err = d.serveResource(w, r, req)
	case request.ModeAction:
		err = d.serveAction(w, r, req)
	case request.ModeControlPanel:
		err = serveOptional(w, r, d.cp, "Control panel is not available")
	default:
		err = serveOptional(w, r, d.site, "")
	}

	if err != nil {
		d.errors.Handle(w, r, err)
	}
}

func (d *Dispatcher) serveAction(w http.ResponseWriter, r *http.Request, req *request.Request) error {
	target, _ := req.Action()

	d.mu.RLock()
	h, ok := d.actions[target.String()]
	d.mu.RUnlock()

	if !ok {
		return ErrNotFound("Action not found: " + target.String())
	}
	return h(w, r)
}

// serveResource serves the segments after the trigger word as a file path.
func (d *Dispatcher) serveResource(w http.ResponseWriter, r *http.Request, req *request.Request) error {
	if d.resources == nil {
		return ErrNotFound("")
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return ErrMethodNotAllowed("")
	}

	segs := req.Segments()
	if len(segs) < 2 {
		return ErrNotFound("")
	}
	name := path.Join(segs[1:]...)
	if !fs.ValidPath(name) {
		return ErrNotFound("")
	}

	info, err := fs.Stat(d.resources, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound("Resource not found: " + name)
		}
		return ErrInternal("", WithError(err))
	}
	if info.IsDir() {
		return ErrNotFound("Resource not found: " + name)
	}

	http.ServeFileFS(w, r, d.resources, name)
	return nil
}

func (d *Dispatcher) logout(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     d.sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

func serveOptional(w http.ResponseWriter, r *http.Request, h http.Handler, missing string) error {
	if h == nil {
		return ErrNotFound(missing)
	}
	h.ServeHTTP(w, r)
	return nil
}

// Package health serves liveness and readiness endpoints.
//
// Liveness always answers OK. Readiness runs every registered check in
// parallel under a shared timeout and answers 503 if any fails. Responses are
// plain text unless the client asks for JSON (Accept: application/json or
// ?format=json).
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "redis": redis.Healthcheck(client),
//	    "cache": health.CacheCheck(formats, "health:probe", request.FormatAuto),
//	}, health.WithLogger(log)))
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/blocks/pkg/cache"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	defaultTimeout = 5 * time.Second
)

var (
	ErrCheckFailed  = errors.New("health: check failed")
	ErrCheckTimeout = errors.New("health: check timeout")
)

// CheckFunc reports an error when a dependency is not ready.
type CheckFunc func(ctx context.Context) error

// Checks maps check names to checks.
type Checks map[string]CheckFunc

// Response is the JSON readiness body.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check is the result of one named check.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type options struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures ReadinessHandler.
type Option func(*options)

// WithTimeout bounds the whole check run. Default 5s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger logs failed checks at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// LivenessHandler always answers OK.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, &Response{Status: StatusHealthy})
	}
}

// ReadinessHandler runs checks on every request.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	o := &options{
		timeout: defaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, Run(r.Context(), checks, o.timeout, o.logger))
	}
}

// Run executes checks in parallel and aggregates the result.
// A check still running when timeout expires is reported as ErrCheckTimeout.
func Run(ctx context.Context, checks Checks, timeout time.Duration, log *slog.Logger) *Response {
	if len(checks) == 0 {
		return &Response{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		res = &Response{Status: StatusHealthy, Checks: make(map[string]Check, len(checks))}
	)

	for name, check := range checks {
		wg.Go(func() {
			err := check(ctx)
			if err == nil && ctx.Err() != nil {
				err = ErrCheckTimeout
			}

			result := Check{Status: StatusHealthy}
			if err != nil {
				result = Check{Status: StatusUnhealthy, Error: err.Error()}
				log.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			res.Checks[name] = result
			if err != nil {
				res.Status = StatusUnhealthy
			}
		})
	}
	wg.Wait()

	return res
}

// CacheCheck writes value under key and reads it back.
// The entry expires after a minute so a broken check leaves no residue.
func CacheCheck[V comparable](c cache.Cache[V], key string, value V) CheckFunc {
	return func(ctx context.Context) error {
		if err := c.Set(ctx, key, value, time.Minute); err != nil {
			return errors.Join(ErrCheckFailed, err)
		}
		got, err := c.Get(ctx, key)
		if err != nil {
			return errors.Join(ErrCheckFailed, err)
		}
		if got != value {
			return fmt.Errorf("%w: cache returned %v, want %v", ErrCheckFailed, got, value)
		}
		return nil
	}
}

func respond(w http.ResponseWriter, r *http.Request, resp *Response) {
	status := http.StatusOK
	if resp.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write([]byte(http.StatusText(status)))
}

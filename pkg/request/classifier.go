package request

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/blocks/pkg/cache"
)

// Option configures a Classifier.
type Option func(*Classifier)

// WithCache sets the cache the detected URL format is stored in.
// Without a cache, detection runs on every request that needs it.
func WithCache(c cache.Cache[URLFormat]) Option {
	return func(cl *Classifier) {
		if c != nil {
			cl.formats = cache.NewLoader(c)
		}
	}
}

// WithProber replaces the default HTTP prober.
func WithProber(p Prober) Option {
	return func(cl *Classifier) {
		if p != nil {
			cl.prober = p
		}
	}
}

// WithLogger sets the logger used for probe failures and detection results.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Classifier) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithMobileMatcher replaces the mobile user agent matcher.
func WithMobileMatcher(fn func(ua string) bool) Option {
	return func(cl *Classifier) {
		if fn != nil {
			cl.mobile = fn
		}
	}
}

// Classifier turns incoming requests into classified Requests.
// It is safe for concurrent use; per-request state lives in Request.
type Classifier struct {
	formats *cache.Loader[URLFormat]
	prober  Prober
	logger  *slog.Logger
	mobile  func(ua string) bool
	cfg     Config

	probeBase atomic.Pointer[string]
}

// New creates a Classifier.
//
// Example:
//
//	c := request.New(cfg,
//	    request.WithCache(cache.NewMemory[request.URLFormat](cache.DefaultMemoryConfig())),
//	    request.WithLogger(log),
//	)
//	req := c.Classify(ctx, request.FromHTTP(r, false))
func New(cfg Config, opts ...Option) *Classifier {
	c := &Classifier{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		mobile: IsMobileUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.prober == nil {
		c.prober = NewHTTPProber(nil, cfg.ProbeTimeout)
	}
	c.SetProbeBaseURL(cfg.ProbeBaseURL)
	return c
}

// SetProbeBaseURL sets where the path-info probe is sent, for callers that
// only learn their own address once listening. Safe for concurrent use.
func (c *Classifier) SetProbeBaseURL(base string) {
	c.probeBase.Store(&base)
}

// ProbeBaseURL returns the base URL the path-info probe is sent to.
func (c *Classifier) ProbeBaseURL() string {
	if p := c.probeBase.Load(); p != nil {
		return *p
	}
	return ""
}

// Config returns the classifier configuration.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify computes the URL format, path, segments and mode of a request.
// It never fails: every input ends in a concrete Mode.
func (c *Classifier) Classify(ctx context.Context, in Incoming) *Request {
	format := c.ResolveURLFormat(ctx, in)
	p := ResolvePath(in, format, c.cfg.PathVar)
	segs := SplitPath(p)
	mode, target, ok := ResolveMode(in, segs, c.cfg)

	r := &Request{
		format:          format,
		path:            p,
		segments:        segs,
		mode:            mode,
		pathInfo:        in.PathInfo,
		queryStringPath: QueryStringPath(in, c.cfg.PathVar),
		pathVar:         c.cfg.PathVar,
		userAgent:       in.UserAgent,
		mobile:          c.mobile,
	}
	if ok {
		r.action = &target
	}
	return r
}

// ResolveURLFormat returns the URL format in effect.
//
// A pinned config value wins. Otherwise the cached value is used, and on a
// miss the format is detected and cached for Config.CacheTime: server path-info
// means PathInfo, the path variable in the query means QueryString, and
// failing both the self-probe decides, falling back to QueryString.
func (c *Classifier) ResolveURLFormat(ctx context.Context, in Incoming) URLFormat {
	if c.cfg.URLFormat.Pinned() {
		return c.cfg.URLFormat
	}

	if c.formats == nil {
		format, _, _ := c.detect(ctx, in)
		return format
	}

	// The load outlives the caller: a client going away must not decide the
	// cached format for everyone else.
	format, err := c.formats.GetOrSet(ctx, CacheKey, c.detectFunc(in))
	if err != nil {
		return FormatQueryString
	}
	return format
}

func (c *Classifier) detectFunc(in Incoming) func(ctx context.Context) (URLFormat, time.Duration, error) {
	return func(ctx context.Context) (URLFormat, time.Duration, error) {
		return c.detect(ctx, in)
	}
}

func (c *Classifier) detect(ctx context.Context, in Incoming) (URLFormat, time.Duration, error) {
	ttl := c.cacheTTL()

	if in.HasPathInfo {
		return FormatPathInfo, ttl, nil
	}

	if c.cfg.PathVar != "" && in.Query.Has(c.cfg.PathVar) {
		return FormatQueryString, ttl, nil
	}

	base := c.ProbeBaseURL()
	ok, err := c.prober.Probe(ctx, base, c.cfg.ProbePath)
	if err != nil {
		// The probe is best effort: a failure means path-info is not confirmed.
		c.logger.DebugContext(ctx, "unable to determine if server path info is enabled",
			slog.String("base_url", base),
			slog.String("error", err.Error()),
		)
		return FormatQueryString, ttl, nil
	}

	if ok {
		c.logger.InfoContext(ctx, "path info probe succeeded", slog.String("base_url", base))
		return FormatPathInfo, ttl, nil
	}
	return FormatQueryString, ttl, nil
}

// cacheTTL maps CacheTime onto cache TTL semantics, where zero means the
// cache default and negative means never expire.
func (c *Classifier) cacheTTL() time.Duration {
	if c.cfg.CacheTime <= 0 {
		return -1
	}
	return c.cfg.CacheTime
}

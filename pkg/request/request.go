package request

import (
	"net/url"
	"slices"
	"sync"
)

// Request is a classified request. All fields are computed once in
// Classifier.Classify; the mobile check runs lazily at most once.
type Request struct {
	action          *ActionTarget
	mobile          func(ua string) bool
	format          URLFormat
	path            string
	pathInfo        string
	queryStringPath string
	pathVar         string
	userAgent       string
	mode            Mode
	segments        []string

	mobileOnce sync.Once
	isMobile   bool
}

// URLFormat returns the URL format in effect for the request.
func (r *Request) URLFormat() URLFormat {
	return r.format
}

// Path returns the route without surrounding slashes. Empty for the root path.
func (r *Request) Path() string {
	return r.path
}

// Segments returns a copy of the non-empty path segments.
func (r *Request) Segments() []string {
	return slices.Clone(r.segments)
}

// Segment returns the n-th path segment, counting from 1, or def if there is none.
func (r *Request) Segment(n int, def string) string {
	if n < 1 || n > len(r.segments) {
		return def
	}
	return r.segments[n-1]
}

// Extension returns the lower-cased file extension of the path, without the dot.
func (r *Request) Extension() string {
	return pathExtension(r.path)
}

// PathInfo returns the path-info route regardless of the URL format in effect.
func (r *Request) PathInfo() string {
	return r.pathInfo
}

// QueryStringPath returns the query-string route regardless of the URL format in effect.
func (r *Request) QueryStringPath() string {
	return r.queryStringPath
}

// Mode returns the dispatch mode.
func (r *Request) Mode() Mode {
	return r.mode
}

// Action returns the action target. The bool is false unless Mode is ModeAction.
func (r *Request) Action() (ActionTarget, bool) {
	if r.action == nil {
		return ActionTarget{}, false
	}
	return *r.action, true
}

// IsMobileBrowser reports whether the request comes from a mobile browser.
// The user agent is matched once per request.
func (r *Request) IsMobileBrowser() bool {
	r.mobileOnce.Do(func() {
		match := r.mobile
		if match == nil {
			match = IsMobileUserAgent
		}
		r.isMobile = match(r.userAgent)
	})
	return r.isMobile
}

// CanonicalURL returns the URL the request should be redirected to when its
// route was given in the URL format that is not in effect. The bool is false
// when no redirect is needed.
//
// With path-info in effect, "/?p=blog/post" becomes "/blog/post".
// With query strings in effect, "/blog/post" becomes "/?p=blog/post".
// Other query parameters are kept.
func (r *Request) CanonicalURL(query url.Values) (string, bool) {
	if r.path != "" {
		return "", false
	}

	params := url.Values{}
	for k, v := range query {
		params[k] = slices.Clone(v)
	}

	switch r.format {
	case FormatPathInfo:
		if r.queryStringPath == "" {
			return "", false
		}
		params.Del(r.pathVar)
		return buildURL("/"+r.queryStringPath, params), true

	case FormatQueryString:
		if r.pathInfo == "" || r.pathVar == "" {
			return "", false
		}
		params.Set(r.pathVar, r.pathInfo)
		return buildURL("/", params), true
	}

	return "", false
}

func buildURL(p string, params url.Values) string {
	if len(params) == 0 {
		return p
	}
	return p + "?" + params.Encode()
}

// Snapshot is a serializable view of a classified request.
type Snapshot struct {
	Action    *ActionTarget `json:"action,omitempty"`
	URLFormat URLFormat     `json:"url_format"`
	Mode      Mode          `json:"mode"`
	Path      string        `json:"path"`
	Extension string        `json:"extension,omitempty"`
	Segments  []string      `json:"segments"`
	Mobile    bool          `json:"mobile"`
}

// Snapshot evaluates every lazy property and returns the result.
func (r *Request) Snapshot() Snapshot {
	s := Snapshot{
		URLFormat: r.format,
		Mode:      r.mode,
		Path:      r.path,
		Extension: r.Extension(),
		Segments:  r.Segments(),
		Mobile:    r.IsMobileBrowser(),
	}
	if t, ok := r.Action(); ok {
		s.Action = &t
	}
	return s
}

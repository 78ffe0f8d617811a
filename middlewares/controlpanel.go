package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrymomot/blocks/pkg/hostrouter"
)

type controlPanelKey struct{}

// ControlPanel flags control-panel requests.
//
// A request is a control-panel request when its host matches hosts, or when
// its path starts with "/"+prefix. In the prefix case the prefix is stripped
// from the URL path before the request is passed on, so "/admin/entries"
// is classified as "entries". An empty prefix disables path matching.
func ControlPanel(hosts *hostrouter.Matcher, prefix string) func(http.Handler) http.Handler {
	prefix = strings.Trim(prefix, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hosts.MatchRequest(r) {
				next.ServeHTTP(w, markControlPanel(r, ""))
				return
			}

			if rest, ok := cutPathPrefix(r.URL.Path, prefix); ok {
				r2 := markControlPanel(r, "/"+prefix)
				u := *r.URL
				u.Path, u.RawPath = rest, ""
				r2.URL = &u
				next.ServeHTTP(w, r2)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// controlPanel is stored in the context of flagged requests.
type controlPanel struct {
	prefix string // stripped path prefix, "" when matched by host
}

// IsControlPanel reports whether the request was flagged by ControlPanel.
func IsControlPanel(ctx context.Context) bool {
	_, ok := ctx.Value(controlPanelKey{}).(controlPanel)
	return ok
}

// ControlPanelPrefix returns the path prefix stripped by ControlPanel, e.g. "/admin".
func ControlPanelPrefix(ctx context.Context) string {
	cp, _ := ctx.Value(controlPanelKey{}).(controlPanel)
	return cp.prefix
}

func markControlPanel(r *http.Request, prefix string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), controlPanelKey{}, controlPanel{prefix: prefix}))
}

// cutPathPrefix matches prefix as a whole leading path segment.
func cutPathPrefix(p, prefix string) (string, bool) {
	if prefix == "" {
		return "", false
	}
	rest, ok := strings.CutPrefix(p, "/"+prefix)
	if !ok || (rest != "" && rest[0] != '/') {
		return "", false
	}
	if rest == "" {
		rest = "/"
	}
	return rest, true
}

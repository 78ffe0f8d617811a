// Package hostrouter matches requests by their Host header.
//
// Patterns are either exact ("cp.example.com") or wildcard ("*.example.com",
// any subdomain but not the bare domain). Matching is case-insensitive and
// ignores ports. Exact patterns are checked before wildcards.
//
//	cp := hostrouter.NewMatcher("cp.example.com", "*.admin.example.com")
//	if cp.MatchRequest(r) { ... }
package hostrouter

import (
	"net"
	"net/http"
	"strings"
)

// Matcher reports whether a host matches one of a fixed set of patterns.
// The zero value and a nil Matcher match nothing.
type Matcher struct {
	exact    map[string]struct{}
	wildcard map[string]struct{} // "*.example.com" stored as "example.com"
}

// NewMatcher builds a Matcher. Blank patterns are ignored.
func NewMatcher(patterns ...string) *Matcher {
	m := &Matcher{
		exact:    make(map[string]struct{}),
		wildcard: make(map[string]struct{}),
	}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "", p == "*.":
		case strings.HasPrefix(p, "*."):
			m.wildcard[p[2:]] = struct{}{}
		default:
			m.exact[Normalize(p)] = struct{}{}
		}
	}
	return m
}

// Empty reports whether the matcher has no patterns.
func (m *Matcher) Empty() bool {
	return m == nil || len(m.exact)+len(m.wildcard) == 0
}

// Match reports whether host matches any pattern.
func (m *Matcher) Match(host string) bool {
	if m.Empty() {
		return false
	}

	host = Normalize(host)
	if _, ok := m.exact[host]; ok {
		return true
	}

	// Walk up the labels so "*.example.com" also matches "a.b.example.com".
	for rest := host; ; {
		_, domain, ok := strings.Cut(rest, ".")
		if !ok {
			return false
		}
		if _, ok := m.wildcard[domain]; ok {
			return true
		}
		rest = domain
	}
}

// MatchRequest reports whether the request Host matches any pattern.
func (m *Matcher) MatchRequest(r *http.Request) bool {
	return m.Match(r.Host)
}

// Normalize lower-cases host and strips the port. IPv6 brackets are kept.
//
//	"Example.COM:8080" -> "example.com"
//	"[::1]:8080"       -> "[::1]"
func Normalize(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return host
}

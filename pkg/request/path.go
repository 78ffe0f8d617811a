package request

import (
	"path"
	"strings"
)

// SplitPath splits a route on "/" and drops empty segments,
// so leading, trailing and repeated slashes never produce empty entries.
func SplitPath(p string) []string {
	parts := strings.Split(p, "/")
	segs := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// QueryStringPath returns the route carried in the query path variable, slashes trimmed.
func QueryStringPath(in Incoming, pathVar string) string {
	if pathVar == "" || in.Query == nil {
		return ""
	}
	return strings.Trim(in.Query.Get(pathVar), "/")
}

// ResolvePath returns the route for the given URL format.
// An empty string is the root path.
func ResolvePath(in Incoming, format URLFormat, pathVar string) string {
	if format == FormatPathInfo {
		return in.PathInfo
	}
	return QueryStringPath(in, pathVar)
}

// pathExtension returns the lower-cased extension of the last path element, without the dot.
func pathExtension(p string) string {
	ext := path.Ext(p)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

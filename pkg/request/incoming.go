package request

import (
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// MaxMultipartMemory bounds the part of a multipart body kept in memory by
// FromHTTP. Larger file parts spill to temporary files.
const MaxMultipartMemory = 32 << 20

// Incoming is the raw request data the classifier works from.
type Incoming struct {
	// Query is the parsed query string.
	Query url.Values
	// Post is the parsed form body. Nil for non-POST requests.
	Post url.Values
	// PathInfo is the decoded URL path with surrounding slashes removed.
	PathInfo string
	// UserAgent is the raw User-Agent header.
	UserAgent string
	// HasPathInfo reports that the server supplied a path-info segment.
	HasPathInfo bool
	// ControlPanel reports that the hosting layer flagged a control-panel request.
	ControlPanel bool
}

// FromHTTP builds an Incoming from a net/http request.
//
// The form body is parsed only for POST requests, url-encoded and multipart
// alike. A parse failure leaves Post nil.
func FromHTTP(r *http.Request, controlPanel bool) Incoming {
	pathInfo := strings.Trim(r.URL.Path, "/")

	in := Incoming{
		Query:        r.URL.Query(),
		PathInfo:     pathInfo,
		HasPathInfo:  pathInfo != "",
		UserAgent:    r.UserAgent(),
		ControlPanel: controlPanel,
	}

	if r.Method == http.MethodPost {
		if err := parseForm(r); err == nil {
			in.Post = r.PostForm
		}
	}

	return in
}

func parseForm(r *http.Request) error {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		return r.ParseMultipartForm(MaxMultipartMemory)
	}
	return r.ParseForm()
}

package middlewares

import (
	"net/http"

	"github.com/dmitrymomot/blocks/pkg/request"
)

// Classify classifies every request and stores the result in the request
// context, where request.FromContext finds it. Run it after ControlPanel.
func Classify(c *request.Classifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			req := c.Classify(ctx, request.FromHTTP(r, IsControlPanel(ctx)))
			next.ServeHTTP(w, r.WithContext(request.WithRequest(ctx, req)))
		})
	}
}

// CanonicalURL redirects GET and HEAD requests whose route was given in the
// URL format that is not in effect, e.g. "/?p=blog" to "/blog" when path-info
// URLs are in use. Other methods pass through so form bodies are not lost.
// A control-panel path prefix is kept in the target.
func CanonicalURL() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := request.FromContext(r.Context())
			if req == nil || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
				next.ServeHTTP(w, r)
				return
			}

			if target, ok := req.CanonicalURL(r.URL.Query()); ok {
				http.Redirect(w, r, ControlPanelPrefix(r.Context())+target, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

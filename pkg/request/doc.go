// Package request classifies incoming HTTP requests for dispatch.
//
// A [Classifier] decides, once per request:
//
//   - the URL format in effect: path-info (/blog/post) or query string (/?p=blog/post)
//   - the route path and its non-empty segments
//   - the dispatch [Mode]: resource, action, control panel or site
//   - for action requests, the plugin/controller/action [ActionTarget]
//
// # URL format detection
//
// When [Config].URLFormat is "auto", the format is detected and cached under
// [CacheKey]. Detection prefers path-info if the server supplied one, query
// string if the path variable is present, and otherwise asks a [Prober] to
// request the probe path on [Config].ProbeBaseURL, which must address the
// application itself. Request headers never choose the probe target. Only an exact "success" body
// confirms path-info support; a probe failure falls back to query strings.
//
// # Modes
//
// The first path segment is compared against the resource, action and logout
// trigger words. Action requests can also be posted with the action trigger
// word as a form field:
//
//	actions/entries/save            -> {controller: entries, action: save}
//	actions/plugin/shop/cart/add    -> {plugin: shop, controller: cart, action: add}
//	logout                          -> {controller: session, action: logout}
//
// # Usage
//
//	c := request.New(cfg,
//	    request.WithCache(cache.NewMemory[request.URLFormat](cache.DefaultMemoryConfig())),
//	)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    req := c.Classify(r.Context(), request.FromHTTP(r, false))
//	    switch req.Mode() {
//	    case request.ModeAction:
//	        target, _ := req.Action()
//	        ...
//	    }
//	}
package request

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/blocks/internal/config"
	"github.com/dmitrymomot/blocks/middlewares"
	"github.com/dmitrymomot/blocks/pkg/hostrouter"
	"github.com/dmitrymomot/blocks/pkg/logger"
	"github.com/dmitrymomot/blocks/pkg/request"
)

type classifyFlags struct {
	method       string
	data         string
	userAgent    string
	format       string
	controlPanel bool
}

// classifyResult is what the classify command prints.
type classifyResult struct {
	Request  request.Snapshot `json:"request"`
	Redirect string           `json:"redirect,omitempty"`
}

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	f := &classifyFlags{}

	cmd := &cobra.Command{
		Use:   "classify <url>",
		Short: "Classify a URL the way the server would",
		Long: `Runs a request for the given URL through the control-panel, classification
and canonical-URL steps of the server and prints the result as JSON.

With the auto URL format the path-info probe is sent to the URL's host.

Example:
  blocks classify --format pathinfo https://example.com/actions/entries/save
  blocks classify --method POST --data 'actions=users/login' https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			res, err := classify(cmd, cfg, args[0], f)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&f.method, "method", "X", http.MethodGet, "request method")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "url-encoded form body, sent with POST")
	cmd.Flags().StringVarP(&f.userAgent, "user-agent", "A", "", "User-Agent header")
	cmd.Flags().StringVar(&f.format, "format", "", "URL format: auto, pathinfo or querystring (default from config)")
	cmd.Flags().BoolVar(&f.controlPanel, "cp", false, "treat the URL's host as a control-panel host")

	return cmd
}

func classify(cmd *cobra.Command, cfg config.Config, rawURL string, f *classifyFlags) (classifyResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return classifyResult{}, fmt.Errorf("invalid url %q: must be absolute", rawURL)
	}

	if f.format != "" {
		format, err := request.ParseURLFormat(f.format)
		if err != nil {
			return classifyResult{}, err
		}
		cfg.Request.URLFormat = format
	}

	// The command stands in for the server at the given URL, so that is
	// where the path-info probe goes unless configured otherwise.
	if cfg.Request.ProbeBaseURL == "" {
		cfg.Request.ProbeBaseURL = u.Scheme + "://" + u.Host
	}

	hosts := slices.Clone(cfg.Server.CPHosts)
	if f.controlPanel {
		hosts = append(hosts, u.Host)
	}

	var body io.Reader
	if f.data != "" {
		body = strings.NewReader(f.data)
	}
	r, err := http.NewRequestWithContext(cmd.Context(), strings.ToUpper(f.method), u.String(), body)
	if err != nil {
		return classifyResult{}, err
	}
	if f.data != "" {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if f.userAgent != "" {
		r.Header.Set("User-Agent", f.userAgent)
	}

	classifier := request.New(cfg.Request, request.WithLogger(logger.NewNope()))

	var snap request.Snapshot
	capture := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if req := request.FromContext(r.Context()); req != nil {
				snap = req.Snapshot()
			}
			next.ServeHTTP(w, r)
		})
	}

	h := middlewares.ControlPanel(hostrouter.NewMatcher(hosts...), cfg.Server.CPPathPrefix)(
		middlewares.Classify(classifier)(
			capture(
				middlewares.CanonicalURL()(http.NotFoundHandler()),
			),
		),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	res := classifyResult{Request: snap}
	if rec.Code == http.StatusFound {
		res.Redirect = rec.Header().Get("Location")
	}
	return res, nil
}

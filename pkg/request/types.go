package request

import (
	"fmt"
	"strings"
)

// URLFormat identifies how the route is encoded in a request URL.
type URLFormat string

const (
	// FormatAuto lets the classifier detect the format. Only meaningful in Config.
	FormatAuto URLFormat = "auto"
	// FormatPathInfo encodes the route in the URL path: /blog/post/1.
	FormatPathInfo URLFormat = "pathinfo"
	// FormatQueryString encodes the route in a query parameter: /?p=blog/post/1.
	FormatQueryString URLFormat = "querystring"
)

// ParseURLFormat converts a config value into a URLFormat.
// Empty input is treated as FormatAuto.
func ParseURLFormat(s string) (URLFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatAuto):
		return FormatAuto, nil
	case string(FormatPathInfo), "path_info":
		return FormatPathInfo, nil
	case string(FormatQueryString), "query_string":
		return FormatQueryString, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownURLFormat, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so the format can be
// read straight from env vars and YAML.
func (f *URLFormat) UnmarshalText(text []byte) error {
	v, err := ParseURLFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Pinned reports whether the format is fixed rather than detected.
func (f URLFormat) Pinned() bool {
	return f == FormatPathInfo || f == FormatQueryString
}

// Mode is the dispatch mode of a request.
type Mode string

const (
	ModeResource     Mode = "resource"
	ModeAction       Mode = "action"
	ModeControlPanel Mode = "cp"
	ModeSite         Mode = "site"
)

func (m Mode) String() string {
	return string(m)
}

// Default controller and action names used when segments are missing.
const (
	DefaultController = "default"
	DefaultAction     = "index"
)

// ActionTarget names the controller action an Action request is routed to.
//
// PluginScoped distinguishes "not a plugin action" (false) from
// "a plugin action whose name segment is missing" (true with empty Plugin).
type ActionTarget struct {
	Plugin       string `json:"plugin,omitempty"`
	Controller   string `json:"controller"`
	Action       string `json:"action"`
	PluginScoped bool   `json:"plugin_scoped"`
}

// String renders the target as a slash-separated route, e.g. "plugin/foo/bar/baz".
func (t ActionTarget) String() string {
	if t.PluginScoped {
		return "plugin/" + t.Plugin + "/" + t.Controller + "/" + t.Action
	}
	return t.Controller + "/" + t.Action
}

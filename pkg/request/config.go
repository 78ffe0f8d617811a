package request

import "time"

// CacheKey is the cache key the detected URL format is stored under.
const CacheKey = "urlFormat"

// Config holds the settings the classifier reads.
// Empty trigger words disable the matching rule.
type Config struct {
	// URLFormat pins the URL format. FormatAuto enables detection.
	URLFormat URLFormat `env:"URL_FORMAT" envDefault:"auto" yaml:"url_format"`

	// PathVar is the query parameter carrying the route in query-string URLs.
	PathVar string `env:"PATH_VAR" envDefault:"p" yaml:"path_var"`

	ResourceTriggerWord string `env:"RESOURCE_TRIGGER_WORD" envDefault:"resources" yaml:"resource_trigger_word"`
	ActionTriggerWord   string `env:"ACTION_TRIGGER_WORD" envDefault:"actions" yaml:"action_trigger_word"`
	LogoutTriggerWord   string `env:"LOGOUT_TRIGGER_WORD" envDefault:"logout" yaml:"logout_trigger_word"`

	// CacheTime is how long a detected URL format stays cached.
	CacheTime time.Duration `env:"CACHE_TIME" envDefault:"24h" yaml:"cache_time"`

	// ProbePath is the self-referential path the path-info probe requests.
	ProbePath string `env:"PROBE_PATH" envDefault:"testpathinfo" yaml:"probe_path"`

	// ProbeBaseURL is the "scheme://host[:port]" the probe is sent to. It must
	// address this application; request headers are never used to build it.
	// Empty disables the probe, so detection without other evidence yields
	// query strings.
	ProbeBaseURL string `env:"PROBE_BASE_URL" yaml:"probe_base_url"`

	// ProbeTimeout bounds the path-info probe.
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT" envDefault:"2s" yaml:"probe_timeout"`
}

// DefaultConfig returns the config used when nothing is loaded from the environment.
func DefaultConfig() Config {
	return Config{
		URLFormat:           FormatAuto,
		PathVar:             "p",
		ResourceTriggerWord: "resources",
		ActionTriggerWord:   "actions",
		LogoutTriggerWord:   "logout",
		CacheTime:           24 * time.Hour,
		ProbePath:           "testpathinfo",
		ProbeTimeout:        2 * time.Second,
	}
}

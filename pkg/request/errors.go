package request

import "errors"

var (
	// ErrUnknownURLFormat is returned when a URL format config value is not recognised.
	ErrUnknownURLFormat = errors.New("request: unknown url format")

	// ErrProbeFailed is returned by a Prober when the self-probe request could not complete.
	ErrProbeFailed = errors.New("request: path info probe failed")

	// ErrNoBaseURL is returned by a Prober when there is no base URL to probe.
	ErrNoBaseURL = errors.New("request: no base url to probe")
)

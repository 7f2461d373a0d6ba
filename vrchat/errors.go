package vrchat

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials is reported when the username or password is empty.
	ErrNoCredentials = errors.New("no credentials set")

	// ErrNoAPIKey is reported when the config endpoint returns no client api key.
	ErrNoAPIKey = errors.New("config response carried no api key")
)

// ConfigError reports a client misconfiguration detected before any request
// is sent.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "vrchat: configuration: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransportError reports a failed exchange with the upstream: the request
// could not be sent, the body was not JSON, or a non-2xx status came back
// without a structured error payload.
type TransportError struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError carries the error payload the upstream reported in an
// otherwise readable response.
type UpstreamError struct {
	URL     string
	Payload []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s (url: %s)", e.Payload, e.URL)
}

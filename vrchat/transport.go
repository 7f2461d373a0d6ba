package vrchat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Request is a single outbound call handed to a Transport.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the classified result of a call. Exactly one of Body and Fault
// is set: Fault holds the upstream error payload verbatim.
type Response struct {
	Body  json.RawMessage
	Fault json.RawMessage
}

// NewResponse parses body and decides once whether it reports an upstream
// error. It fails when body is not valid JSON.
func NewResponse(body []byte) (Response, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return Response{}, errors.New("response is not valid JSON")
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Error json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && isFault(envelope.Error) {
			return Response{Fault: envelope.Error}, nil
		}
	}
	return Response{Body: trimmed}, nil
}

// isFault reports whether an error member carries a value. Absent, null,
// false, zero and empty-string members do not.
func isFault(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// Transport performs one HTTP exchange. Implementations return a
// *TransportError for anything other than a classified Response.
type Transport interface {
	Send(ctx context.Context, req *Request) (Response, error)
}

// ProxyHandler rewrites every outbound URL before it reaches the Transport.
type ProxyHandler func(url string) string

func identityProxy(url string) string { return url }

// PrefixProxy returns a ProxyHandler that prepends base to every URL, the
// convention used by CORS relays such as "https://relay.example/".
func PrefixProxy(base string) ProxyHandler {
	return func(url string) string { return base + url }
}

// HTTPTransport is the default Transport backed by net/http.
type HTTPTransport struct {
	Client *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

// Send executes req. A non-2xx status is returned as a Response when its body
// carries a structured error and as a *TransportError otherwise.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Response{}, &TransportError{Op: "create request", URL: req.URL, Err: err}
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	client := http.DefaultClient
	if t != nil && t.Client != nil {
		client = t.Client
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, &TransportError{Op: "execute request", URL: req.URL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &TransportError{Op: "read response", URL: req.URL, Status: resp.StatusCode, Err: err}
	}

	out, parseErr := NewResponse(raw)
	if resp.StatusCode >= 400 {
		if parseErr == nil && out.Fault != nil {
			return out, nil
		}
		return Response{}, &TransportError{
			Op:     "unexpected status",
			URL:    req.URL,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", http.StatusText(resp.StatusCode)),
		}
	}
	if parseErr != nil {
		return Response{}, &TransportError{Op: "decode response", URL: req.URL, Status: resp.StatusCode, Err: parseErr}
	}
	return out, nil
}

package vrchat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the root of the upstream REST API.
	DefaultBaseURL   = "https://vrchat.com/api/1"
	defaultUserAgent = "vrcwatch/0.1"
)

// Client talks to the upstream API on behalf of one account. Each Client owns
// its session key and caches; nothing is shared between clients.
type Client struct {
	credentials Credentials
	baseURL     string
	userAgent   string
	proxy       ProxyHandler
	transport   Transport
	limiter     *rate.Limiter
	log         zerolog.Logger

	keys        *keyManager
	currentUser memo[struct{}, User]
	worldInfo   memo[WorldID, WorldInfo]
}

// Option customizes a Client.
type Option func(*Client)

// WithProxy routes every outbound URL through handler.
func WithProxy(handler ProxyHandler) Option {
	return func(c *Client) {
		if handler != nil {
			c.proxy = handler
		}
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithHTTPClient uses hc for the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.transport = &HTTPTransport{Client: hc} }
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRateLimit paces outbound requests. It never retries.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// New builds a Client. Credentials are checked lazily: a Client with empty
// credentials fails every call with a *ConfigError.
func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		credentials: creds,
		baseURL:     DefaultBaseURL,
		userAgent:   defaultUserAgent,
		proxy:       identityProxy,
		transport:   &HTTPTransport{Client: &http.Client{}},
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.keys = &keyManager{fetch: c.fetchAPIKey}
	return c
}

func (c *Client) endpoint(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = url.PathEscape(fmt.Sprint(a))
	}
	return c.baseURL + fmt.Sprintf(format, escaped...)
}

func (c *Client) fetchAPIKey(ctx context.Context) (string, error) {
	raw, err := c.send(ctx, http.MethodGet, c.endpoint("/config"), nil, "")
	if err != nil {
		return "", fmt.Errorf("fetch api key: %w", err)
	}
	var payload configPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("fetch api key: decode config: %w", err)
	}
	if payload.ClientAPIKey == "" {
		return "", ErrNoAPIKey
	}
	return payload.ClientAPIKey, nil
}

// request is the authenticated request primitive every operation uses.
func (c *Client) request(ctx context.Context, method, rawURL string, body any) (json.RawMessage, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	key, err := c.keys.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, method, rawURL, body, key)
}

func (c *Client) checkCredentials() error {
	if c.credentials.Username == "" || c.credentials.Password == "" {
		return &ConfigError{Err: ErrNoCredentials}
	}
	return nil
}

// send issues one call with the given session key (empty while the key itself
// is being fetched) and returns the response body or the upstream fault.
func (c *Client) send(ctx context.Context, method, rawURL string, body any, key string) (json.RawMessage, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	target := rawURL
	if key != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "apiKey=" + url.QueryEscape(key)
	}

	req := &Request{
		Method: method,
		URL:    c.proxy(target),
		Header: http.Header{},
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Basic "+basicAuth(c.credentials))
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	if method != http.MethodGet && body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		req.Body = encoded
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	started := time.Now()
	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		err = redactError(err, req.URL, key)
	}
	event := c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("url", rawURL).
		Dur("latency", time.Since(started))
	if err != nil {
		event.Err(err).Msg("request failed")
		return nil, err
	}
	if resp.Fault != nil {
		event.Msg("request completed")
		c.log.Warn().
			Str("request_id", requestID).
			Str("url", rawURL).
			RawJSON("fault", resp.Fault).
			Msg("upstream reported error")
		return nil, &UpstreamError{URL: redact(target, key), Payload: []byte(resp.Fault)}
	}
	event.Msg("request completed")
	return resp.Body, nil
}

// redactedKey replaces the session key in URLs that reach error text.
const redactedKey = "REDACTED"

func redact(s, key string) string {
	if key == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(key), redactedKey)
	return strings.ReplaceAll(s, key, redactedKey)
}

// redactError strips the session key from a transport failure. Known error
// types are edited in place so errors.As keeps working; anything else that
// still mentions the key is replaced by a *TransportError.
func redactError(err error, target, key string) error {
	if key == "" {
		return err
	}
	var trErr *TransportError
	if errors.As(err, &trErr) {
		trErr.URL = redact(trErr.URL, key)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redact(urlErr.URL, key)
	}
	if strings.Contains(err.Error(), key) {
		return &TransportError{Op: "send request", URL: redact(target, key), Err: errors.New(redact(err.Error(), key))}
	}
	return err
}

func basicAuth(creds Credentials) string {
	return base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password))
}

// do runs an authenticated request and decodes the body into dest.
func (c *Client) do(ctx context.Context, method, rawURL string, body, dest any) error {
	raw, err := c.request(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &TransportError{Op: "decode response", URL: rawURL, Err: err}
	}
	return nil
}

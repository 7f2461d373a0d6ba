package corsproxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/vrpill/vrcwatch/internal/logx"
	"github.com/vrpill/vrcwatch/vrchat"
)

// Options configure the relay.
type Options struct {
	// Upstream is the only base URL the relay forwards to.
	Upstream string
	// AllowedOrigins lists browser origins allowed to call the relay. Empty
	// allows any origin.
	AllowedOrigins []string
	// PerClientRate limits requests per second for each client IP. Zero
	// disables limiting.
	PerClientRate  rate.Limit
	PerClientBurst int
	// Transport carries relayed requests. Nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// strippedRequestHeaders never leave the relay; upstream sees a plain API client.
var strippedRequestHeaders = []string{"Origin", "Referer", "Cookie"}

// Handler returns the relay. Requests arrive in prefix form,
// "/<absolute upstream url>", and are forwarded only when the target lives
// under Options.Upstream.
func Handler(opts Options) (http.Handler, error) {
	upstream := strings.TrimRight(strings.TrimSpace(opts.Upstream), "/")
	if upstream == "" {
		upstream = vrchat.DefaultBaseURL
	}
	base, err := url.Parse(upstream)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.New("upstream must be an absolute URL")
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			target := pr.In.Context().Value(targetKey{}).(*url.URL)
			pr.Out.URL = target
			pr.Out.Host = target.Host
			for _, h := range strippedRequestHeaders {
				pr.Out.Header.Del(h)
			}
		},
		Transport: opts.Transport,
		ModifyResponse: func(resp *http.Response) error {
			// The relay answers CORS itself.
			for key := range resp.Header {
				if strings.HasPrefix(key, "Access-Control-") {
					resp.Header.Del(key)
				}
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logx.Error(err, "relay upstream failed", "path", r.URL.Path)
			writeFault(w, http.StatusBadGateway, "upstream unreachable")
		},
	}

	r := chi.NewRouter()
	r.Use(c.Handler)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)
	if opts.PerClientRate > 0 {
		limiter := NewIPRateLimiter(opts.PerClientRate, opts.PerClientBurst)
		r.Use(limiter.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "upstream": upstream})
	})
	r.HandleFunc("/*", func(w http.ResponseWriter, req *http.Request) {
		target, ok := resolveTarget(upstream, req)
		if !ok {
			logx.Warn("relay target rejected", "path", req.URL.Path)
			writeFault(w, http.StatusForbidden, "target not allowed")
			return
		}
		proxy.ServeHTTP(w, req.WithContext(withTarget(req.Context(), target)))
	})

	return r, nil
}

// resolveTarget recovers the absolute upstream URL from a prefix-form path.
func resolveTarget(upstream string, req *http.Request) (*url.URL, bool) {
	raw := strings.TrimPrefix(req.URL.EscapedPath(), "/")
	if raw != upstream && !strings.HasPrefix(raw, upstream+"/") {
		return nil, false
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	target.RawQuery = req.URL.RawQuery
	return target, true
}

// writeFault answers in the upstream error shape so vrchat clients surface an
// *UpstreamError instead of a decode failure.
func writeFault(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": message, "status_code": status},
	})
}

type targetKey struct{}

func withTarget(ctx context.Context, target *url.URL) context.Context {
	return context.WithValue(ctx, targetKey{}, target)
}

package logx

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// anonymizeIP zeroes the host part of a client address: the last octet for
// IPv4, the lower half for IPv6.
func anonymizeIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return "unknown_ip"
	}
	if ip.IsLoopback() {
		return "127.0.0.1"
	}
	if ip.To4() != nil {
		return ip.Mask(net.CIDRMask(24, 32)).String()
	}
	return ip.Mask(net.CIDRMask(64, 128)).String()
}

// RequestLogger returns chi middleware that logs one line per relayed
// request. The query string is omitted because it carries the api key.
func RequestLogger() func(next http.Handler) http.Handler {
	base := Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			logger := base.With().
				Str("component", "relay").
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_ip", anonymizeIP(r.RemoteAddr)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			r = r.WithContext(logger.WithContext(r.Context()))

			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			event := logger.Info()
			switch {
			case status >= 500:
				event = logger.Error()
			case status >= 400:
				event = logger.Warn()
			}
			event.
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("request relayed")
		})
	}
}

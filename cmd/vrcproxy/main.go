// Command vrcproxy runs the CORS relay that lets browser clients reach the
// VRChat API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/vrpill/vrcwatch/internal/corsproxy"
	"github.com/vrpill/vrcwatch/internal/logx"
	"github.com/vrpill/vrcwatch/vrchat"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	listen := flag.String("listen", "127.0.0.1:8787", "address to listen on")
	upstream := flag.String("upstream", vrchat.DefaultBaseURL, "API base the relay may reach")
	origins := flag.StringSlice("origin", nil, "allowed browser origin (repeatable; empty allows any)")
	perClient := flag.Float64("rate", 5, "requests per second per client address (0 disables)")
	burst := flag.Int("burst", 10, "per-client burst")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logx.Init(logx.Options{Level: *level, Console: true})

	handler, err := corsproxy.Handler(corsproxy.Options{
		Upstream:       *upstream,
		AllowedOrigins: *origins,
		PerClientRate:  rate.Limit(*perClient),
		PerClientBurst: *burst,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "vrcproxy: %v\n", err)
		return 1
	}

	srv := &http.Server{
		Addr:              *listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logx.Info("relay listening", "addr", *listen, "upstream", *upstream)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logx.Error(err, "relay stopped")
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "relay shutdown failed")
		return 1
	}
	logx.Info("relay stopped")
	return 0
}

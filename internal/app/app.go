package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/vrpill/vrcwatch/internal/config"
	"github.com/vrpill/vrcwatch/internal/corsproxy"
	"github.com/vrpill/vrcwatch/internal/logx"
	"github.com/vrpill/vrcwatch/internal/prefs"
	"github.com/vrpill/vrcwatch/internal/state"
	"github.com/vrpill/vrcwatch/internal/ui"
	"github.com/vrpill/vrcwatch/vrchat"
)

const httpTimeout = 20 * time.Second

// Options configure the vrcwatch application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/vrcwatch/prefs.toml
	PollEvery  int    // seconds; zero uses default
}

// Run boots the vrcwatch TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logFile, err := openLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logx.Init(logx.Options{Level: cfg.LogLevel, Out: logFile})

	client := newClient(cfg)
	userPrefs := prefs.Load(opts.PrefsPath)
	store := &state.Store{}

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	logx.Info("vrcwatch starting", "api_base", cfg.APIBase, "proxied", cfg.ProxyURL != "", "poll_interval", interval.String())

	// Populate the store before the first frame so the UI does not start empty.
	refresh(ctx, store, client)
	StartPoller(ctx, store, client, interval)

	return ui.Run(ui.Options{
		Context:   ctx,
		Client:    client,
		Store:     store,
		PollTick:  time.Second,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		LogPath:   cfg.LogFile,
	})
}

// newClient builds the API client from config. A configured relay rewrites
// every outbound URL to go through it.
func newClient(cfg config.Config) *vrchat.Client {
	opts := []vrchat.Option{
		vrchat.WithBaseURL(cfg.APIBase),
		vrchat.WithHTTPClient(&http.Client{Timeout: httpTimeout}),
		vrchat.WithLogger(*logx.Logger()),
		vrchat.WithRateLimit(rate.Limit(cfg.RequestsPerSecond), 1),
	}
	if proxy := corsproxy.Rewrite(cfg.ProxyURL); proxy != nil {
		opts = append(opts, vrchat.WithProxy(proxy))
	}
	return vrchat.New(cfg.Credentials(), opts...)
}

// openLog opens the log file for appending, creating its directory. The TUI
// owns the terminal, so logs never go to stderr while it runs.
func openLog(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

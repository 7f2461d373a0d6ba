// Package app is the composition root of the vrcwatch TUI.
//
// # Startup
//
// Run wires the pieces together in order:
//
//  1. config.Load reads ~/.config/vrcwatch/config.toml (env overrides
//     VRCHAT_USERNAME and VRCHAT_PASSWORD) and Validate rejects a config
//     without credentials.
//  2. The log file is opened for append and logx routes zerolog into it.
//     The terminal belongs to the UI.
//  3. A vrchat.Client is built with the configured base URL, rate limit and,
//     when proxy_url is set, a relay rewrite from corsproxy.Rewrite.
//  4. One synchronous refresh fills the state.Store, then StartPoller keeps it
//     current in the background.
//  5. ui.Run blocks until the user quits or the context is cancelled.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()   credentials, API base, relay
//	       ├─────> logx.Init()     JSON lines to the log file
//	       ├─────> vrchat.New()    client with session key and caches
//	       ├─────> refresh()       first poll
//	       ├─────> StartPoller()   background updates
//	       └─────> ui.Run()        TUI (blocks)
//
// # Polling Behavior
//
// Each poll reads the current user, the friend list and notifications.
// The current user is optional: the client caches it, failures included, so
// the poller records a missing user without marking the poll failed. A
// friends or notifications failure is stored on the snapshot and the next
// poll waits twice as long, up to 30 seconds.
package app

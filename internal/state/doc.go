// Package state shares the latest upstream data between the poller and the UI.
//
// # Overview
//
// The poller writes one Poll per successful round (current user, friends and
// notifications) and the UI reads Snapshot values at its own refresh rate.
//
//	Producer (Poller):              Consumer (UI):
//	┌──────────────────┐           ┌──────────────────┐
//	│ CurrentUser()    │           │                  │
//	│ Friends()        │           │                  │
//	│ Notifications()  │           │                  │
//	│      ↓           │           │                  │
//	│ store.Update()   │──────────→│ store.Snapshot() │
//	└──────────────────┘  (mutex)  └──────────────────┘
//
// # Update Semantics
//
// A successful Update replaces everything and resets ConsecutiveFailures.
// A failed Update keeps the previous data, records LastError and increments
// ConsecutiveFailures; two failures in a row mark the snapshot offline.
//
// # Copying
//
// Snapshot copies slices and user locations so the UI can sort and filter
// its copy without racing the poller.
package state

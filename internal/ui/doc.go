// Package ui provides the vrcwatch terminal interface, built on Bubble Tea.
//
// # Views
//
//   - Friends: friends grouped under the instance they are in, largest
//     group first; offline and private friends on request ("o")
//   - Instance: world info, access tag and members of the selected
//     friend's instance, with "invite me here"
//   - Notifications: pending notifications with accept-all for friend
//     requests, mark read and dismiss
//   - Logs: tail of the vrcwatch log file with follow mode and a filter
//
// # Data Flow
//
// The UI never polls the API. A tick re-reads state.Store, which the app's
// poller keeps current. User actions and instance lookups run as tea.Cmd
// functions against the Client interface and report back as messages, so
// the update loop never blocks on the network.
//
// # Preferences
//
// Theme ("T") and offline visibility ("o") are written to prefs.toml as
// soon as they change.
package ui

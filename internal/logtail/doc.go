// Package logtail reads the tail of the vrcwatch log file for the TUI.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays proportional to the window and not the file. Missing files
// yield no lines and no error because the log is created lazily.
//
// # Parsing
//
// The application writes zerolog JSON. Parse turns a line into an Entry with
// time, level, message, error and the remaining fields sorted by key; lines
// that are not JSON objects (panics, hand edits) pass through as the message.
// Styling is left to the UI.
package logtail

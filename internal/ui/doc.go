// Package ui implements an interactive dashboard for a running watcher using bubbletea's Elm architecture.
//
// The TUI talks to the watcher's control API and offers three views:
//  1. [JobListView] : Browse tracked jobs, refreshed on a fixed interval
//  2. [JobDetailView] : Inspect one job's journal entries
//  3. [TrackView] : Hand a queue id to the watcher
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, a, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

// Package ui renders command output and batch progress for the terminal.
//
// Batch progress has two renderers fed by the same [tasks.Event] channel. On a terminal,
// [RunProgress] drives a bubbletea program showing a progress bar, the item in flight and a
// stop key; finished items are printed above the bar. Elsewhere [LineReporter] writes one
// line per finished item.
//
// Colors come from a lipgloss [Palette]. [ApplyColorMode] maps the core.color setting onto
// the termenv color profile before anything is rendered.
package ui

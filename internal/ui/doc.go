// Package ui provides the Bubble Tea terminal interface for Portfolio Finder.
//
// The screen is split into four rows:
//
//   - Input bar: portfolio type selector and query field
//   - Results: a bubbles table of the current result set with a column cursor
//   - Status bar: controller phase, last message and active settings
//   - Footer: short key help
//
// Searches run through a Finder. The model submits criteria, receives the
// result channel, and waits on it from a tea.Cmd so the event loop never
// blocks. While a search is outstanding the input bar is dimmed and further
// submissions are ignored.
//
// Overlays take over the screen one at a time: the help overlay, the settings
// and family filter modals, and the application log tail.
//
// Theme and maximum count changes are written back to the preferences file.
package ui

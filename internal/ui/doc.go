// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI monitors a likes sync as it runs:
//  1. [RunView] : Live progress while the engine detects, matches, and likes tracks
//  2. [ResultView] : Final counters and the tracks that could not be matched or liked
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Progress updates flow through a channel from the LikesEngine, providing
// non-blocking status reporting; the engine never stalls on a slow terminal.
//
// Keyboard input is minimal (q/ctrl+c to quit) with contextual help displayed
// via charmbracelet/bubbles/help.
package ui

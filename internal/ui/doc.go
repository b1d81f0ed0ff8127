// Package ui implements the terminal views of the badge service.
//
// The watch view is a bubbletea program with two views:
//  1. [UserListView] : Browse stored credentials and pick a user
//  2. [BadgeView] : Re-render the user's badge on an interval and show the track and palette
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the [tasks.Renderer], providing non-blocking status reporting while a
// render runs. Display toggles (spin, scan code, rainbow, theme) re-render immediately.
//
// The package also exposes the lipgloss helpers the CLI prints with: [Swatches] for palettes and [Table] for listings.
package ui
